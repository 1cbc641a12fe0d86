package main

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"gpsbeacon/internal/config"
	"gpsbeacon/internal/gnss"
	"gpsbeacon/internal/nmea"
	"gpsbeacon/internal/replay"
	"gpsbeacon/internal/sim"
)

// gnssSource is the byte stream the beacon reads plus the sink its startup
// configuration is written to.
type gnssSource struct {
	nmea.Source
	out     io.Writer
	name    string
	closers []io.Closer
}

func (s *gnssSource) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var openPortFn = func(device string, baud int) (*gnss.Port, error) {
	return gnss.Open(device, baud)
}

func openSource(cfg config.GNSSConfig, log *zap.Logger) (*gnssSource, error) {
	s := &gnssSource{name: cfg.Source}

	switch cfg.Source {
	case "serial":
		p, err := openPortFn(cfg.Device, cfg.Baud)
		if err != nil {
			return nil, err
		}
		log.Info("gnss serial open", zap.String("device", p.Device()), zap.Int("baud", p.Baud()))
		s.Source, s.out = p, p
		s.closers = append(s.closers, p)
	case "sim":
		g := &sim.GNSS{
			Track: sim.Track{
				CenterLatDeg: cfg.Sim.CenterLatDeg,
				CenterLonDeg: cfg.Sim.CenterLonDeg,
				RadiusNm:     cfg.Sim.RadiusNm,
				Period:       cfg.Sim.Period,
			},
			Interval: cfg.Sim.Interval,
			NoFix:    cfg.Sim.NoFix,
			Chatter:  cfg.Sim.Chatter,
		}
		log.Info("gnss simulator", zap.Duration("interval", cfg.Sim.Interval), zap.Bool("no_fix", cfg.Sim.NoFix))
		s.Source, s.out = g, g
		s.closers = append(s.closers, g)
	case "replay":
		recs, err := replay.Load(cfg.Replay.Path)
		if err != nil {
			return nil, err
		}
		p, err := replay.NewPlayer(recs, cfg.Replay.Speed, cfg.Replay.Loop, nil)
		if err != nil {
			return nil, errors.Wrap(err, "replay")
		}
		log.Info("gnss replay", zap.String("path", cfg.Replay.Path), zap.Int("records", len(recs)),
			zap.Float64("speed", cfg.Replay.Speed), zap.Bool("loop", cfg.Replay.Loop))
		s.Source, s.out = p, io.Discard
	default:
		return nil, errors.Errorf("unknown gnss source %q", cfg.Source)
	}

	if cfg.Capture.Enable {
		w, err := replay.CreateWriter(cfg.Capture.Path, cfg.Capture.Append)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		c := replay.NewCapture(s.Source, w)
		log.Info("gnss capture", zap.String("path", cfg.Capture.Path))
		s.Source = c
		s.closers = append(s.closers, c)
	}
	return s, nil
}
