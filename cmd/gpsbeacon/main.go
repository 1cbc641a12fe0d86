package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gpsbeacon/internal/beacon"
	"gpsbeacon/internal/config"
	"gpsbeacon/internal/identity"
	"gpsbeacon/internal/indicator"
	"gpsbeacon/internal/logs"
	"gpsbeacon/internal/metrics"
	"gpsbeacon/internal/radio"
	"gpsbeacon/internal/web"
)

func main() {
	configPath := pflag.StringP("config", "c", "./dev.yaml", "Path to YAML config")
	debug := pflag.Bool("debug", false, "Log at debug level, including every sentence and packet")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logs.New(cfg.Log.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("gpsbeacon starting")
	if err := run(ctx, cfg, log); err != nil && ctx.Err() == nil {
		log.Fatal("gpsbeacon stopped", zap.Error(err))
	}
	log.Info("gpsbeacon stopping")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	m := metrics.New(true)
	status := web.NewStatus()

	src, err := openSource(cfg.GNSS, log)
	if err != nil {
		return errors.Wrap(err, "gnss source")
	}
	defer src.Close()

	store, err := identity.OpenStorage(cfg.Identity.Storage())
	if err != nil {
		return errors.Wrap(err, "identity storage")
	}
	defer store.Close()

	link, err := radio.Open(cfg.Radio.Link(), log)
	if err != nil {
		return err
	}
	defer link.Close()

	led, err := indicator.Open(cfg.Indicator.LED(), log)
	if err != nil {
		log.Warn("indicator unavailable, failures are only logged", zap.Error(err))
		led = indicator.New(nil, log)
	}
	defer led.Close()

	b, err := beacon.Start(store, src, src.out, link, led, beacon.Options{
		Dest:          byte(cfg.Radio.Dest),
		Radio:         cfg.Radio.Settings(radio.DefaultSyncWords),
		ConfigRepeats: cfg.GNSS.ConfigRepeats,
		PollInterval:  cfg.GNSS.PollInterval,
		Blink:         cfg.Indicator.Blink,
		Metrics:       m,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	status.SetStatic(src.name, link.Settings().String(), b.Identity().StationID())

	if cfg.Metrics.Listen != "" {
		log.Info("status server", zap.String("listen", cfg.Metrics.Listen))
		go func() {
			if err := web.Serve(ctx, cfg.Metrics.Listen, status, m.Registry); err != nil && ctx.Err() == nil {
				log.Error("status server stopped", zap.Error(err))
			}
		}()
	}

	return b.Run(ctx, func(r beacon.Result) {
		status.MarkCycle(time.Now().UTC(), snapshot(r))
	})
}

func snapshot(r beacon.Result) web.PacketSnapshot {
	return web.PacketSnapshot{
		Shape:   r.Shape.String(),
		Payload: strings.ToValidUTF8(string(r.Packet), "?"),
		Length:  len(r.Packet),
		Sent:    r.Sent,
	}
}
