// Command gpsbeacon-peer is the receiving node: it acknowledges beacon
// packets, decodes them and logs each fix.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gpsbeacon/internal/config"
	"gpsbeacon/internal/identity"
	"gpsbeacon/internal/logs"
	"gpsbeacon/internal/metrics"
	"gpsbeacon/internal/packet"
	"gpsbeacon/internal/radio"
	"gpsbeacon/internal/web"
)

type receiver interface {
	Recv(ctx context.Context) (radio.Datagram, error)
}

type peer struct {
	link  receiver
	log   *zap.Logger
	m     *metrics.Metrics
	fixes *fixLog
	now   func() time.Time
}

func (p *peer) run(ctx context.Context) error {
	for {
		dg, err := p.link.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		p.handle(dg)
	}
}

func (p *peer) handle(dg radio.Datagram) {
	rep, err := packet.Decode(dg.Payload)
	if err != nil {
		p.m.Received.WithLabelValues("malformed").Inc()
		p.log.Warn("malformed packet", zap.Uint8("from", dg.From), zap.String("hex", hex.EncodeToString(dg.Payload)), zap.Error(err))
		return
	}
	result := "fix"
	if !rep.Valid {
		result = "nofix"
	}
	p.m.Received.WithLabelValues(result).Inc()

	now := p.now()
	line := formatReport(now, dg.From, rep)
	p.log.Info("report", zap.Uint8("from", dg.From), zap.Uint8("id", dg.ID), zap.String("line", line))
	if p.fixes != nil {
		if err := p.fixes.Append(now, line); err != nil {
			p.log.Warn("fix log write failed", zap.Error(err))
		}
	}
}

func main() {
	listen := pflag.StringP("listen", "l", "127.0.0.1:6970", "UDP address of this node on the emulated air")
	address := pflag.Uint8P("address", "a", config.DefaultDest, "Node address")
	sync := pflag.StringP("sync", "s", hex.EncodeToString(radio.DefaultSyncWords[:]), "Network sync words, 4 hex digits")
	freq := pflag.Float64("frequency", radio.DefaultFrequencyMHz, "Frequency in MHz")
	logDir := pflag.String("log-dir", "", "Directory for the fix log; empty disables it")
	logPattern := pflag.String("log-pattern", "fixes-%Y%m%d.log", "strftime pattern for fix log file names")
	metricsListen := pflag.String("metrics", "", "HTTP address for /metrics; empty disables it")
	debug := pflag.Bool("debug", false, "Log at debug level")
	pflag.Parse()

	log, err := logs.New(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	sw, err := identity.ParseSync(*sync)
	if err != nil {
		log.Fatal("bad sync words", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	link, err := radio.Open(radio.Config{Listen: *listen}, log)
	if err != nil {
		log.Fatal("radio open failed", zap.Error(err))
	}
	defer link.Close()
	settings := radio.Settings{
		FrequencyMHz: *freq,
		TxPowerDBm:   radio.DefaultTxPowerDBm,
		HighPower:    true,
		SyncWords:    sw,
		Address:      *address,
	}
	if err := link.Init(settings); err != nil {
		log.Fatal("radio init failed", zap.Error(err))
	}

	m := metrics.New(true)
	p := &peer{link: link, log: logs.Component(log, "peer"), m: m, now: time.Now}
	if *logDir != "" {
		fl, err := newFixLog(*logDir, *logPattern)
		if err != nil {
			log.Fatal("fix log", zap.Error(err))
		}
		defer fl.Close()
		p.fixes = fl
	}
	if *metricsListen != "" {
		go func() {
			if err := web.Serve(ctx, *metricsListen, nil, m.Registry); err != nil && ctx.Err() == nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	log.Info("gpsbeacon-peer listening", zap.Stringer("addr", link.LocalAddr()), zap.Stringer("settings", settings))
	if err := p.run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("receive failed", zap.Error(err))
	}
}
