// Package beacon runs the acquire-and-send loop: one RMC sentence in, one
// acknowledged radio packet out.
package beacon

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"gpsbeacon/internal/gnss"
	"gpsbeacon/internal/identity"
	"gpsbeacon/internal/indicator"
	"gpsbeacon/internal/metrics"
	"gpsbeacon/internal/nmea"
	"gpsbeacon/internal/packet"
	"gpsbeacon/internal/radio"
)

// Radio is the reliable-datagram link.
type Radio interface {
	Init(s radio.Settings) error
	SendToWait(payload []byte, dest byte) bool
}

// Indicator signals send failures.
type Indicator interface {
	Blink(on time.Duration, loops int)
}

type Options struct {
	// Dest is the peer's node address.
	Dest byte
	// Radio is applied at startup with SyncWords replaced by the identity's.
	Radio radio.Settings
	// ConfigRepeats is how often each GNSS configuration sentence is sent.
	ConfigRepeats int
	PollInterval  time.Duration
	Blink         time.Duration

	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Result describes one cycle.
type Result struct {
	// Packet aliases the beacon's buffer and is valid until the next cycle.
	Packet []byte
	Shape  packet.Shape
	Sent   bool

	Rejected      int
	Overrun       bool
	TokenOverflow bool
	Truncated     bool
}

// Beacon owns the line, token and packet buffers for the life of the
// process. It is not safe for concurrent use.
type Beacon struct {
	line   nmea.Reassembler
	tokens nmea.Tokens
	packet packet.Assembler
	ident  identity.Record

	src   nmea.Source
	radio Radio
	led   Indicator
	opts  Options
	log   *zap.Logger
	m     *metrics.Metrics
}

// Start reads the identity record, configures the GNSS receiver and
// initializes the radio, in that order. A radio that refuses its settings
// is fatal.
func Start(store io.ReaderAt, src nmea.Source, gnssOut io.Writer, rad Radio, led Indicator, opts Options) (*Beacon, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "beacon"))
	if led == nil {
		led = indicator.New(nil, log)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(false)
	}
	if opts.Blink <= 0 {
		opts.Blink = indicator.DefaultBlink
	}

	b := &Beacon{src: src, radio: rad, led: led, opts: opts, log: log, m: opts.Metrics}
	b.line.PollInterval = opts.PollInterval

	rec, err := identity.Load(store)
	if err != nil {
		return nil, errors.Wrap(err, "read identity")
	}
	b.ident = rec
	b.packet.SetIdentity(rec)
	log.Info("identity loaded",
		zap.String("station", rec.StationID()),
		zap.Binary("sync", rec.Sync[:]),
		zap.Bool("erased", rec.Erased()))

	if gnssOut != nil {
		if err := gnss.Configure(gnssOut, opts.ConfigRepeats); err != nil {
			return nil, err
		}
	}

	settings := opts.Radio
	settings.SyncWords = rec.Sync
	if err := rad.Init(settings); err != nil {
		log.Error("radio init failed", zap.Stringer("settings", settings), zap.Error(err))
		return nil, errors.Wrap(err, "radio init")
	}
	log.Info("radio ready", zap.Stringer("settings", settings), zap.Uint8("dest", opts.Dest))
	return b, nil
}

// Identity returns the record read at startup.
func (b *Beacon) Identity() identity.Record { return b.ident }

// Packet exposes the outbound buffer, identity prefix included.
func (b *Beacon) Packet() *[packet.Capacity]byte { return b.packet.Buffer() }

// Cycle runs until one RMC sentence has been sent, or the send failed.
// Only source errors and ctx cancellation are returned.
func (b *Beacon) Cycle(ctx context.Context) (Result, error) {
	var res Result
	var line []byte
	for {
		b.line.Reset()
		b.packet.Reset()

		var err error
		line, err = b.line.ReadLine(ctx, b.src)
		if err != nil {
			return res, err
		}
		if b.line.Overrun() {
			res.Overrun = true
			b.m.LineOverruns.Inc()
		}
		if nmea.IsRMC(line) {
			break
		}
		res.Rejected++
		b.m.Sentences.WithLabelValues(metrics.ResultRejected).Inc()
	}
	b.m.Sentences.WithLabelValues(metrics.ResultAccepted).Inc()
	b.log.Debug("sentence", zap.ByteString("nmea", line))

	if n := nmea.Tokenize(line, &b.tokens); n == nmea.TokenCapacity && bytes.IndexByte(line, ',') >= 0 {
		res.TokenOverflow = true
		b.m.TokenOverflows.Inc()
	}

	res.Shape = b.packet.Assemble(&b.tokens)
	res.Packet = b.packet.Bytes()
	res.Truncated = b.packet.Truncated()
	b.log.Debug("packet", zap.ByteString("payload", res.Packet), zap.Stringer("shape", res.Shape))

	res.Sent = b.radio.SendToWait(res.Packet, b.opts.Dest)
	if !res.Sent {
		b.log.Warn("send failed", zap.Uint8("dest", b.opts.Dest), zap.Int("len", len(res.Packet)))
		b.m.SendFailures.Inc()
		b.led.Blink(b.opts.Blink, 1)
	}

	b.m.Cycles.Inc()
	b.m.Packets.WithLabelValues(res.Shape.String()).Inc()
	return res, nil
}

// Run cycles until ctx is done or the source fails. onCycle may be nil.
func (b *Beacon) Run(ctx context.Context, onCycle func(Result)) error {
	for {
		res, err := b.Cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "gnss read")
		}
		if onCycle != nil {
			onCycle(res)
		}
	}
}
