package radio

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotInitialized = pkgerrors.New("radio: not initialized")
	ErrPayloadTooLong = pkgerrors.New("radio: payload too long")
)

const (
	DefaultRetries    = 3
	DefaultAckTimeout = 200 * time.Millisecond

	recvPoll = 250 * time.Millisecond
)

// Config locates the node on the emulated air.
type Config struct {
	// Listen is the local UDP address, e.g. ":6970". Empty picks a free port.
	Listen string
	// Peer is where outbound frames go. Receivers answer to the sender's
	// address and do not need it.
	Peer string

	Retries    int
	AckTimeout time.Duration
}

// Datagram is a delivered data frame.
type Datagram struct {
	From    byte
	To      byte
	ID      byte
	Payload []byte
}

// Link is one radio node. It is not safe for concurrent use.
type Link struct {
	cfg  Config
	conn net.PacketConn
	peer net.Addr
	log  *zap.Logger

	settings Settings
	inited   bool

	seq     byte
	lastID  [256]int
	txBuf   [headerLen + MaxMessageLen]byte
	rxBuf   [1500]byte
	ackBody [1]byte
}

// Open binds the node's socket.
func Open(cfg Config, log *zap.Logger) (*Link, error) {
	if log == nil {
		log = zap.NewNop()
	}
	listen := cfg.Listen
	if listen == "" {
		listen = "127.0.0.1:0"
	}
	conn, err := net.ListenPacket("udp", listen)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "radio listen %s", listen)
	}
	var peer net.Addr
	if cfg.Peer != "" {
		peer, err = net.ResolveUDPAddr("udp", cfg.Peer)
		if err != nil {
			_ = conn.Close()
			return nil, pkgerrors.Wrap(err, "resolve peer")
		}
	}
	return newLink(cfg, conn, peer, log), nil
}

func newLink(cfg Config, conn net.PacketConn, peer net.Addr, log *zap.Logger) *Link {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	l := &Link{cfg: cfg, conn: conn, peer: peer, log: log.With(zap.String("component", "radio"))}
	for i := range l.lastID {
		l.lastID[i] = -1
	}
	l.ackBody[0] = '!'
	return l
}

// Init applies settings. A node that fails Init cannot transmit.
func (l *Link) Init(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.settings = s
	l.inited = true
	l.log.Info("radio init", zap.Stringer("settings", s), zap.Stringer("local", l.conn.LocalAddr()))
	return nil
}

func (l *Link) Settings() Settings { return l.settings }

func (l *Link) LocalAddr() net.Addr { return l.conn.LocalAddr() }

// SendToWait transmits payload to dest and waits for its acknowledgement,
// retransmitting up to Retries times. Broadcasts report success once sent.
func (l *Link) SendToWait(payload []byte, dest byte) bool {
	if err := l.checkSend(payload); err != nil {
		l.log.Warn("send rejected", zap.Error(err))
		return false
	}
	l.seq++
	h := header{sync: l.settings.SyncWords, to: dest, from: l.settings.Address, id: l.seq}
	frame := encodeFrame(l.txBuf[:0], h, payload)

	for attempt := 0; attempt <= l.cfg.Retries; attempt++ {
		if _, err := l.conn.WriteTo(frame, l.peer); err != nil {
			l.log.Warn("transmit failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if dest == BroadcastAddress {
			return true
		}
		if l.waitAck(dest, h.id) {
			return true
		}
		l.log.Debug("no ack", zap.Uint8("id", h.id), zap.Int("attempt", attempt))
	}
	return false
}

func (l *Link) checkSend(payload []byte) error {
	if !l.inited {
		return ErrNotInitialized
	}
	if len(payload) > MaxMessageLen {
		return pkgerrors.Wrapf(ErrPayloadTooLong, "%d bytes", len(payload))
	}
	if l.peer == nil {
		return pkgerrors.New("radio: no peer configured")
	}
	return nil
}

func (l *Link) waitAck(from, id byte) bool {
	deadline := time.Now().Add(l.cfg.AckTimeout)
	for {
		if err := l.conn.SetReadDeadline(deadline); err != nil {
			return false
		}
		n, _, err := l.conn.ReadFrom(l.rxBuf[:])
		if err != nil {
			return false
		}
		h, _, err := decodeFrame(l.rxBuf[:n])
		if err != nil || h.sync != l.settings.SyncWords {
			continue
		}
		if h.isAck() && h.to == l.settings.Address && h.from == from && h.id == id {
			return true
		}
	}
}

// Recv blocks until a data frame for this node arrives, acknowledging it.
// Retransmissions of the last frame from a node are acknowledged again but
// not delivered twice.
func (l *Link) Recv(ctx context.Context) (Datagram, error) {
	if !l.inited {
		return Datagram{}, ErrNotInitialized
	}
	for {
		if err := ctx.Err(); err != nil {
			return Datagram{}, err
		}
		if err := l.conn.SetReadDeadline(time.Now().Add(recvPoll)); err != nil {
			return Datagram{}, err
		}
		n, addr, err := l.conn.ReadFrom(l.rxBuf[:])
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return Datagram{}, pkgerrors.Wrap(err, "radio receive")
		}
		h, payload, err := decodeFrame(l.rxBuf[:n])
		if err != nil || h.sync != l.settings.SyncWords || h.isAck() {
			continue
		}
		if h.to != l.settings.Address && h.to != BroadcastAddress {
			continue
		}
		if h.to != BroadcastAddress {
			l.ack(addr, h)
		}
		if l.lastID[h.from] == int(h.id) {
			l.log.Debug("duplicate suppressed", zap.Uint8("from", h.from), zap.Uint8("id", h.id))
			continue
		}
		l.lastID[h.from] = int(h.id)
		return Datagram{
			From:    h.from,
			To:      h.to,
			ID:      h.id,
			Payload: append([]byte(nil), payload...),
		}, nil
	}
}

func (l *Link) ack(addr net.Addr, h header) {
	reply := header{sync: l.settings.SyncWords, to: h.from, from: l.settings.Address, id: h.id, flags: flagAck}
	var buf [headerLen + 1]byte
	frame := encodeFrame(buf[:0], reply, l.ackBody[:])
	if _, err := l.conn.WriteTo(frame, addr); err != nil {
		l.log.Warn("ack failed", zap.Error(err))
	}
}

func (l *Link) Close() error {
	if l == nil || l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
