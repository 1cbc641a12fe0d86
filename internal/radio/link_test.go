package radio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func settings(addr byte) Settings {
	return Settings{
		FrequencyMHz: DefaultFrequencyMHz,
		TxPowerDBm:   DefaultTxPowerDBm,
		HighPower:    true,
		SyncWords:    DefaultSyncWords,
		Address:      addr,
	}
}

// pair opens a receiving node (0x01) and a sending node (0x02) aimed at it.
func pair(t *testing.T, rxSync [2]byte) (tx, rx *Link) {
	t.Helper()
	rx, err := Open(Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { rx.Close() })
	rs := settings(0x01)
	rs.SyncWords = rxSync
	require.NoError(t, rx.Init(rs))

	tx, err = Open(Config{Peer: rx.LocalAddr().String(), Retries: 2, AckTimeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { tx.Close() })
	require.NoError(t, tx.Init(settings(0x02)))
	return tx, rx
}

func TestLink_SendToWaitAcknowledged(t *testing.T) {
	tx, rx := pair(t, DefaultSyncWords)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got := make(chan Datagram, 1)
	go func() {
		d, err := rx.Recv(ctx)
		if err == nil {
			got <- d
		}
	}()

	require.True(t, tx.SendToWait([]byte("W1ABC ,V,x"), 0x01))
	d := <-got
	assert.Equal(t, byte(0x02), d.From)
	assert.Equal(t, byte(0x01), d.To)
	assert.Equal(t, "W1ABC ,V,x", string(d.Payload))
}

func TestLink_SendToWaitNoPeerListening(t *testing.T) {
	tx, _ := pair(t, DefaultSyncWords)
	start := time.Now()
	assert.False(t, tx.SendToWait([]byte("hello"), 0x01))
	assert.GreaterOrEqual(t, time.Since(start), 3*50*time.Millisecond)
}

func TestLink_SyncMismatchIsNotHeard(t *testing.T) {
	tx, rx := pair(t, [2]byte{0xAA, 0xBB})

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := rx.Recv(ctx)
		done <- err
	}()

	assert.False(t, tx.SendToWait([]byte("hello"), 0x01))
	assert.ErrorIs(t, <-done, context.DeadlineExceeded)
}

func TestLink_BroadcastNeedsNoAck(t *testing.T) {
	tx, _ := pair(t, DefaultSyncWords)
	assert.True(t, tx.SendToWait([]byte("cq"), BroadcastAddress))
}

func TestLink_RejectsBeforeInitAndOversize(t *testing.T) {
	l, err := Open(Config{Peer: "127.0.0.1:9"}, nil)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, l.SendToWait([]byte("x"), 1))
	_, err = l.Recv(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, l.Init(settings(2)))
	assert.False(t, l.SendToWait(make([]byte, MaxMessageLen+1), 1))
	assert.ErrorIs(t, l.checkSend(make([]byte, MaxMessageLen+1)), ErrPayloadTooLong)
}

func TestLink_DuplicateAckedButDeliveredOnce(t *testing.T) {
	_, rx := pair(t, DefaultSyncWords)

	raw, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer raw.Close()

	frame := encodeFrame(nil, header{sync: DefaultSyncWords, to: 0x01, from: 0x07, id: 9}, []byte("one"))
	for i := 0; i < 2; i++ {
		_, err = raw.WriteTo(frame, rx.LocalAddr())
		require.NoError(t, err)
	}
	next := encodeFrame(nil, header{sync: DefaultSyncWords, to: 0x01, from: 0x07, id: 10}, []byte("two"))
	_, err = raw.WriteTo(next, rx.LocalAddr())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", string(d.Payload))
	d, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", string(d.Payload))

	acks := 0
	buf := make([]byte, 64)
	_ = raw.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	for acks < 3 {
		n, _, err := raw.ReadFrom(buf)
		if err != nil {
			break
		}
		h, body, err := decodeFrame(buf[:n])
		require.NoError(t, err)
		assert.True(t, h.isAck())
		assert.Equal(t, byte(0x07), h.to)
		assert.Equal(t, "!", string(body))
		acks++
	}
	assert.Equal(t, 3, acks)
}

func TestSettings_Validate(t *testing.T) {
	s := settings(2)
	require.NoError(t, s.Validate())

	bad := s
	bad.FrequencyMHz = 600
	assert.ErrorContains(t, bad.Validate(), "outside RFM69 bands")

	bad = s
	bad.HighPower = false
	assert.ErrorContains(t, bad.Validate(), "tx power")

	bad = s
	bad.Address = BroadcastAddress
	assert.ErrorContains(t, bad.Validate(), "reserved for broadcast")
}

func TestSettings_ValidateTxPowerRange(t *testing.T) {
	cases := []struct {
		dbm   int
		high  bool
		valid bool
	}{
		{dbm: -18, high: false, valid: true},
		{dbm: 13, high: false, valid: true},
		{dbm: 14, high: false, valid: false},
		{dbm: -19, high: false, valid: false},
		{dbm: -2, high: true, valid: true},
		{dbm: 20, high: true, valid: true},
		{dbm: -3, high: true, valid: false},
		{dbm: -18, high: true, valid: false},
		{dbm: 21, high: true, valid: false},
	}
	for _, tc := range cases {
		s := settings(2)
		s.TxPowerDBm = tc.dbm
		s.HighPower = tc.high
		err := s.Validate()
		if tc.valid && err != nil {
			t.Fatalf("%d dBm high=%v: unexpected err %v", tc.dbm, tc.high, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("%d dBm high=%v: expected error", tc.dbm, tc.high)
		}
	}
}

func TestDecodeFrame_Short(t *testing.T) {
	_, _, err := decodeFrame([]byte{1, 2, 3})
	assert.ErrorIs(t, err, errShortFrame)
}
