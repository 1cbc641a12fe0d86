package web

import (
	"sync/atomic"
	"time"
)

// Status is the live view served at /api/status. Safe for concurrent use.
type Status struct {
	startUnixNano int64
	cycles        uint64
	sendFailures  uint64
	lastCycleNano int64
	source        atomic.Value // string
	radio         atomic.Value // string
	station       atomic.Value // string
	last          atomic.Value // PacketSnapshot
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.source.Store("")
	s.radio.Store("")
	s.station.Store("")
	s.last.Store(PacketSnapshot{})
	return s
}

// PacketSnapshot describes the most recent packet handed to the radio.
type PacketSnapshot struct {
	Shape   string `json:"shape,omitempty"`
	Payload string `json:"payload,omitempty"`
	Length  int    `json:"length"`
	Sent    bool   `json:"sent"`
}

func (s *Status) SetStatic(source, radio, station string) {
	if source != "" {
		s.source.Store(source)
	}
	if radio != "" {
		s.radio.Store(radio)
	}
	if station != "" {
		s.station.Store(station)
	}
}

// MarkCycle records one completed cycle.
func (s *Status) MarkCycle(nowUTC time.Time, pkt PacketSnapshot) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	atomic.StoreInt64(&s.lastCycleNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.cycles, 1)
	if !pkt.Sent {
		atomic.AddUint64(&s.sendFailures, 1)
	}
	s.last.Store(pkt)
}

type StatusSnapshot struct {
	Service           string         `json:"service"`
	NowUTC            string         `json:"now_utc"`
	UptimeSec         int64          `json:"uptime_sec"`
	Source            string         `json:"source"`
	Radio             string         `json:"radio"`
	Station           string         `json:"station"`
	CyclesTotal       uint64         `json:"cycles_total"`
	SendFailuresTotal uint64         `json:"send_failures_total"`
	LastCycleUTC      string         `json:"last_cycle_utc,omitempty"`
	LastPacket        PacketSnapshot `json:"last_packet"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	lastCycle := atomic.LoadInt64(&s.lastCycleNano)

	snap := StatusSnapshot{
		Service:           "gpsbeacon",
		NowUTC:            nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:         int64(nowUTC.Sub(start).Seconds()),
		Source:            s.source.Load().(string),
		Radio:             s.radio.Load().(string),
		Station:           s.station.Load().(string),
		CyclesTotal:       atomic.LoadUint64(&s.cycles),
		SendFailuresTotal: atomic.LoadUint64(&s.sendFailures),
		LastPacket:        s.last.Load().(PacketSnapshot),
	}
	if lastCycle != 0 {
		snap.LastCycleUTC = time.Unix(0, lastCycle).UTC().Format(time.RFC3339Nano)
	}
	return snap
}
