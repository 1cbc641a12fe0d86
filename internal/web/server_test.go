package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gpsbeacon/internal/metrics"
)

func TestAPIStatus(t *testing.T) {
	st := NewStatus()
	st.SetStatic("sim", "433.00MHz 20dBm", "N0CALL")
	st.MarkCycle(time.Time{}, PacketSnapshot{Shape: "fix", Payload: "x", Length: 1, Sent: false})

	ts := httptest.NewServer(Handler(st, nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var snap StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if snap.Service != "gpsbeacon" {
		t.Fatalf("service=%q", snap.Service)
	}
	if snap.Station != "N0CALL" || snap.Source != "sim" {
		t.Fatalf("static fields=%+v", snap)
	}
	if snap.CyclesTotal != 1 || snap.SendFailuresTotal != 1 {
		t.Fatalf("counters=%d/%d", snap.CyclesTotal, snap.SendFailuresTotal)
	}
	if snap.LastPacket.Shape != "fix" || snap.LastCycleUTC == "" {
		t.Fatalf("last=%+v at %q", snap.LastPacket, snap.LastCycleUTC)
	}
}

func TestAPIStatusRejectsPost(t *testing.T) {
	ts := httptest.NewServer(Handler(NewStatus(), nil))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "text/plain", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New(false)
	m.Cycles.Add(3)

	ts := httptest.NewServer(Handler(NewStatus(), m.Registry))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "gpsbeacon_cycles_total 3") {
		t.Fatalf("metrics body missing counter:\n%s", b)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", nil, nil) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() err=%v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Serve did not stop")
	}
}

func TestServeBindError(t *testing.T) {
	if err := Serve(context.Background(), "256.0.0.1:1", nil, nil); err == nil {
		t.Fatalf("expected bind error")
	}
}
