// Package metrics holds the beacon's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "gpsbeacon"

// Sentence results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

type Metrics struct {
	Registry *prometheus.Registry

	Cycles         prometheus.Counter
	Sentences      *prometheus.CounterVec
	Packets        *prometheus.CounterVec
	SendFailures   prometheus.Counter
	LineOverruns   prometheus.Counter
	TokenOverflows prometheus.Counter
	Received       *prometheus.CounterVec
}

// New builds a registry. withRuntime adds the Go and process collectors.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed acquire-and-send cycles.",
		}),
		Sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_total",
			Help:      "Complete NMEA lines seen, by filter result.",
		}, []string{"result"}),
		Packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_total",
			Help:      "Packets assembled, by shape.",
		}, []string{"shape"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Packets that were not acknowledged.",
		}),
		LineOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_overruns_total",
			Help:      "Lines longer than the line buffer.",
		}),
		TokenOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_overflows_total",
			Help:      "Sentences with more fields than token slots.",
		}),
		Received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received_total",
			Help:      "Packets received by a peer, by decode result.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(
		m.Cycles,
		m.Sentences,
		m.Packets,
		m.SendFailures,
		m.LineOverruns,
		m.TokenOverflows,
		m.Received,
	)
	if withRuntime {
		m.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}
