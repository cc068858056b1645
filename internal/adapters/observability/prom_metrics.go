package observability

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/variousdemeanors/pi-mcp2515/internal/ports"
)

// PromObs backs the Observability port with pre-registered Prometheus metrics.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

func NewPromObs() *PromObs {
	received := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presslink_frames_received_total",
		Help: "Frames that passed the size check and were folded into link state.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presslink_frames_rejected_total",
		Help: "Frames dropped for a wire-size mismatch.",
	})
	lost := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presslink_packets_lost_total",
		Help: "Packets skipped between consecutive sequence numbers.",
	})
	archived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presslink_samples_archived_total",
		Help: "Accepted samples written to the archive sink.",
	})
	pressureA := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presslink_pressure_a_psi",
		Help: "Most recent channel A reading.",
	})
	pressureB := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presslink_pressure_b_psi",
		Help: "Most recent channel B reading.",
	})
	connState := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presslink_connection_state",
		Help: "Derived link health: 0=waiting, 1=connected, 2=timed_out.",
	})
	uptime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presslink_uptime_seconds",
		Help: "Seconds since the receiver process started.",
	})

	prometheus.MustRegister(received, rejected, lost, archived, pressureA, pressureB, connState, uptime)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"presslink_frames_received_total":  received,
			"presslink_frames_rejected_total":  rejected,
			"presslink_packets_lost_total":     lost,
			"presslink_samples_archived_total": archived,
		},
		gauges: map[string]prometheus.Gauge{
			"presslink_pressure_a_psi":   pressureA,
			"presslink_pressure_b_psi":   pressureB,
			"presslink_connection_state": connState,
			"presslink_uptime_seconds":   uptime,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v", msg, err)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v", msg, err)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

var _ ports.Observability = (*PromObs)(nil)
