package ingest

import (
	"sync"
	"time"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
	"github.com/variousdemeanors/pi-mcp2515/internal/link"
	"github.com/variousdemeanors/pi-mcp2515/internal/ports"
	"github.com/variousdemeanors/pi-mcp2515/internal/stats"
	"github.com/variousdemeanors/pi-mcp2515/internal/wire"
)

// Coordinator owns all mutable link state: the loss tracker, both channel
// aggregates, and the receipt bookkeeping. One mutex guards everything, so
// Ingest is atomic with respect to Snapshot and a reader can never observe
// statistics from a newer packet than the displayed values.
type Coordinator struct {
	mu sync.Mutex

	clock   ports.Clock
	obs     ports.Observability
	timeout time.Duration

	tracker      link.SeqTracker
	statsA       stats.Aggregator
	statsB       stats.Aggregator
	lastA, lastB float64
	linkState    domain.LinkState

	onAccept func(domain.Sample)
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithTimeout overrides the staleness window used to derive connection state.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOnAccept installs a hook invoked with every accepted sample, after its
// effects are folded into the aggregate state. Used for the archive path.
func WithOnAccept(fn func(domain.Sample)) Option {
	return func(c *Coordinator) {
		c.onAccept = fn
	}
}

func NewCoordinator(clock ports.Clock, obs ports.Observability, opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:   clock,
		obs:     obs,
		timeout: link.DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Ingest validates and folds one raw frame into the aggregate state. A frame
// of the wrong size is dropped wholesale: no counter moves, no state mutates,
// and the frame stays invisible to loss accounting since it never carried a
// usable sequence number.
func (c *Coordinator) Ingest(raw []byte) error {
	sample, err := wire.Decode(raw)
	if err != nil {
		c.obs.IncCounter("presslink_frames_rejected_total", 1)
		return err
	}

	c.mu.Lock()
	lost := c.tracker.Observe(sample.Seq)
	c.linkState.Lost += lost
	c.linkState.Received++
	c.linkState.LastReceipt = c.clock.Now()
	if highest, ok := c.tracker.Last(); ok {
		c.linkState.HighestSeq = highest
	}

	c.statsA.Record(sample.ChannelA)
	c.statsB.Record(sample.ChannelB)
	c.lastA = sample.ChannelA
	c.lastB = sample.ChannelB
	c.mu.Unlock()

	c.obs.IncCounter("presslink_frames_received_total", 1)
	if lost > 0 {
		c.obs.IncCounter("presslink_packets_lost_total", float64(lost))
	}
	c.obs.SetGauge("presslink_pressure_a_psi", sample.ChannelA)
	c.obs.SetGauge("presslink_pressure_b_psi", sample.ChannelB)

	if c.onAccept != nil {
		c.onAccept(sample)
	}
	return nil
}

// Snapshot returns an immutable copy of the current state, including the
// connection health derived from the clock at call time.
func (c *Coordinator) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.Snapshot{
		ChannelA: c.lastA,
		ChannelB: c.lastB,
		StatsA:   c.statsA.Snapshot(),
		StatsB:   c.statsB.Snapshot(),
		Link:     c.linkState,
		State:    link.State(c.linkState.LastReceipt, c.clock.Now(), c.timeout),
	}
}
