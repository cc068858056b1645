package presslink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/variousdemeanors/pi-mcp2515/internal/adapters/source"
	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
	"github.com/variousdemeanors/pi-mcp2515/internal/ports"
	"github.com/variousdemeanors/pi-mcp2515/internal/wire"
)

type captureSink struct {
	mu      sync.Mutex
	batches [][]domain.Sample
}

func (c *captureSink) WriteBatch(samples []domain.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := make([]domain.Sample, len(samples))
	copy(batch, samples)
	c.batches = append(c.batches, batch)
	return nil
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.batches {
		n += len(b)
	}
	return n
}

type stubObs struct{}

func (stubObs) LogInfo(string, ...ports.Field)            {}
func (stubObs) LogError(string, error, ...ports.Field)    {}
func (stubObs) LogCritical(string, error, ...ports.Field) {}
func (stubObs) IncCounter(string, float64)                {}
func (stubObs) SetGauge(string, float64)                  {}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Archive.FlushInterval = 10 * time.Millisecond
	return cfg
}

func TestRuntimeIngestsFromStubSource(t *testing.T) {
	frames := [][]byte{
		wire.Encode(domain.Sample{ChannelA: 10.0, ChannelB: 1.0, Seq: 1}),
		wire.Encode(domain.Sample{ChannelA: 12.0, ChannelB: 2.0, Seq: 2}),
		wire.Encode(domain.Sample{ChannelA: 8.0, ChannelB: 3.0, Seq: 4}),
		wire.Encode(domain.Sample{ChannelA: 20.0, ChannelB: 4.0, Seq: 5}),
	}

	arch := &captureSink{}
	rt, err := NewRuntime(testConfig(t),
		WithSource(source.NewStubSource(frames...)),
		WithArchiveSink(arch),
		WithObservability(stubObs{}),
	)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	if err := rt.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rt.Snapshot().Link.Received < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	snap := rt.Snapshot()
	if snap.Link.Received != 4 || snap.Link.Lost != 1 {
		t.Fatalf("unexpected link state: %+v", snap.Link)
	}
	if snap.StatsA.Min != 8.0 || snap.StatsA.Max != 20.0 || snap.StatsA.Mean != 12.5 {
		t.Fatalf("unexpected channel A stats: %+v", snap.StatsA)
	}
	if snap.State != domain.Connected {
		t.Fatalf("expected Connected, got %v", snap.State)
	}

	for arch.total() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if arch.total() != 4 {
		t.Fatalf("expected 4 archived samples, got %d", arch.total())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewRuntimeWithCustomAdapters(t *testing.T) {
	src := source.NewStubSource()
	arch := &captureSink{}
	obs := stubObs{}

	rt, err := NewRuntime(testConfig(t),
		WithSource(src),
		WithArchiveSink(arch),
		WithObservability(obs),
	)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	if rt.src != src {
		t.Fatalf("expected custom source to be used")
	}
	if rt.archive != arch {
		t.Fatalf("expected custom archive sink to be used")
	}
	if rt.db != nil {
		t.Fatalf("expected db to be nil when custom sink is provided")
	}
}

func TestNewRuntimeRequiresConfig(t *testing.T) {
	if _, err := NewRuntime(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
