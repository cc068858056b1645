package presslink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/variousdemeanors/pi-mcp2515/internal/adapters/observability"
	"github.com/variousdemeanors/pi-mcp2515/internal/adapters/opcuabench"
	"github.com/variousdemeanors/pi-mcp2515/internal/adapters/sink"
	"github.com/variousdemeanors/pi-mcp2515/internal/adapters/source"
	"github.com/variousdemeanors/pi-mcp2515/internal/app/config"
	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
	"github.com/variousdemeanors/pi-mcp2515/internal/gauge"
	"github.com/variousdemeanors/pi-mcp2515/internal/ingest"
	"github.com/variousdemeanors/pi-mcp2515/internal/ports"
)

// Re-exported so embedders only need this package.
type (
	Config        = config.Config
	Snapshot      = domain.Snapshot
	Sample        = domain.Sample
	ConnState     = domain.ConnState
	Band          = gauge.Band
	FrameSource   = ports.FrameSource
	ArchiveSink   = ports.ArchiveSink
	Observability = ports.Observability
	Clock         = ports.Clock
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Classify maps a reading to its severity band within the configured range.
func Classify(value, min, max float64) Band {
	return gauge.Classify(value, min, max)
}

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	source  ports.FrameSource
	archive ports.ArchiveSink
	obs     ports.Observability
	clock   ports.Clock
}

// WithSource injects a custom frame source (serial bridge, simulator, replay).
func WithSource(s ports.FrameSource) Option {
	return func(o *overrides) { o.source = s }
}

// WithArchiveSink injects a custom archive backend.
func WithArchiveSink(s ports.ArchiveSink) Option {
	return func(o *overrides) { o.archive = s }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithClock overrides the receipt-time source. Used by tests.
func WithClock(c ports.Clock) Option {
	return func(o *overrides) { o.clock = c }
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Runtime wires source → coordinator → archive and serves metrics. It is the
// host-side counterpart of the firmware receiver's main loop.
type Runtime struct {
	cfg   *Config
	obs   ports.Observability
	coord *ingest.Coordinator

	src     ports.FrameSource
	archive ports.ArchiveSink
	db      *sql.DB

	frames     chan []byte
	archCh     chan domain.Sample
	started    time.Time
	metricsSrv *http.Server

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRuntime bootstraps the default adapters (UDP or bench source, Prometheus
// observability, Timescale archive when configured). Options override any of
// them.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	obs := ov.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	clock := ov.clock
	if clock == nil {
		clock = systemClock{}
	}

	src := ov.source
	var err error
	if src == nil {
		if cfg.Bench != nil {
			src, err = opcuabench.NewSource(*cfg.Bench)
		} else {
			src, err = source.NewUDPSource(cfg.Listen.UDPAddr)
		}
		if err != nil {
			return nil, err
		}
	}

	var (
		db      *sql.DB
		archive = ov.archive
	)
	if archive == nil && cfg.Archive.ConnString != "" {
		db, err = sql.Open("postgres", cfg.Archive.ConnString)
		if err != nil {
			return nil, err
		}
		archive = sink.NewTimescaleSink(db, cfg.Archive.Table)
	}

	rt := &Runtime{
		cfg:     cfg,
		obs:     obs,
		src:     src,
		archive: archive,
		db:      db,
		frames:  make(chan []byte, cfg.Link.QueueLen),
		stopCh:  make(chan struct{}),
	}

	coordOpts := []ingest.Option{ingest.WithTimeout(cfg.Link.Timeout)}
	if archive != nil {
		rt.archCh = make(chan domain.Sample, cfg.Archive.MaxBatch)
		coordOpts = append(coordOpts, ingest.WithOnAccept(rt.enqueueArchive))
	}
	rt.coord = ingest.NewCoordinator(clock, obs, coordOpts...)

	return rt, nil
}

// Start launches the source, the ingestion drain, the archive flusher, the
// snapshot poller, and the metrics server. It returns immediately; use Run to
// block on a context.
func (r *Runtime) Start() error {
	if err := r.src.Start(r.frames); err != nil {
		return fmt.Errorf("start source: %w", err)
	}
	r.started = time.Now()

	r.wg.Add(1)
	go r.drain()

	if r.archive != nil {
		r.wg.Add(1)
		go r.flushArchive()
	}

	r.wg.Add(1)
	go r.poll()

	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the context is cancelled, then
// attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the source, the background loops, the metrics server, and the
// archive connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if err := r.src.Stop(); err != nil {
		errs = append(errs, err)
	}

	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Snapshot returns the coordinator's current consistent view.
func (r *Runtime) Snapshot() Snapshot {
	return r.coord.Snapshot()
}

// Uptime reports how long the runtime has been started.
func (r *Runtime) Uptime() time.Duration {
	if r.started.IsZero() {
		return 0
	}
	return time.Since(r.started)
}

func (r *Runtime) drain() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopCh:
			return
		case raw := <-r.frames:
			// Rejected frames are counted by the coordinator and dropped.
			_ = r.coord.Ingest(raw)
		}
	}
}

func (r *Runtime) enqueueArchive(s domain.Sample) {
	select {
	case r.archCh <- s:
	default:
		// Archive backlog full: history is best-effort, live state is not.
	}
}

func (r *Runtime) flushArchive() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Archive.FlushInterval)
	defer ticker.Stop()

	batch := make([]domain.Sample, 0, r.cfg.Archive.MaxBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.archive.WriteBatch(batch); err != nil {
			r.obs.LogError("archive_write_failed", err)
		} else {
			r.obs.IncCounter("presslink_samples_archived_total", float64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-r.stopCh:
			flush()
			return
		case s := <-r.archCh:
			batch = append(batch, s)
			if len(batch) >= r.cfg.Archive.MaxBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// poll refreshes the derived health gauges once per second, matching the
// firmware's display cadence.
func (r *Runtime) poll() {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			snap := r.coord.Snapshot()
			r.obs.SetGauge("presslink_connection_state", float64(snap.State))
			r.obs.SetGauge("presslink_uptime_seconds", time.Since(r.started).Seconds())
		}
	}
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}
