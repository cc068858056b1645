package ports

import (
	"time"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
)

// FrameSource delivers raw radio frames into the pipeline. Implementations
// push frames onto the channel from their own goroutine or callback context;
// the bounded channel keeps that context decoupled from ingestion.
type FrameSource interface {
	Start(out chan<- []byte) error
	Stop() error
}

// Clock abstracts the monotonic receipt-time source so health transitions can
// be tested deterministically.
type Clock interface {
	Now() time.Time
}

// ArchiveSink persists accepted samples for later inspection.
type ArchiveSink interface {
	WriteBatch(samples []domain.Sample) error
	Name() string
}

// Observability emits metrics and logs about frame flow and link health.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
}

// Field is a structured log field used by Observability implementations.
type Field struct {
	Key   string
	Value any
}
