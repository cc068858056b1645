package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
	"github.com/variousdemeanors/pi-mcp2515/internal/ports"
)

// TimescaleSink archives accepted samples to a hypertable. The unique key on
// (seq, received_at) keeps replays idempotent.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleSink(db *sql.DB, table string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) WriteBatch(samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	now := time.Now().UTC()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (received_at, seq, sent_ms, channel_a, channel_b) VALUES ")

	args := make([]any, 0, len(samples)*5)
	for i, s := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
		args = append(args, now, s.Seq, s.SentMillis, s.ChannelA, s.ChannelB)
	}

	b.WriteString(" ON CONFLICT (received_at, seq) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

var _ ports.ArchiveSink = (*TimescaleSink)(nil)
