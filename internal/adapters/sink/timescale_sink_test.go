package sink

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
)

func TestTimescaleSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "pressure_samples")

	samples := []domain.Sample{
		{ChannelA: 45.5, ChannelB: 38.25, SentMillis: 1000, Seq: 1},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO pressure_samples (received_at, seq, sent_ms, channel_a, channel_b) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (received_at, seq) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(sqlmock.AnyArg(), uint32(1), uint32(1000), 45.5, 38.25).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.WriteBatch(samples); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "pressure_samples")
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink := NewTimescaleSink(db, "pressure_samples")
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}
