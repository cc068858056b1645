package stats

import "testing"

func TestAggregatorFirstSampleSeedsBounds(t *testing.T) {
	var a Aggregator
	a.Record(-42.5)

	snap := a.Snapshot()
	if snap.Min != -42.5 || snap.Max != -42.5 {
		t.Fatalf("first sample must seed both bounds, got min=%f max=%f", snap.Min, snap.Max)
	}
	if snap.Count != 1 {
		t.Fatalf("expected count 1, got %d", snap.Count)
	}
}

func TestAggregatorBoundsHoldAfterEveryRecord(t *testing.T) {
	var a Aggregator
	values := []float64{10.0, 12.0, 8.0, 20.0, 8.0, -1.0, 200.0}

	for _, v := range values {
		a.Record(v)
		snap := a.Snapshot()
		if snap.Min > v || snap.Max < v {
			t.Fatalf("after recording %f: min=%f max=%f", v, snap.Min, snap.Max)
		}
		if snap.Min > snap.Max {
			t.Fatalf("min %f exceeds max %f", snap.Min, snap.Max)
		}
	}
}

func TestAggregatorMeanOfIdenticalValues(t *testing.T) {
	var a Aggregator
	for i := 0; i < 7; i++ {
		a.Record(37.5)
	}

	if got := a.Snapshot().Mean; got != 37.5 {
		t.Fatalf("expected mean 37.5, got %f", got)
	}
}

func TestAggregatorEmptySnapshot(t *testing.T) {
	var a Aggregator
	snap := a.Snapshot()
	if snap.Count != 0 || snap.Mean != 0 || snap.Min != 0 || snap.Max != 0 {
		t.Fatalf("expected zero stats before first record, got %+v", snap)
	}
}
