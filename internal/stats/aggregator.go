package stats

import "github.com/variousdemeanors/pi-mcp2515/internal/domain"

// Aggregator maintains running min/max/sum/count for one channel. The zero
// value is ready to use. Min and max are undefined until the first Record call;
// the seeded flag discriminates that state so a zero or negative first reading
// seeds both bounds correctly.
type Aggregator struct {
	min    float64
	max    float64
	sum    float64
	count  uint64
	seeded bool
}

// Record folds one observation into the aggregate. Unconditional: the caller
// owns any validation of the raw value.
func (a *Aggregator) Record(v float64) {
	if !a.seeded {
		a.min = v
		a.max = v
		a.seeded = true
	} else {
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	a.sum += v
	a.count++
}

// Snapshot returns the current aggregate. With no observations it returns the
// zero ChannelStats; Count==0 signals "no data".
func (a *Aggregator) Snapshot() domain.ChannelStats {
	if a.count == 0 {
		return domain.ChannelStats{}
	}
	return domain.ChannelStats{
		Min:   a.min,
		Max:   a.max,
		Mean:  a.sum / float64(a.count),
		Count: a.count,
	}
}
