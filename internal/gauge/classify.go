package gauge

// Band is the severity classification driving the gauge indicator color.
type Band int

const (
	Low Band = iota
	Mid
	High
)

func (b Band) String() string {
	switch b {
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return "low"
	}
}

// Classify maps a reading to its band within [min, max]. Callers guarantee
// max > min. Band edges are inclusive on the lower side: exactly 33% is Low,
// exactly 66% is Mid. Values outside the range extrapolate rather than clamp,
// so anything above max is still High.
func Classify(value, min, max float64) Band {
	percentage := (value - min) / (max - min) * 100.0

	switch {
	case percentage <= 33.0:
		return Low
	case percentage <= 66.0:
		return Mid
	default:
		return High
	}
}
