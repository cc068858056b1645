package link

// SeqTracker consumes the transmitter-assigned packet sequence and reports how
// many packets were skipped since the previous one. Not safe for concurrent
// use; the coordinator serializes access.
type SeqTracker struct {
	lastSeen uint32
	seen     bool
}

// Backward jumps larger than half the uint32 range are read as counter
// wraparound or a transmitter restart rather than reordering; the tracker
// resets to the new value with zero losses. Smaller regressions are stale or
// duplicate packets and never advance the tracker.
const wrapThreshold = 1 << 31

// Observe records one sequence number and returns the count of packets lost
// since the previous observation. Duplicates and out-of-order arrivals yield
// zero and leave the tracker unchanged.
func (t *SeqTracker) Observe(seq uint32) uint64 {
	if !t.seen {
		t.seen = true
		t.lastSeen = seq
		return 0
	}

	switch {
	case seq == t.lastSeen+1:
		t.lastSeen = seq
		return 0
	case seq > t.lastSeen:
		lost := uint64(seq - t.lastSeen - 1)
		t.lastSeen = seq
		return lost
	case t.lastSeen-seq > wrapThreshold:
		t.lastSeen = seq
		return 0
	default:
		return 0
	}
}

// Last returns the highest sequence number accepted so far and whether any
// packet has been observed.
func (t *SeqTracker) Last() (uint32, bool) {
	return t.lastSeen, t.seen
}
