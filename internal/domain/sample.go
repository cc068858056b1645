package domain

import "time"

// Sample is one decoded radio record from the transmitter node.
type Sample struct {
	ChannelA float64 `json:"channel_a"`
	ChannelB float64 `json:"channel_b"`
	// SentMillis is the transmitter-side millisecond counter at send time.
	SentMillis uint32 `json:"sent_ms"`
	Seq        uint32 `json:"seq"`
}

// ChannelStats is the running aggregate for one pressure channel.
// Min/Max/Mean are meaningful only when Count > 0.
type ChannelStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count uint64  `json:"count"`
}

// ConnState classifies link health from elapsed time since last receipt.
type ConnState int

const (
	// Waiting means no packet has ever been received.
	Waiting ConnState = iota
	// Connected means a packet arrived within the timeout window.
	Connected
	// TimedOut means packets arrived previously but none recently.
	TimedOut
)

func (s ConnState) String() string {
	switch s {
	case Connected:
		return "connected"
	case TimedOut:
		return "timed_out"
	default:
		return "waiting"
	}
}

// LinkState tracks receipt bookkeeping across the process lifetime.
// LastReceipt stays zero until the first packet is accepted.
type LinkState struct {
	LastReceipt time.Time `json:"last_receipt"`
	HighestSeq  uint32    `json:"highest_seq"`
	Received    uint64    `json:"received"`
	Lost        uint64    `json:"lost"`
}

// Snapshot is an atomically-copied view of coordinator state, safe for the
// presentation layer to read without synchronization.
type Snapshot struct {
	ChannelA float64      `json:"channel_a"`
	ChannelB float64      `json:"channel_b"`
	StatsA   ChannelStats `json:"stats_a"`
	StatsB   ChannelStats `json:"stats_b"`
	Link     LinkState    `json:"link"`
	State    ConnState    `json:"state"`
}
