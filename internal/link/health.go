package link

import (
	"time"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
)

// DefaultTimeout matches the transmitter's one-second send cadence with one
// missed window of slack.
const DefaultTimeout = 2000 * time.Millisecond

// State derives connection health from the last receipt time and the current
// clock reading. It is evaluated on every query rather than stored, so it can
// never drift out of sync with the underlying timestamp. A zero lastReceipt
// means no packet was ever received.
func State(lastReceipt, now time.Time, timeout time.Duration) domain.ConnState {
	if lastReceipt.IsZero() {
		return domain.Waiting
	}
	if now.Sub(lastReceipt) <= timeout {
		return domain.Connected
	}
	return domain.TimedOut
}
