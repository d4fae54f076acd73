// Package input turns raw keystrokes into register actions. The original
// client hung implicit state machines off global DOM listeners; here they
// are explicit decoder objects fed one KeyEvent at a time, with the caller's
// clock, so behavior is deterministic and testable.
package input

import "time"

// Key names for non-printable keys, matching what the UI layer forwards.
const (
	KeyEnter     = "Enter"
	KeyBackspace = "Backspace"
)

// KeyEvent is one forwarded keystroke. Key is either a single printable
// character or one of the named keys above. At is the UI-side timestamp of
// the press, used for scan idle detection.
type KeyEvent struct {
	Key  string    `json:"key"`
	Ctrl bool      `json:"ctrl"`
	At   time.Time `json:"at"`
}

// Printable reports whether the event carries a single visible character.
func (e KeyEvent) Printable() bool {
	if len(e.Key) != 1 {
		return false
	}
	c := e.Key[0]
	return c >= 0x21 && c <= 0x7e
}

// Digit returns the event's digit value, or -1.
func (e KeyEvent) Digit() int {
	if len(e.Key) == 1 && e.Key[0] >= '0' && e.Key[0] <= '9' {
		return int(e.Key[0] - '0')
	}
	return -1
}
