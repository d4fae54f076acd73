package input

import (
	"strings"
	"time"
)

// DefaultScanIdle is how long a partial buffer may sit without an Enter
// before it is treated as an abandoned scan and dropped.
const DefaultScanIdle = 500 * time.Millisecond

// DefaultMinScanLength rejects Enter presses that follow fewer accumulated
// characters than a real barcode would produce.
const DefaultMinScanLength = 2

// ScanDecoder reconstructs barcode-scanner input from a keystroke stream
// without a dedicated input field. Scanners type fast and finish with Enter;
// humans type slow, so anything idle past the deadline is discarded.
type ScanDecoder struct {
	minLen   int
	idle     time.Duration
	reserved string

	buf    strings.Builder
	lastAt time.Time
}

// NewScanDecoder builds a decoder. reservedPrefix names a barcode namespace
// (customer-identification cards) that must never resolve as a product scan;
// empty disables the check. Zero minLen / idle fall back to the defaults.
func NewScanDecoder(minLen int, idle time.Duration, reservedPrefix string) *ScanDecoder {
	if minLen <= 0 {
		minLen = DefaultMinScanLength
	}
	if idle <= 0 {
		idle = DefaultScanIdle
	}
	return &ScanDecoder{minLen: minLen, idle: idle, reserved: reservedPrefix}
}

// Feed consumes one keystroke. It returns a completed barcode and true when
// an Enter press finalizes a valid buffer; every other call returns "", false.
func (d *ScanDecoder) Feed(ev KeyEvent) (string, bool) {
	// A buffer idle past the deadline is a stale partial scan. The window
	// renews on every keystroke, so slow hand-typed entry still resolves.
	if d.buf.Len() > 0 && ev.At.Sub(d.lastAt) > d.idle {
		d.reset()
	}

	switch {
	case ev.Key == KeyEnter:
		code := d.buf.String()
		d.reset()
		if len(code) < d.minLen {
			return "", false
		}
		if d.reserved != "" && strings.HasPrefix(code, d.reserved) {
			return "", false
		}
		return code, true

	case ev.Printable() && !ev.Ctrl:
		d.buf.WriteString(ev.Key)
		d.lastAt = ev.At
		return "", false

	default:
		return "", false
	}
}

func (d *ScanDecoder) reset() {
	d.buf.Reset()
}
