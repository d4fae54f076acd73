package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// feedString types s one character at a time, 10ms apart.
func feedString(d *ScanDecoder, s string, start time.Time) time.Time {
	at := start
	for _, r := range s {
		d.Feed(KeyEvent{Key: string(r), At: at})
		at = at.Add(10 * time.Millisecond)
	}
	return at
}

func TestScanDecoderResolvesOnEnter(t *testing.T) {
	d := NewScanDecoder(2, DefaultScanIdle, "CL")
	at := feedString(d, "6221031954", t0)
	code, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.True(t, ok)
	assert.Equal(t, "6221031954", code)
}

func TestScanDecoderMinLength(t *testing.T) {
	d := NewScanDecoder(3, DefaultScanIdle, "")
	at := feedString(d, "12", t0)
	_, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.False(t, ok)
}

func TestScanDecoderReservedPrefixNeverResolves(t *testing.T) {
	d := NewScanDecoder(2, DefaultScanIdle, "CL")
	at := feedString(d, "CL94015", t0)
	_, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.False(t, ok, "client-card namespace must not resolve as a product scan")

	// the buffer is consumed, not left to pollute the next scan
	at = feedString(d, "777", at)
	code, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.True(t, ok)
	assert.Equal(t, "777", code)
}

func TestScanDecoderIdleResetDropsStalePartial(t *testing.T) {
	d := NewScanDecoder(2, 500*time.Millisecond, "")
	feedString(d, "123", t0)

	// next activity arrives after the idle deadline: stale prefix dropped
	at := t0.Add(2 * time.Second)
	at = feedString(d, "456", at)
	code, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.True(t, ok)
	assert.Equal(t, "456", code)
}

func TestScanDecoderEnterAfterIdleYieldsNothing(t *testing.T) {
	d := NewScanDecoder(2, 500*time.Millisecond, "")
	feedString(d, "123", t0)
	_, ok := d.Feed(KeyEvent{Key: KeyEnter, At: t0.Add(time.Minute)})
	assert.False(t, ok)
}

func TestScanDecoderIdleWindowRenewsPerKeystroke(t *testing.T) {
	// hand-typed entry: each key lands inside the window even though the
	// whole code takes far longer than one idle period
	d := NewScanDecoder(2, 500*time.Millisecond, "")
	at := t0
	for _, r := range "6221031954" {
		d.Feed(KeyEvent{Key: string(r), At: at})
		at = at.Add(400 * time.Millisecond)
	}
	code, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.True(t, ok)
	assert.Equal(t, "6221031954", code)
}

func TestScanDecoderIgnoresCtrlChordsAndNamedKeys(t *testing.T) {
	d := NewScanDecoder(2, DefaultScanIdle, "")
	d.Feed(KeyEvent{Key: "5", Ctrl: true, At: t0})
	d.Feed(KeyEvent{Key: KeyBackspace, At: t0})
	at := feedString(d, "42", t0.Add(20*time.Millisecond))
	code, ok := d.Feed(KeyEvent{Key: KeyEnter, At: at})
	assert.True(t, ok)
	assert.Equal(t, "42", code)
}

func TestAppendDigitBuildsNumberLeftToRight(t *testing.T) {
	q := 0
	for _, d := range []int{1, 2, 3} {
		q = AppendDigit(q, d)
	}
	assert.Equal(t, 123, q)
	assert.Equal(t, 12, TrimDigit(q))
}

func TestTrimDigitOnSingleDigitResetsToZero(t *testing.T) {
	assert.Equal(t, 0, TrimDigit(7))
}

func TestTrimDigitOnNegativeResetsToZero(t *testing.T) {
	assert.Equal(t, 0, TrimDigit(-5))
}

func TestAppendDigitRejectsOutOfRange(t *testing.T) {
	assert.Equal(t, 42, AppendDigit(42, 12))
}
