// timer.go — Millisecond clock collaborator for deferred execution
// ============================================================================
// WRAPAROUND-SAFE MILLISECOND COUNTER
// ============================================================================
//
// Timer package supplies the monotonic 32-bit millisecond counter that the
// deferred execution tables compare against. The counter wraps at 2^32 ms
// (~49.7 days); all consumers must compare timestamps through Diff32 rather
// than raw ordering operators, treating the counter as a ring.
//
// The counter source is swappable: hosts bind their hardware tick, tests bind
// a manual counter. The default source derives from the process monotonic
// clock. Like every caller of this package, the source is read from a single
// cooperative execution context — there is no locking here.

package timer

import "time"

// startup anchors the default source so the counter begins near zero.
var startup = time.Now()

// source is the active counter. Replaced wholesale via SetSource; never
// called concurrently with a replacement.
var source = defaultSource

func defaultSource() uint32 {
	return uint32(time.Since(startup) / time.Millisecond)
}

// Read32 returns the current millisecond counter value. Wraps at 2^32.
//
//go:inline
func Read32() uint32 {
	return source()
}

// Diff32 returns the wraparound-safe signed difference a−b. A positive
// result means a is later than b on the ring; never compare raw counter
// values with < or >.
//
//go:nosplit
//go:inline
func Diff32(a, b uint32) int32 {
	return int32(a - b)
}

// SetSource replaces the counter source. Hosts call this once at bootstrap
// to bind a hardware tick; tests bind a manual counter.
func SetSource(f func() uint32) {
	source = f
}

// ResetSource restores the default process-clock source.
func ResetSource() {
	source = defaultSource
}
