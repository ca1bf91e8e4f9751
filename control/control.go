// control.go — Global control flags for the cooperative host loop
// ============================================================================
// HOST LOOP COORDINATION
// ============================================================================
//
// Control package provides the lightweight global signaling used by the demo
// host loop: a stop flag for graceful shutdown and a hot flag with automatic
// cooldown so the loop can drop from its 1 ms tick cadence to an idle cadence
// when no executor has dispatched recently.
//
// Threading model:
//   • The loop and the tick dispatch run on one cooperative context.
//   • The signal handler goroutine only ever writes the stop flag, so that
//     one flag crosses goroutines: Shutdown stores it atomically and
//     Stopping loads it atomically. The hot flag never leaves the loop's
//     context and stays a plain load.

package control

import (
	"sync/atomic"
	"time"
)

var (
	hot  uint32 // 1 = an executor dispatched recently, keep the fast cadence
	stop uint32 // 1 = begin graceful shutdown

	lastHot    int64                    // nanosecond timestamp of last dispatch
	cooldownNs = int64(1 * time.Second) // idle period before dropping to slow cadence
)

// SignalActivity marks the loop hot and records the dispatch time. Called by
// the host after a tick pass that fired at least one executor.
//
//go:nosplit
//go:inline
func SignalActivity() {
	hot = 1
	lastHot = time.Now().UnixNano()
}

// PollCooldown clears the hot flag once the cooldown has elapsed with no new
// activity. Call once per loop iteration.
//
//go:nosplit
//go:inline
func PollCooldown() {
	if hot == 1 && time.Now().UnixNano()-lastHot > cooldownNs {
		hot = 0
	}
}

// Shutdown sets the stop flag. Safe to call from the signal handler
// goroutine; the host loop observes it via Stopping on its next iteration,
// drains its tables, and exits.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopping reports whether shutdown has been signalled. This is the one
// flag read that crosses goroutines, so it pairs an atomic load with
// Shutdown's atomic store.
//
//go:nosplit
//go:inline
func Stopping() bool {
	return atomic.LoadUint32(&stop) == 1
}

// Flags returns pointers to the stop and hot flags for zero-overhead polling
// inside the host loop. The pointers stay valid for the process lifetime.
// Cross-goroutine readers of the stop flag must go through Stopping instead.
//
//go:nosplit
//go:inline
func Flags() (*uint32, *uint32) {
	return &stop, &hot
}

// Reset restores both flags to their boot state. Test hook.
func Reset() {
	hot, lastHot = 0, 0
	atomic.StoreUint32(&stop, 0)
}
