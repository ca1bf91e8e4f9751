// Package deferredexec is a fixed-capacity, non-blocking deferred-execution
// scheduler for cooperative single-loop hosts. A bounded slot table, a compact
// occupancy bitmap, and a banded token-rotation scheme give O(1) handle
// recovery with zero heap use after construction: index = token / band, no
// search, no map, no allocation.
//
// One Tick driver per table. Producers (Defer / Extend / Cancel) may run from
// any point in the same execution context. Multiple independent tables may
// coexist, each with its own capacity pool, so user registrations never
// starve firmware-internal timers.
//
// Tokens are short-lived handles: a slot's numeric token value recurs after
// band−1 reassignments of that slot, so callers must extend or cancel
// promptly rather than hoard tokens across long slot churn.
package deferredexec

import (
	"math/bits"
	"unsafe"

	"main/timer"
)

const (
	// maxExecutors is the backing-array bound; table capacity is coerced to a
	// power-of-two tier no greater than this.
	maxExecutors = 32

	// tokenSpace is the full token value range. Each slot owns a contiguous
	// band of tokenSpace/capacity values; value 0 is reserved as the invalid
	// sentinel and is skipped by the rotation.
	tokenSpace = 1 << 16

	// DefaultExecutors sizes the package-level table backing the top-level
	// Defer/Extend/Cancel/Tick calls.
	DefaultExecutors = 4
)

// Token identifies one scheduled execution. The zero value is never issued.
type Token uint16

// InvalidToken is returned by Defer on rejection and matches no live slot.
const InvalidToken Token = 0

// Callback runs when its slot comes due. triggerTime is the millisecond
// counter value the slot was armed for (not the dispatch time). Return 0 to
// stop, or N>0 to run again N ms after triggerTime — cadence anchors to the
// intended schedule, not to dispatch jitter.
//
// The table takes no ownership of arg; whatever it references must outlive
// the scheduled (and any re-armed) invocation.
type Callback func(triggerTime uint32, arg unsafe.Pointer) uint32

// executor is one slot. token persists across occupancy cycles so the band
// rotation stays monotonic; triggerTime is meaningful only while occupied.
type executor struct {
	token       Token
	triggerTime uint32
	callback    Callback
	arg         unsafe.Pointer
}

// Table is a caller-owned deferred-executor pool. Construct with New; the
// zero value has no capacity tier and is unusable.
//
// All methods run on one cooperative execution context. A port to a
// preemptive host must wrap every call in a critical section — the bitmap
// and slot pair are not updated atomically as a unit.
type Table struct {
	slots     [maxExecutors]executor
	occupied  uint32 // bit i set = slot i live
	lastCheck uint32 // last counter value Tick processed
	capacity  uint32 // power-of-two tier, 2..32
	band      uint32 // tokenSpace / capacity
}

// New returns a ready table. capacity is coerced to the nearest supported
// power-of-two tier in {2, 4, 8, 16, 32}: non-power-of-two and undersized
// values round up, values above 32 clamp down.
func New(capacity int) *Table {
	tier := uint32(2)
	for int(tier) < capacity && tier < maxExecutors {
		tier <<= 1
	}
	t := new(Table)
	t.capacity = tier
	t.band = tokenSpace / tier
	return t
}

// Cap returns the coerced slot capacity.
func (t *Table) Cap() int { return int(t.capacity) }

// Pending returns the number of live slots.
func (t *Table) Pending() int { return bits.OnesCount32(t.occupied) }

// nextToken advances slot i's token one step inside its band
// [i*band, i*band+band−2], wrapping to the band start and skipping the
// invalid sentinel. An out-of-band stored value (the zero value of a virgin
// slot) clamps to the band start, so the first booking on any slot index is
// already index-recoverable.
//
//go:nosplit
//go:inline
func (t *Table) nextToken(i uint32) Token {
	start := i * t.band
	next := uint32(t.slots[i].token) + 1
	if next < start || next >= start+t.band-1 {
		next = start
	}
	if Token(next) == InvalidToken {
		next++
	}
	return Token(next)
}

// Defer schedules cb to run once after delayMS milliseconds. Returns
// InvalidToken if delayMS is zero (a zero delay means "do not schedule",
// not "run now"), if cb is nil, or if every slot is occupied. Lowest free
// slot index wins; the scan is deterministic, not fairness-optimized.
//
//go:nosplit
func (t *Table) Defer(delayMS uint32, cb Callback, arg unsafe.Pointer) Token {
	if delayMS == 0 || cb == nil {
		return InvalidToken
	}
	free := t.occupied
	for i := uint32(0); i < t.capacity; i++ {
		if free&1 == 0 {
			t.occupied |= 1 << i
			s := &t.slots[i]
			s.token = t.nextToken(i)
			s.triggerTime = timer.Read32() + delayMS
			s.callback = cb
			s.arg = arg
			return s.token
		}
		free >>= 1
	}
	return InvalidToken
}

// Extend re-arms a pending execution for delayMS milliseconds from now,
// keeping its callback and argument. Returns false on a zero delay, the
// invalid sentinel, or a token that no longer names a live slot — stale and
// foreign tokens are indistinguishable by design.
//
//go:nosplit
func (t *Table) Extend(tok Token, delayMS uint32) bool {
	if delayMS == 0 || tok == InvalidToken || t.band == 0 {
		return false
	}
	i := uint32(tok) / t.band
	s := &t.slots[i]
	if t.occupied&(1<<i) == 0 || s.token != tok {
		return false
	}
	s.triggerTime = timer.Read32() + delayMS
	return true
}

// Cancel removes a pending execution. The slot is freed immediately — the
// next Defer may reuse it without an intervening Tick — while the token
// field keeps its last value so the band rotation stays monotonic. A second
// Cancel, or an Extend of a cancelled token, returns false.
//
//go:nosplit
func (t *Table) Cancel(tok Token) bool {
	if tok == InvalidToken || t.band == 0 {
		return false
	}
	i := uint32(tok) / t.band
	s := &t.slots[i]
	if t.occupied&(1<<i) == 0 || s.token != tok {
		return false
	}
	t.occupied &^= 1 << i
	s.callback = nil
	s.arg = nil
	return true
}

// Tick scans the table once per millisecond boundary and dispatches due
// slots in ascending index order. Call it every host-loop iteration; it
// never blocks and is a no-op while the counter has not advanced.
//
// A due callback returning N>0 re-arms the slot N ms after its previous
// trigger time; returning 0 frees the slot. Occupied slots with an invalid
// token or nil callback are malformed state and are skipped, not fatal.
func (t *Table) Tick() {
	now := timer.Read32()
	if timer.Diff32(now, t.lastCheck) <= 0 {
		return
	}
	t.lastCheck = now

	occ := t.occupied
	for i := uint32(0); occ != 0; i++ {
		if occ&1 != 0 {
			s := &t.slots[i]
			if s.token != InvalidToken && s.callback != nil && timer.Diff32(s.triggerTime, now) <= 0 {
				tok := s.token
				delayMS := s.callback(s.triggerTime, s.arg)
				// The callback may have cancelled its own booking, or
				// cancelled and re-booked the slot to a new owner. Its
				// return value only governs the slot while the slot still
				// holds the booking that was dispatched.
				if t.occupied&(1<<i) != 0 && s.token == tok {
					if delayMS > 0 {
						// Anchor the next firing to the prior trigger time,
						// not to now: a slow neighbour in the same pass must
						// not permanently skew this slot's cadence.
						s.triggerTime += delayMS
					} else {
						t.occupied &^= 1 << i
						s.callback = nil
						s.arg = nil
					}
				}
			}
		}
		occ >>= 1
	}
}

// ---------------------------------------------------------------------------
// Package-default table: the user-facing pool backing the top-level calls.
// Firmware-internal code should own its own Table so user registrations can
// never exhaust its slots.
// ---------------------------------------------------------------------------

var basic = New(DefaultExecutors)

// Defer schedules on the package-default table.
func Defer(delayMS uint32, cb Callback, arg unsafe.Pointer) Token {
	return basic.Defer(delayMS, cb, arg)
}

// Extend re-arms a token issued by the package-default table.
func Extend(tok Token, delayMS uint32) bool {
	return basic.Extend(tok, delayMS)
}

// Cancel removes a token issued by the package-default table.
func Cancel(tok Token) bool {
	return basic.Cancel(tok)
}

// Tick drives the package-default table; the host loop must call it once
// per iteration alongside any caller-owned tables.
func Tick() {
	basic.Tick()
}
