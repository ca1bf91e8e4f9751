// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Host harness tunables
//
// Purpose:
//   - Defines the demo host loop's table capacities, pacing, and journal path.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Table Capacities ─────────────────────────────

const (
	// DefaultInternalExecutors sizes the firmware-internal table. Internal
	// timers get their own pool so user registrations can never starve them.
	DefaultInternalExecutors = 8

	// DefaultUserExecutors sizes the user-facing table the harness drives.
	DefaultUserExecutors = 16
)

// ───────────────────────────── Loop Pacing ──────────────────────────────────

const (
	// LoopSleep paces the host loop while the hot flag is set. The table
	// throttles itself to one scan per millisecond boundary, so sub-ms pacing
	// only burns CPU.
	LoopSleep = 1 * time.Millisecond

	// IdleSleep paces the host loop once the activity cooldown has elapsed.
	// Worst added dispatch latency while idle is one IdleSleep period.
	IdleSleep = 20 * time.Millisecond
)

// ───────────────────────────── Journal ──────────────────────────────────────

const (
	// JournalPath is the SQLite database the demo harness journals into.
	JournalPath = "deferred_exec_journal.db"

	// JournalFlushEvery bounds how many buffered events accumulate before the
	// harness forces a flush transaction.
	JournalFlushEvery = 256
)
