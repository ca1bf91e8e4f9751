// ════════════════════════════════════════════════════════════════════════════════════════════════
// Deferred Execution Scheduler - Demo Host Loop
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Main Entry Point & Host Loop Orchestration
//
// Description:
//   Cooperative single-loop host driving two independent deferred execution
//   tables — a firmware-internal pool and a user-facing pool — with every
//   table operation journaled to SQLite.
//
// Architecture:
//   - Phase 0: Bootstrap — journal session, signal handling, table creation
//   - Phase 1: Registration — demo executors scheduled on both pools
//   - Phase 2: Host loop — Tick both tables each iteration until shutdown
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"
	"unsafe"

	"main/constants"
	"main/control"
	"main/debug"
	"main/deferredexec"
	"main/journal"
	"main/timer"
	"main/utils"
)

// host bundles the two table pools with the shared journal. Everything runs
// on the main goroutine; the signal handler only flips the stop flag.
type host struct {
	internal *deferredexec.Table // firmware-internal pool, never starved by user load
	user     *deferredexec.Table // user-facing pool
	jrn      *journal.Journal
	fired    int // dispatch count across both pools
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// JOURNALED TABLE OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (h *host) schedule(t *deferredexec.Table, delayMS uint32, cb deferredexec.Callback, arg unsafe.Pointer) deferredexec.Token {
	tok := t.Defer(delayMS, cb, arg)
	if tok == deferredexec.InvalidToken {
		h.jrn.Record(journal.EventReject, tok, timer.Read32(), delayMS)
	} else {
		h.jrn.Record(journal.EventDefer, tok, timer.Read32(), delayMS)
	}
	return tok
}

func (h *host) extend(t *deferredexec.Table, tok deferredexec.Token, delayMS uint32) bool {
	ok := t.Extend(tok, delayMS)
	if ok {
		h.jrn.Record(journal.EventExtend, tok, timer.Read32(), delayMS)
	}
	return ok
}

func (h *host) cancel(t *deferredexec.Table, tok deferredexec.Token) bool {
	ok := t.Cancel(tok)
	if ok {
		h.jrn.Record(journal.EventCancel, tok, timer.Read32(), 0)
	}
	return ok
}

// dispatched is called from inside demo callbacks: journals the firing,
// bumps the dispatch count, and keeps the loop on its hot cadence.
func (h *host) dispatched(tok deferredexec.Token, triggerTime, rearmMS uint32) {
	h.fired++
	h.jrn.Record(journal.EventFire, tok, triggerTime, rearmMS)
	if rearmMS == 0 {
		h.jrn.Record(journal.EventReclaim, tok, triggerTime, 0)
	}
	control.SignalActivity()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func main() {
	// PHASE 0: Bootstrap
	debug.DropMessage("INIT", "Opening execution journal")
	jrn, err := journal.Open(constants.JournalPath, "demo-host", constants.DefaultUserExecutors, timer.Read32())
	if err != nil {
		debug.DropError("JOURNAL", err)
		os.Exit(1)
	}
	debug.DropMessage("SESSION", utils.Utoa(jrn.SessionFingerprint()))

	h := &host{
		internal: deferredexec.New(constants.DefaultInternalExecutors),
		user:     deferredexec.New(constants.DefaultUserExecutors),
		jrn:      jrn,
	}
	debug.DropMessage("TABLES",
		"internal cap "+utils.Itoa(h.internal.Cap())+", user cap "+utils.Itoa(h.user.Cap()))

	setupSignalHandling()

	// PHASE 1: Demo executor registration
	registerDemoExecutors(h)
	debug.DropMessage("READY", utils.Itoa(h.internal.Pending()+h.user.Pending())+" executors pending")

	// PHASE 2: Host loop — one Tick per table per iteration, hot/idle pacing
	_, hotFlag := control.Flags()
	for !control.Stopping() {
		h.internal.Tick()
		h.user.Tick()
		control.PollCooldown()

		if h.jrn.Buffered() >= constants.JournalFlushEvery {
			if err := h.jrn.Flush(); err != nil {
				debug.DropError("FLUSH", err)
			}
		}
		if *hotFlag == 1 {
			time.Sleep(constants.LoopSleep)
		} else {
			time.Sleep(constants.IdleSleep)
		}
	}

	// Shutdown: persist the journal and summarize
	if err := h.jrn.Close(); err != nil {
		debug.DropError("CLOSE", err)
	}
	debug.DropMessage("DONE",
		utils.Itoa(h.fired)+" dispatches, "+
			utils.Itoa(h.internal.Pending()+h.user.Pending())+" still pending")
}

// registerDemoExecutors populates both pools:
//   - internal: a liveness beacon every 250 ms and a one-shot session
//     deadline that drives shutdown, showing deferred execution owning the
//     process lifecycle.
//   - user: a one-shot banner, a finite heartbeat, and a booking that gets
//     extended then cancelled to exercise the full producer surface.
func registerDemoExecutors(h *host) {
	var beats uint32

	// Internal pool: liveness beacon, re-arming forever.
	var beaconTok deferredexec.Token
	beaconTok = h.schedule(h.internal, 250, func(triggerTime uint32, arg unsafe.Pointer) uint32 {
		*(*uint32)(arg)++
		h.dispatched(beaconTok, triggerTime, 250)
		return 250
	}, unsafe.Pointer(&beats))

	// Internal pool: session deadline — one shot, ends the demo.
	var deadlineTok deferredexec.Token
	deadlineTok = h.schedule(h.internal, 10_000, func(triggerTime uint32, _ unsafe.Pointer) uint32 {
		debug.DropMessage("DEADLINE", "Session complete after "+utils.Utoa(uint64(beats))+" beats")
		h.dispatched(deadlineTok, triggerTime, 0)
		control.Shutdown()
		return 0
	}, nil)

	// User pool: one-shot banner.
	var bannerTok deferredexec.Token
	bannerTok = h.schedule(h.user, 100, func(triggerTime uint32, _ unsafe.Pointer) uint32 {
		debug.DropMessage("BANNER", "Deferred execution online")
		h.dispatched(bannerTok, triggerTime, 0)
		return 0
	}, nil)

	// User pool: heartbeat, five firings then done.
	var pulses uint32
	var heartbeatTok deferredexec.Token
	heartbeatTok = h.schedule(h.user, 500, func(triggerTime uint32, arg unsafe.Pointer) uint32 {
		n := (*uint32)(arg)
		*n++
		debug.DropMessage("PULSE", utils.Utoa(uint64(*n)))
		var rearm uint32
		if *n < 5 {
			rearm = 500
		}
		h.dispatched(heartbeatTok, triggerTime, rearm)
		return rearm
	}, unsafe.Pointer(&pulses))

	// User pool: a booking that never fires — extended once, then cancelled.
	doomedTok := h.schedule(h.user, 2_000, func(triggerTime uint32, _ unsafe.Pointer) uint32 {
		debug.DropMessage("DOOMED", "This executor should never run")
		return 0
	}, nil)
	if !h.extend(h.user, doomedTok, 30_000) {
		debug.DropMessage("EXTEND", "Extend of live token failed")
	}
	if !h.cancel(h.user, doomedTok) {
		debug.DropMessage("CANCEL", "Cancel of live token failed")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SYSTEM LIFECYCLE MANAGEMENT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// setupSignalHandling configures graceful shutdown: the handler only flips
// the stop flag, the main loop owns all cleanup.
func setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "Received interrupt, shutting down...")
		control.Shutdown()
	}()
}
