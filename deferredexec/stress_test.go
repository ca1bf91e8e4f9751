package deferredexec

import (
	"math/rand"
	"testing"
	"unsafe"
)

// TestFullCapacityChurn repeatedly saturates the table, drains it through the
// dispatch path, and verifies the occupancy bookkeeping never drifts.
func TestFullCapacityChurn(t *testing.T) {
	useManualClock(t, 10_000)
	tbl := New(32)
	fired := 0
	for round := 0; round < 200; round++ {
		for tbl.Pending() < tbl.Cap() {
			deferOrFatal(t, tbl, uint32(1+rand.Intn(8)), counter(&fired), nil)
		}
		if tok := tbl.Defer(1, noop, nil); tok != InvalidToken {
			t.Fatalf("round %d: booking beyond capacity", round)
		}
		advance(8)
		tbl.Tick()
		expectPending(t, tbl, 0)
	}
	if fired != 200*32 {
		t.Fatalf("expected %d firings; got %d", 200*32, fired)
	}
}

// TestTokenUniquenessUnderChurn books and cancels randomly and checks that no
// two live slots ever share a token value.
func TestTokenUniquenessUnderChurn(t *testing.T) {
	useManualClock(t, 20_000)
	tbl := New(8)
	live := make(map[Token]bool)
	var order []Token
	for i := 0; i < 20_000; i++ {
		if len(order) == 0 || (rand.Intn(2) == 0 && len(order) < tbl.Cap()) {
			tok := tbl.Defer(1000, noop, nil)
			if tok == InvalidToken {
				t.Fatalf("iter %d: Defer failed with %d live", i, len(order))
			}
			if live[tok] {
				t.Fatalf("iter %d: token %d already live", i, tok)
			}
			live[tok] = true
			order = append(order, tok)
		} else {
			j := rand.Intn(len(order))
			tok := order[j]
			if !tbl.Cancel(tok) {
				t.Fatalf("iter %d: cancel of live token %d failed", i, tok)
			}
			delete(live, tok)
			order = append(order[:j], order[j+1:]...)
		}
		if tbl.Pending() != len(order) {
			t.Fatalf("iter %d: pending=%d, model=%d", i, tbl.Pending(), len(order))
		}
	}
}

// TestBandRotationWrap cycles one slot through its entire token band and
// checks containment, sentinel avoidance, and that a wrap actually occurs.
func TestBandRotationWrap(t *testing.T) {
	useManualClock(t, 30_000)
	tbl := New(32)
	band := uint32(tokenSpace / 32)
	seen := make(map[Token]int)
	wrapped := false
	var prev Token
	for i := 0; i < int(band)+64; i++ {
		tok := deferOrFatal(t, tbl, 10, noop, nil)
		if tok == InvalidToken {
			t.Fatal("sentinel issued")
		}
		if uint32(tok)/band != 0 {
			t.Fatalf("iter %d: token %d escaped band 0", i, tok)
		}
		if i > 0 && tok == prev {
			t.Fatalf("iter %d: token repeated back-to-back", i)
		}
		if n, ok := seen[tok]; ok && n == 1 {
			wrapped = true
		}
		seen[tok]++
		prev = tok
		if !tbl.Cancel(tok) {
			t.Fatalf("iter %d: cancel failed", i)
		}
	}
	if !wrapped {
		t.Fatal("band never wrapped")
	}
}

// TestMixedProducerTickStress interleaves every producer operation with
// ticking under a randomly advancing clock.
func TestMixedProducerTickStress(t *testing.T) {
	useManualClock(t, 40_000)
	tbl := New(16)
	var toks []Token
	fired := 0
	cb := func(uint32, unsafe.Pointer) uint32 {
		fired++
		if rand.Intn(4) == 0 {
			return uint32(1 + rand.Intn(20))
		}
		return 0
	}
	for i := 0; i < 50_000; i++ {
		switch rand.Intn(10) {
		case 0, 1, 2, 3:
			if tok := tbl.Defer(uint32(1+rand.Intn(30)), cb, nil); tok != InvalidToken {
				toks = append(toks, tok)
			}
		case 4:
			if len(toks) > 0 {
				tbl.Extend(toks[rand.Intn(len(toks))], uint32(1+rand.Intn(30)))
			}
		case 5:
			if len(toks) > 0 {
				j := rand.Intn(len(toks))
				tbl.Cancel(toks[j])
				toks = append(toks[:j], toks[j+1:]...)
			}
		default:
			advance(uint32(rand.Intn(3)))
			tbl.Tick()
		}
		if p := tbl.Pending(); p > tbl.Cap() {
			t.Fatalf("iter %d: pending %d exceeds capacity", i, p)
		}
	}
	// Drain: everything still pending must fire and eventually decline.
	for i := 0; i < 1000 && tbl.Pending() > 0; i++ {
		advance(50)
		tbl.Tick()
	}
	if tbl.Pending() != 0 {
		t.Fatalf("table not drained: %d pending after drain ticks", tbl.Pending())
	}
}
