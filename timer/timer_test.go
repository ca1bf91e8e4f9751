package timer

import "testing"

func TestDiff32(t *testing.T) {
	cases := []struct {
		a, b uint32
		want int32
	}{
		{100, 50, 50},
		{50, 100, -50},
		{7, 7, 0},
		{5, 0xFFFFFFF0, 21},         // forward across the wrap
		{0xFFFFFFF0, 5, -21},        // backward across the wrap
		{0x80000000, 0, -2147483648}, // antipodal: maximally ambiguous, reads as past
	}
	for _, c := range cases {
		if got := Diff32(c.a, c.b); got != c.want {
			t.Fatalf("Diff32(%#x, %#x) = %d; want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSetSource(t *testing.T) {
	defer ResetSource()
	n := uint32(41)
	SetSource(func() uint32 { n++; return n })
	if got := Read32(); got != 42 {
		t.Fatalf("Read32 = %d; want 42", got)
	}
	if got := Read32(); got != 43 {
		t.Fatalf("Read32 = %d; want 43", got)
	}
}

func TestDefaultSourceAdvancesMonotonically(t *testing.T) {
	ResetSource()
	a := Read32()
	b := Read32()
	if Diff32(b, a) < 0 {
		t.Fatalf("default source ran backwards: %d then %d", a, b)
	}
}
