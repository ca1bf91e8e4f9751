package utils

import "testing"

func TestB2sRoundTrip(t *testing.T) {
	b := []byte("deferred")
	if got := B2s(b); got != "deferred" {
		t.Fatalf("B2s = %q", got)
	}
	if B2s(nil) != "" {
		t.Fatal("B2s(nil) should be empty")
	}
}

func TestS2b(t *testing.T) {
	b := S2b("tick")
	if string(b) != "tick" {
		t.Fatalf("S2b = %q", b)
	}
	if S2b("") != nil {
		t.Fatal("S2b(\"\") should be nil")
	}
}

func TestUtoa(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{65535, "65535"},
		{18446744073709551615, "18446744073709551615"},
	}
	for _, c := range cases {
		if got := Utoa(c.in); got != c.want {
			t.Fatalf("Utoa(%d) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestItoa(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{32, "32"},
		{-1, "-1"},
		{-65536, "-65536"},
	}
	for _, c := range cases {
		if got := Itoa(c.in); got != c.want {
			t.Fatalf("Itoa(%d) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestLoadBE64(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if got := LoadBE64(b); got != 0x0102030405060708 {
		t.Fatalf("LoadBE64 = %#x", got)
	}
}

func TestPrintWarningDoesNotPanic(t *testing.T) {
	PrintWarning("utils: test warning\n")
	PrintWarning("")
}
