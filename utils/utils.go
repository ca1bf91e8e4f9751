package utils

import (
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used for human-readable print paths.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// S2b views a string's bytes **without** allocation.
// ⚠️ The returned slice must never be written to.
//
//go:nosplit
//go:inline
func S2b(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

///////////////////////////////////////////////////////////////////////////////
// Fast Loaders — Unaligned 64-Bit Reads
///////////////////////////////////////////////////////////////////////////////

// LoadBE64 performs a manual big-endian 64-bit read, avoiding dependency on binary.BigEndian.
//
//go:nosplit
//go:inline
func LoadBE64(b []byte) uint64 {
	_ = b[7] // bounds check hint
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 |
		uint64(b[3])<<32 | uint64(b[4])<<24 | uint64(b[5])<<16 |
		uint64(b[6])<<8 | uint64(b[7])
}

///////////////////////////////////////////////////////////////////////////////
// Decimal Formatters — Fixed Stack Buffers, No strconv
///////////////////////////////////////////////////////////////////////////////

// Utoa renders a uint64 as decimal ASCII using a fixed stack buffer.
// Used for cold-path message assembly without strconv/fmt.
//
//go:nosplit
func Utoa(u uint64) string {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
		if u == 0 {
			break
		}
	}
	return string(buf[i:])
}

// Itoa renders an int as decimal ASCII, negative values included.
//
//go:nosplit
func Itoa(v int) string {
	if v < 0 {
		return "-" + Utoa(uint64(-v))
	}
	return Utoa(uint64(v))
}

///////////////////////////////////////////////////////////////////////////////
// Stderr Writer — Direct fd 2, Bypasses os.Stderr Locking
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to file descriptor 2. No buffering, no
// mutex, no interface boxing — the caller supplies the final string,
// including any trailing newline.
//
//go:nosplit
func PrintWarning(msg string) {
	b := S2b(msg)
	for len(b) > 0 {
		n, err := syscall.Write(2, b)
		if n <= 0 || err != nil {
			return
		}
		b = b[n:]
	}
}
