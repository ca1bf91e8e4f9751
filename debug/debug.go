// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path logging helper (zero-alloc)
//
// Purpose:
//   - Logs infrequent error paths without introducing heap pressure.
//   - Used only in cold paths: bootstrap, journal failures, shutdown.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - No alloc, no interfaces; plain concatenation onto fd 2.
//
// ⚠️ Never invoke from Tick dispatch — cold paths only.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "main/utils"

// DropError logs an error with a prefix tag. A nil err prints just the tag,
// which is how tagged state-change traces are emitted.
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
}

// DropMessage logs a tagged diagnostic message. Used for bootstrap progress,
// table registration traces, and shutdown summaries.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
