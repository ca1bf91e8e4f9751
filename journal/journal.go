// ═══════════════════════════════════════════════════════════════════════════════════════════════
// Execution Journal - SQLite-Backed Deferred Execution Event Log
// ───────────────────────────────────────────────────────────────────────────────────────────────
// Component: Host-side observability for deferred execution tables
//
// Description:
//   Records the producer and dispatch events of a deferred execution table
//   (defer/extend/cancel/fire/reclaim) into a SQLite database for offline
//   analysis, with a JSON snapshot path for in-flight inspection.
//
// Boundary:
//   The journal is a host-side collaborator. The table never calls into it;
//   the host records around its own table operations. The core stays pure
//   in-memory state with no persistence of its own.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package journal

import (
	"database/sql"
	"errors"

	"main/deferredexec"
	"main/utils"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
)

var (
	ErrClosed = errors.New("journal: closed")
)

// EventKind tags one journal row.
type EventKind uint8

const (
	EventDefer   EventKind = iota + 1 // successful Defer, delayMS = requested delay
	EventExtend                       // successful Extend, delayMS = new delay
	EventCancel                       // successful Cancel, delayMS = 0
	EventFire                         // callback dispatched, delayMS = returned re-arm delay
	EventReclaim                      // slot freed by a callback returning 0
	EventReject                       // Defer returned InvalidToken (full table or bad input)
)

// Event is one buffered journal entry. Field tags drive the JSON snapshot
// encoding; the SQLite schema mirrors them column for column.
type Event struct {
	Seq     uint64 `json:"seq"`
	Kind    uint8  `json:"kind"`
	Token   uint16 `json:"token"`
	AtMS    uint32 `json:"at_ms"`
	DelayMS uint32 `json:"delay_ms"`
}

// Journal buffers events in memory and flushes them to SQLite in single
// transactions. Single execution context, like everything it observes.
type Journal struct {
	db          *sql.DB
	session     int64
	fingerprint uint64
	seq         uint64
	buffer      []Event
}

// Fingerprint derives the 64-bit session identity from the host tag, table
// capacity, and the counter value at session start: the leading 8 bytes of
// the Keccak-family SHA3-256 digest of a stable text encoding.
func Fingerprint(hostTag string, capacity int, startCount uint32) uint64 {
	h := sha3.Sum256([]byte(hostTag + "|" + utils.Itoa(capacity) + "|" + utils.Utoa(uint64(startCount))))
	return utils.LoadBE64(h[:8])
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint INTEGER NOT NULL,
    host        TEXT    NOT NULL,
    capacity    INTEGER NOT NULL,
    started_ms  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
    session  INTEGER NOT NULL,
    seq      INTEGER NOT NULL,
    kind     INTEGER NOT NULL,
    token    INTEGER NOT NULL,
    at_ms    INTEGER NOT NULL,
    delay_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS events_by_session ON events(session, seq);
`

// Open creates or opens the journal database at path and starts a new
// session for a table of the given capacity. startCount is the millisecond
// counter value at session start and becomes part of the session identity.
func Open(path, hostTag string, capacity int, startCount uint32) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	fp := Fingerprint(hostTag, capacity, startCount)
	res, err := db.Exec(
		"INSERT INTO sessions (fingerprint, host, capacity, started_ms) VALUES (?, ?, ?, ?)",
		int64(fp), hostTag, capacity, int64(startCount),
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	session, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, session: session, fingerprint: fp}, nil
}

// SessionFingerprint returns the session's 64-bit identity.
func (j *Journal) SessionFingerprint() uint64 { return j.fingerprint }

// Buffered returns the number of events awaiting Flush.
func (j *Journal) Buffered() int { return len(j.buffer) }

// Record buffers one event. at is the millisecond counter value the host
// observed around the table operation. Buffering never fails; persistence
// errors surface from Flush.
func (j *Journal) Record(kind EventKind, tok deferredexec.Token, at, delayMS uint32) {
	j.seq++
	j.buffer = append(j.buffer, Event{
		Seq:     j.seq,
		Kind:    uint8(kind),
		Token:   uint16(tok),
		AtMS:    at,
		DelayMS: delayMS,
	})
}

// Flush writes all buffered events in one transaction and clears the buffer.
// The buffer is retained on failure so a later Flush can retry.
func (j *Journal) Flush() error {
	if j.db == nil {
		return ErrClosed
	}
	if len(j.buffer) == 0 {
		return nil
	}
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO events (session, seq, kind, token, at_ms, delay_ms) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, e := range j.buffer {
		if _, err := stmt.Exec(j.session, int64(e.Seq), int64(e.Kind), int64(e.Token), int64(e.AtMS), int64(e.DelayMS)); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return err
	}
	j.buffer = j.buffer[:0]
	return nil
}

// Snapshot encodes the buffered (not yet flushed) events as JSON.
func (j *Journal) Snapshot() ([]byte, error) {
	return sonnet.Marshal(j.buffer)
}

// LoadSnapshot replaces the buffer with events decoded from a Snapshot
// payload, and resumes the sequence counter past the highest loaded value.
func (j *Journal) LoadSnapshot(data []byte) error {
	var events []Event
	if err := sonnet.Unmarshal(data, &events); err != nil {
		return err
	}
	j.buffer = events
	for _, e := range events {
		if e.Seq > j.seq {
			j.seq = e.Seq
		}
	}
	return nil
}

// Close flushes any buffered events and closes the database. A flush error
// still closes the database and is returned.
func (j *Journal) Close() error {
	if j.db == nil {
		return ErrClosed
	}
	ferr := j.Flush()
	cerr := j.db.Close()
	j.db = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}
