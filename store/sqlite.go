package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/wire"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	originator TEXT NOT NULL,
	seq_num    INTEGER NOT NULL,
	raw        BLOB NOT NULL,
	PRIMARY KEY (session_id, originator, seq_num)
);
`

// DurableStore is a SQLite-backed Store, for sessions that need to resume
// resend handling across a process restart. Messages are archived in their
// encoded wire form and re-decoded on Get.
type DurableStore struct {
	db *sql.DB

	setStmt    *sql.Stmt
	getStmt    *sql.Stmt
	deleteStmt *sql.Stmt
	filterStmt *sql.Stmt
}

// NewDurable opens (creating if necessary) a SQLite database at path, in
// WAL mode for concurrent-safe reads while the pipeline is writing.
func NewDurable(path string) (*DurableStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &DurableStore{db: db}, nil
}

// Initialize creates the schema and prepares the statements this store
// reuses for every call, mirroring the teacher's market-data store's
// prepared-statement discipline.
func (s *DurableStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}

	var err error
	if s.setStmt, err = s.db.PrepareContext(ctx,
		`INSERT OR REPLACE INTO messages (session_id, originator, seq_num, raw) VALUES (?, ?, ?, ?)`); err != nil {
		return fmt.Errorf("store: prepare set: %w", err)
	}
	if s.getStmt, err = s.db.PrepareContext(ctx,
		`SELECT raw FROM messages WHERE session_id = ? AND originator = ? AND seq_num = ?`); err != nil {
		return fmt.Errorf("store: prepare get: %w", err)
	}
	if s.deleteStmt, err = s.db.PrepareContext(ctx,
		`DELETE FROM messages WHERE session_id = ? AND originator = ? AND seq_num = ?`); err != nil {
		return fmt.Errorf("store: prepare delete: %w", err)
	}
	if s.filterStmt, err = s.db.PrepareContext(ctx,
		`SELECT seq_num FROM messages
		 WHERE (? = '' OR session_id = ?) AND (? = '' OR originator = ?)
		 ORDER BY seq_num ASC`); err != nil {
		return fmt.Errorf("store: prepare filter: %w", err)
	}

	return nil
}

// Finalize closes the prepared statements and the database handle.
func (s *DurableStore) Finalize(ctx context.Context) error {
	for _, stmt := range []*sql.Stmt{s.setStmt, s.getStmt, s.deleteStmt, s.filterStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

// Set archives msg's encoded wire form under (sessionID, originator,
// msg.SeqNum()).
func (s *DurableStore) Set(ctx context.Context, sessionID, originator string, msg *message.Message) error {
	seqNum, ok := msg.SeqNum()
	if !ok {
		return fmt.Errorf("store: message has no MsgSeqNum (34)")
	}
	raw, err := wire.Encode(msg)
	if err != nil {
		return fmt.Errorf("store: encode message for archival: %w", err)
	}
	if _, err := s.setStmt.ExecContext(ctx, sessionID, originator, seqNum, raw); err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}
	return nil
}

// Get retrieves and decodes the message archived under (sessionID,
// originator, seqNum).
func (s *DurableStore) Get(ctx context.Context, sessionID, originator string, seqNum int) (*message.Message, bool, error) {
	var raw []byte
	err := s.getStmt.QueryRowContext(ctx, sessionID, originator, seqNum).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: query: %w", err)
	}
	msg, err := wire.Decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode archived message: %w", err)
	}
	return msg, true, nil
}

// Delete removes the message archived under (sessionID, originator,
// seqNum), returning the number of rows removed (0 or 1).
func (s *DurableStore) Delete(ctx context.Context, sessionID, originator string, seqNum int) (int, error) {
	res, err := s.deleteStmt.ExecContext(ctx, sessionID, originator, seqNum)
	if err != nil {
		return 0, fmt.Errorf("store: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return int(n), nil
}

// Filter returns the sorted sequence numbers archived for sessionID and
// originator. An empty string for either argument matches any value.
func (s *DurableStore) Filter(ctx context.Context, sessionID, originator string) ([]int, error) {
	rows, err := s.filterStmt.QueryContext(ctx, sessionID, sessionID, originator, originator)
	if err != nil {
		return nil, fmt.Errorf("store: filter query: %w", err)
	}
	defer rows.Close()

	var matches []int
	for rows.Next() {
		var seqNum int
		if err := rows.Scan(&seqNum); err != nil {
			return nil, fmt.Errorf("store: filter scan: %w", err)
		}
		matches = append(matches, seqNum)
	}
	return matches, rows.Err()
}
