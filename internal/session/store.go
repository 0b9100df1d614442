// Package session persists per-session pipeline snapshots in sqlite.
// The host loop writes one snapshot after every mutating phase, keyed
// by (session id, phase, monotonic version), so a run can resume or be
// audited later.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

type Session struct {
	ID        string
	Root      string
	Status    Status
	CreatedAt time.Time
}

type Snapshot struct {
	SessionID string
	Phase     string
	Version   int64
	Payload   json.RawMessage
	CreatedAt time.Time
}

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("session db path must not be empty")
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL keep watch-mode re-runs from tripping over
	// each other's writes.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session db %q: %w", cleanPath, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize session schema %q: %w", cleanPath, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateSession(root string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		ID:        uuid.NewString(),
		Root:      root,
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, root, status, created_at_utc, updated_at_utc) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Root, sess.Status,
		sess.CreatedAt.Format(time.RFC3339Nano), sess.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// SaveSnapshot persists a phase payload with the session's next
// monotonic version and returns that version.
func (s *Store) SaveSnapshot(sessionID, phase string, payload any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot payload: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var version int64
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE session_id = ?`, sessionID,
	).Scan(&version); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(
		`INSERT INTO snapshots (session_id, phase, version, payload, created_at_utc) VALUES (?, ?, ?, ?, ?)`,
		sessionID, phase, version, string(encoded), now,
	); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE sessions SET updated_at_utc = ? WHERE id = ?`, now, sessionID,
	); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return version, nil
}

// LatestSnapshot returns the newest snapshot for a phase, or nil.
func (s *Store) LatestSnapshot(sessionID, phase string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT session_id, phase, version, payload, created_at_utc
		 FROM snapshots WHERE session_id = ? AND phase = ?
		 ORDER BY version DESC LIMIT 1`, sessionID, phase,
	)
	var snap Snapshot
	var created string
	if err := row.Scan(&snap.SessionID, &snap.Phase, &snap.Version, (*jsonText)(&snap.Payload), &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &snap, nil
}

func (s *Store) SetStatus(sessionID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, updated_at_utc = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

func (s *Store) GetSession(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, root, status, created_at_utc FROM sessions WHERE id = ?`, sessionID)
	var sess Session
	var created string
	if err := row.Scan(&sess.ID, &sess.Root, &sess.Status, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &sess, nil
}

// jsonText scans a TEXT column into json.RawMessage.
type jsonText json.RawMessage

func (j *jsonText) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*j = jsonText(v)
	case []byte:
		*j = jsonText(append([]byte(nil), v...))
	default:
		return fmt.Errorf("unexpected payload type %T", src)
	}
	return nil
}
