package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bridgit/internal/services"
	"bridgit/internal/session"
)

// Entry is one stored session result.
type Entry struct {
	Payload  session.Payload
	StoredAt time.Time
}

// Put stores the payload under its session id. The write is an idempotent
// upsert: redelivered or stale writes simply replace the row (last write
// wins) and refresh the eviction deadline.
func (s *Store) Put(ctx context.Context, payload session.Payload) error {
	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		return services.Wrap(services.ErrValidation, "store", "put result", "session id is required", nil)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "store", "put result", "encode payload", err)
	}

	_, err = s.execWithRetry(ctx, `
		INSERT INTO results (session_id, payload, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload,
			stored_at = excluded.stored_at
	`, sessionID, string(encoded), s.now().UnixNano())
	if err != nil {
		return services.Wrap(services.ErrDelivery, "store", "put result", sessionID, err)
	}
	return nil
}

// Get returns the stored entry for a session. An entry past retention is
// treated as absent, so callers cannot distinguish a session still in flight
// from one already evicted.
func (s *Store) Get(ctx context.Context, sessionID string) (Entry, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "store", "get result", "session id is required", nil)
	}

	var (
		encoded  string
		storedAt int64
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT payload, stored_at FROM results WHERE session_id = ?", sessionID,
	).Scan(&encoded, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, services.Wrap(services.ErrNotFound, "store", "get result", sessionID, nil)
	}
	if err != nil {
		return Entry{}, services.Wrap(services.ErrDelivery, "store", "get result", sessionID, err)
	}

	stored := time.Unix(0, storedAt)
	if s.now().Sub(stored) >= s.retention {
		return Entry{}, services.Wrap(services.ErrNotFound, "store", "get result", sessionID, nil)
	}

	var payload session.Payload
	if err := json.Unmarshal([]byte(encoded), &payload); err != nil {
		return Entry{}, services.Wrap(services.ErrDelivery, "store", "get result", "decode payload", err)
	}
	return Entry{Payload: payload, StoredAt: stored}, nil
}

// Sweep deletes entries past retention and reports how many were removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention).UnixNano()
	res, err := s.execWithRetry(ctx, "DELETE FROM results WHERE stored_at <= ?", cutoff)
	if err != nil {
		return 0, services.Wrap(services.ErrDelivery, "store", "sweep results", "", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}

// Count reports how many entries are currently held, expired or not.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM results").Scan(&count)
	if err != nil {
		return 0, services.Wrap(services.ErrDelivery, "store", "count results", "", err)
	}
	return count, nil
}
