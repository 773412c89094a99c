// internal/trace/sqlstore.go
//
// SQL-backed trace-session store.
//
// Context
// -------
// Installs that want diagnostics to survive a restart point the tracer
// at a SQLStore instead of the default MemoryStore.  Two tables:
//
//	trace_session (id CHAR(36) PK, created_at, last_seen)
//	trace_record  (id PK AUTO, session_id FK, recorded_at, method, url,
//	               status_code, response_type, request_content_type,
//	               response_content_type, request_headers, response_headers,
//	               user_agent)
//
// Header sets are stored as JSON text.  The per-session record limit is
// enforced on every append by deleting the oldest rows, so the table
// stays bounded without a retention job.
//
// Validity checks are collapsed through a singleflight group: when many
// parallel requests replay the same cookie, only one of them pays for
// the SELECT.
package trace

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

// SQLStore persists sessions through a sqlx pool (MySQL/MariaDB wire
// protocol, same driver as the rest of the codebase).
type SQLStore struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	recordLimit int
}

// NewSQLStore wraps db.  recordLimit <= 0 selects DefaultRecordLimit.
func NewSQLStore(db *sqlx.DB, recordLimit int) *SQLStore {
	if recordLimit <= 0 {
		recordLimit = DefaultRecordLimit
	}
	return &SQLStore{db: db, recordLimit: recordLimit}
}

// CreateSession inserts a fresh session row.
func (s *SQLStore) CreateSession() (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.Exec(
		`INSERT INTO trace_session (id, created_at, last_seen) VALUES (?, NOW(), NOW())`,
		id.String())
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// IsValidSession reports whether the session row exists.  Concurrent
// checks for the same identifier share one query.
func (s *SQLStore) IsValidSession(id uuid.UUID) bool {
	v, _, _ := s.sfg.Do(id.String(), func() (any, error) {
		var dummy int
		err := s.db.QueryRow(
			`SELECT 1 FROM trace_session WHERE id = ? LIMIT 1`, id.String()).Scan(&dummy)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	ok, _ := v.(bool)
	return ok
}

// AppendRecord inserts rec and trims the session's history to the
// record limit, oldest rows first.
func (s *SQLStore) AppendRecord(id uuid.UUID, rec *Record) error {
	reqHeaders, err := marshalHeaders(rec.RequestHeaders)
	if err != nil {
		return err
	}
	respHeaders, err := marshalHeaders(rec.ResponseHeaders)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.Exec(
		`INSERT INTO trace_record
		   (session_id, recorded_at, method, url, status_code, response_type,
		    request_content_type, response_content_type,
		    request_headers, response_headers, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.RecordedAt, rec.Method, rec.URL, rec.StatusCode,
		rec.ResponseType, rec.RequestContentType, rec.ResponseContentType,
		reqHeaders, respHeaders, rec.UserAgent.String())
	if err != nil {
		return err
	}

	// Trim beyond the limit; MySQL supports LIMIT on DELETE via subquery
	// ordering, so delete the oldest overflow rows directly.
	_, err = tx.Exec(
		`DELETE FROM trace_record
		  WHERE session_id = ?
		    AND id NOT IN (
		      SELECT id FROM (
		        SELECT id FROM trace_record
		         WHERE session_id = ?
		         ORDER BY id DESC LIMIT ?) keep)`,
		id.String(), id.String(), s.recordLimit)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`UPDATE trace_session SET last_seen = NOW() WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return tx.Commit()
}

func marshalHeaders(h http.Header) (string, error) {
	if h == nil {
		return "{}", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
