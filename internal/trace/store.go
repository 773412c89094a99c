// internal/trace/store.go
//
// Trace-session stores.
//
// Context
// -------
// A session groups the trace records of one client, keyed by a random
// V4 correlation identifier carried in a cookie.  Stores are shared by
// every in-flight request, so they serialise their own mutations; the
// lifecycle engine treats every call as potentially contended.
//
// MemoryStore is the default: a mutex-guarded map with a bounded
// per-session history and idle-session expiry, in the spirit of the
// bounded caches used elsewhere in this codebase.  A SQL-backed
// implementation lives in sqlstore.go for installs that want traces to
// survive restarts.
package trace

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Default bounds.  Override through the MemoryStore constructor.
const (
	DefaultRecordLimit = 500
	DefaultIdleTTL     = 30 * time.Minute
)

// ErrUnknownSession is returned when a record is appended to a session
// the store does not recognise.
var ErrUnknownSession = errors.New("trace: unknown session")

// Store is the session store consumed by the Tracer.
type Store interface {
	// CreateSession mints a new session and returns its identifier.
	CreateSession() (uuid.UUID, error)

	// IsValidSession reports whether id names a live session.
	IsValidSession(id uuid.UUID) bool

	// AppendRecord adds rec to the session's bounded history.
	AppendRecord(id uuid.UUID, rec *Record) error
}

// session holds one client's bounded record history.
type session struct {
	records  []*Record
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*session
	recordLimit int
	idleTTL     time.Duration
	now         func() time.Time // swapped in tests
}

// NewMemoryStore returns a store bounding each session at recordLimit
// records and expiring sessions idle longer than idleTTL.  Zero values
// select the package defaults.
func NewMemoryStore(recordLimit int, idleTTL time.Duration) *MemoryStore {
	if recordLimit <= 0 {
		recordLimit = DefaultRecordLimit
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &MemoryStore{
		sessions:    make(map[uuid.UUID]*session),
		recordLimit: recordLimit,
		idleTTL:     idleTTL,
		now:         time.Now,
	}
}

// CreateSession mints a fresh V4 identifier.  Expired sessions are
// swept opportunistically here, so a store serving live traffic never
// grows without bound even without a background janitor.
func (s *MemoryStore) CreateSession() (uuid.UUID, error) {
	id := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.sessions[id] = &session{lastSeen: s.now()}
	return id, nil
}

// IsValidSession reports whether the session exists and is not idle.
func (s *MemoryStore) IsValidSession(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	if s.now().Sub(sess.lastSeen) > s.idleTTL {
		delete(s.sessions, id)
		return false
	}
	return true
}

// AppendRecord adds rec and trims history beyond the record limit,
// oldest first.
func (s *MemoryStore) AppendRecord(id uuid.UUID, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	sess.lastSeen = s.now()
	sess.records = append(sess.records, rec)
	if over := len(sess.records) - s.recordLimit; over > 0 {
		sess.records = append(sess.records[:0:0], sess.records[over:]...)
	}
	return nil
}

// Records returns a snapshot of the session's history, newest last.
// Used by the control-panel renderer; the copy keeps callers from
// racing appenders.
func (s *MemoryStore) Records(id uuid.UUID) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]*Record, len(sess.records))
	copy(out, sess.records)
	return out
}

// Len reports the live session count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweepLocked drops idle sessions.  Caller holds s.mu.
func (s *MemoryStore) sweepLocked() {
	cutoff := s.now().Add(-s.idleTTL)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
