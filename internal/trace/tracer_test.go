// internal/trace/tracer_test.go
//
// Unit-tests for the request tracer.
//
// The headline property is the round trip: a fresh client's first
// traced request mints a session and sets the correlation cookie;
// replaying that cookie on a second request resolves to the same
// session, which then holds two records.

package trace

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tylerburd/nancy/internal/message"
)

func tracedRequest(t *testing.T, cookie string) *message.Request {
	t.Helper()
	req, err := message.NewRequest("GET", "http://example.test/page", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh) AppleWebKit/537.36 Chrome/125.0 Safari/537.36")
	if cookie != "" {
		req.Header.Set("Cookie", CookieName+"="+cookie)
	}
	return req
}

func correlationCookie(t *testing.T, resp *message.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestTracer_RoundTrip(t *testing.T) {
	store := NewMemoryStore(0, 0)
	tr := NewTracer(store, true, "/_panel", zap.NewNop().Sugar())

	// First request: no cookie, session minted, cookie set.
	resp1 := message.Text(200, "one")
	tr.Trace(tracedRequest(t, ""), resp1, NewRecord())

	cookie := correlationCookie(t, resp1)
	if cookie == nil {
		t.Fatal("first traced response carries no correlation cookie")
	}
	if !cookie.HttpOnly {
		t.Fatal("correlation cookie must be HTTP-only")
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		t.Fatalf("cookie value %q is not a UUID: %v", cookie.Value, err)
	}

	// Second request replays the cookie: same session, two records.
	resp2 := message.Text(200, "two")
	tr.Trace(tracedRequest(t, cookie.Value), resp2, NewRecord())

	second := correlationCookie(t, resp2)
	if second == nil || second.Value != cookie.Value {
		t.Fatalf("replayed cookie = %v, want refresh of the same session", second)
	}
	if got := len(store.Records(id)); got != 2 {
		t.Fatalf("session records = %d, want 2", got)
	}
}

func TestTracer_FinalizesRecord(t *testing.T) {
	store := NewMemoryStore(0, 0)
	tr := NewTracer(store, true, "/_panel", zap.NewNop().Sugar())

	resp := message.Text(201, "made")
	resp.WithHeader("X-Out", "yes")

	rec := NewRecord()
	req := tracedRequest(t, "")
	rec.BindRequest(req)
	tr.Trace(req, resp, rec)

	if rec.StatusCode != 201 {
		t.Fatalf("status = %d, want 201", rec.StatusCode)
	}
	if rec.ResponseContentType != resp.ContentType {
		t.Fatalf("response content type = %q", rec.ResponseContentType)
	}
	if rec.ResponseHeaders.Get("X-Out") != "yes" {
		t.Fatal("response headers not captured")
	}
	if rec.UserAgent.Browser == "" {
		t.Fatal("user-agent summary not captured")
	}
}

func TestTracer_DisabledIsNoop(t *testing.T) {
	store := NewMemoryStore(0, 0)
	tr := NewTracer(store, false, "/_panel", zap.NewNop().Sugar())

	resp := message.Text(200, "ok")
	tr.Trace(tracedRequest(t, ""), resp, NewRecord())

	if len(resp.Cookies) != 0 {
		t.Fatal("disabled tracer still set a cookie")
	}
	if store.Len() != 0 {
		t.Fatal("disabled tracer still created a session")
	}
}

func TestTracer_SkipsControlPanelPaths(t *testing.T) {
	store := NewMemoryStore(0, 0)
	tr := NewTracer(store, true, "/_panel", zap.NewNop().Sugar())

	req, _ := message.NewRequest("GET", "http://example.test/_panel/traces", nil)
	resp := message.Text(200, "panel")
	tr.Trace(req, resp, NewRecord())

	if store.Len() != 0 {
		t.Fatal("control-panel request was traced")
	}
}

func TestTracer_StaleCookieMintsNewSession(t *testing.T) {
	store := NewMemoryStore(0, 0)
	tr := NewTracer(store, true, "/_panel", zap.NewNop().Sugar())

	stale := uuid.New().String() // never created in the store
	resp := message.Text(200, "ok")
	tr.Trace(tracedRequest(t, stale), resp, NewRecord())

	cookie := correlationCookie(t, resp)
	if cookie == nil {
		t.Fatal("no correlation cookie on response")
	}
	if cookie.Value == stale {
		t.Fatal("stale session identifier was reused")
	}
}

// failingStore rejects every operation.
type failingStore struct{}

func (failingStore) CreateSession() (uuid.UUID, error) {
	return uuid.Nil, errors.New("store down")
}
func (failingStore) IsValidSession(uuid.UUID) bool          { return false }
func (failingStore) AppendRecord(uuid.UUID, *Record) error { return errors.New("store down") }

func TestTracer_StoreFailureIsSwallowed(t *testing.T) {
	tr := NewTracer(failingStore{}, true, "/_panel", zap.NewNop().Sugar())

	resp := message.Text(200, "ok")
	tr.Trace(tracedRequest(t, ""), resp, NewRecord())

	// No panic, no cookie; the response is untouched and goes out as-is.
	if len(resp.Cookies) != 0 {
		t.Fatal("cookie set despite store failure")
	}
}
