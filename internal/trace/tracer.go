// internal/trace/tracer.go
//
// Request tracer.
//
// Context
// -------
// After a lifecycle finishes, the engine hands the tracer the finished
// exchange.  When tracing is on and the request is not aimed at the
// control panel itself, the tracer resolves the client's session from
// the correlation cookie (minting a session when the cookie is absent,
// malformed, or stale), finalises the context's trace record, appends
// it to the session, and refreshes the cookie on the response.
//
// Failure policy: tracing never fails a request.  Store errors are
// logged at WARN and swallowed; the already-computed response goes out
// untouched.
package trace

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tylerburd/nancy/internal/message"
	"github.com/tylerburd/nancy/internal/metrics"
)

// CookieName carries the correlation identifier between requests.
const CookieName = "nancy_trace"

// cookieTTL is the sliding expiry refreshed on every traced response.
const cookieTTL = 30 * time.Minute

// Tracer records finished exchanges into a session store.
type Tracer struct {
	store       Store
	enabled     bool
	panelPrefix string
	log         *zap.SugaredLogger
}

// NewTracer builds a tracer.  panelPrefix is the reserved control-panel
// path prefix; requests under it are never traced.  A nil logger falls
// back to the global sugared logger.
func NewTracer(store Store, enabled bool, panelPrefix string, log *zap.SugaredLogger) *Tracer {
	if log == nil {
		log = zap.S()
	}
	return &Tracer{
		store:       store,
		enabled:     enabled,
		panelPrefix: panelPrefix,
		log:         log,
	}
}

// Trace records one finished exchange.  No-op unless tracing is on and
// both request and response exist.
func (t *Tracer) Trace(req *message.Request, resp *message.Response, rec *Record) {
	if !t.enabled || req == nil || resp == nil || rec == nil {
		return
	}
	if t.panelPrefix != "" && req.URL != nil &&
		strings.HasPrefix(req.URL.Path, t.panelPrefix) {
		return
	}

	id, ok := t.sessionFor(req)
	if !ok {
		return
	}

	rec.Finalize(req, resp)
	if err := t.store.AppendRecord(id, rec); err != nil {
		t.log.Warnw("trace append failed", "session", id, "err", err)
		return
	}
	metrics.TraceRecordsTotal.Inc()

	resp.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(cookieTTL),
	})
}

// sessionFor resolves the client's session from the correlation cookie,
// minting a new one when the cookie is absent, unparsable, or names a
// session the store no longer recognises.
func (t *Tracer) sessionFor(req *message.Request) (uuid.UUID, bool) {
	if raw, ok := req.Cookie(CookieName); ok {
		if id, err := uuid.Parse(raw); err == nil && t.store.IsValidSession(id) {
			return id, true
		}
	}

	id, err := t.store.CreateSession()
	if err != nil {
		t.log.Warnw("trace session create failed", "err", err)
		return uuid.Nil, false
	}
	metrics.TraceSessionsTotal.Inc()
	return id, true
}
