// internal/trace/record.go
//
// Per-request diagnostic trace record.
//
// Context
// -------
// Every lifecycle Context owns exactly one Record from the moment it is
// constructed.  Two fields (Method, URL) are derived state: they mirror
// whatever request is currently bound to the context, and are rewritten
// on every bind.  The remaining fields are only filled in by Finalize,
// which runs once the response exists and tracing is known to be on —
// header cloning and UA parsing are not free, so they are deferred
// until a record is actually going to be stored.
package trace

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tylerburd/nancy/internal/message"
	"github.com/tylerburd/nancy/internal/ua"
)

// Record captures the request/response metadata kept in a trace session.
type Record struct {
	Method string
	URL    string

	ResponseType        string
	StatusCode          int
	RequestContentType  string
	ResponseContentType string
	RequestHeaders      http.Header
	ResponseHeaders     http.Header
	UserAgent           ua.Summary
	RecordedAt          time.Time
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{}
}

// BindRequest mirrors the request's method and URL into the record.
// Called by the context whenever a request is assigned, so the two
// fields always describe the currently bound request.
func (r *Record) BindRequest(req *message.Request) {
	if req == nil {
		r.Method, r.URL = "", ""
		return
	}
	r.Method = req.Method
	if req.URL != nil {
		r.URL = req.URL.String()
	}
}

// Finalize fills in the response-side fields from the finished exchange.
// Headers are cloned; the record must stay valid after the transport
// has recycled the originals.
func (r *Record) Finalize(req *message.Request, resp *message.Response) {
	r.ResponseType = fmt.Sprintf("%T", resp)
	r.StatusCode = resp.StatusCode
	r.RequestContentType = req.ContentType()
	r.ResponseContentType = resp.ContentType
	r.RequestHeaders = req.Header.Clone()
	r.ResponseHeaders = resp.Header.Clone()
	r.UserAgent = ua.Summarize(req.UserAgent())
	r.RecordedAt = time.Now().UTC()
}
