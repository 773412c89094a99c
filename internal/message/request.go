// internal/message/request.go
//
// Host-agnostic inbound request.
//
// Context
// -------
// The lifecycle engine never touches net/http directly; the transport
// adapter (internal/server) converts each *http.Request into a
// *message.Request before handing it to the engine.  Keeping the model
// host-agnostic lets the engine run embedded behind any listener, or
// behind none at all (tests, nested child requests).
//
// Ownership
// ---------
// The request body is an io.ReadCloser owned by whichever Context the
// request is bound to; Context.Close releases it exactly once.  Close
// here is idempotent so a transport that also closes the underlying
// body does not trip over the engine's teardown.
package message

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// Request is the inbound half of a lifecycle invocation.
type Request struct {
	Method     string
	URL        *url.URL
	Proto      string
	Header     http.Header
	Body       io.ReadCloser
	Host       string
	RemoteAddr string

	ctx       context.Context
	closeOnce sync.Once
}

// NewRequest builds a Request for embedded or test use.  rawurl must be
// parseable; body may be nil.
func NewRequest(method, rawurl string, body io.ReadCloser) (*Request, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method: method,
		URL:    u,
		Proto:  "HTTP/1.1",
		Header: make(http.Header),
		Body:   body,
		Host:   u.Host,
	}, nil
}

// WithContext attaches the transport's context.Context.  The engine
// never cancels an in-flight lifecycle; the context is advisory, for
// collaborators (handlers, stores) that want deadlines of their own.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Context returns the attached context, or context.Background.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// ContentType returns the Content-Type header, or "".
func (r *Request) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// UserAgent returns the User-Agent header, or "".
func (r *Request) UserAgent() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("User-Agent")
}

// Cookie returns the named cookie's value.  ok == false when the
// header is absent or the cookie is not present.
func (r *Request) Cookie(name string) (value string, ok bool) {
	if r.Header == nil {
		return "", false
	}
	// Borrow net/http's cookie parser rather than re-implementing it.
	parse := http.Request{Header: r.Header}
	c, err := parse.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Close releases the request body.  Safe to call more than once.
func (r *Request) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.Body != nil {
			err = r.Body.Close()
		}
	})
	return err
}
