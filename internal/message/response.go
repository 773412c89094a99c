// internal/message/response.go
//
// Host-agnostic outbound response.
//
// Context
// -------
// A Response is "not yet produced" while the pointer held by the
// lifecycle Context is nil.  Once a stage assigns one, later stages
// must leave it alone unless they are an explicit override point
// (After pipeline, error recovery, HEAD body suppression).  The body
// is a deferred write action, not a byte slice, so a response can be
// built cheaply and only streamed when the transport flushes it.
package message

import (
	"encoding/json"
	"io"
	"net/http"
)

// Response is the outbound half of a lifecycle invocation.
type Response struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Cookies     []*http.Cookie

	// Contents writes the body.  nil means an intentionally empty body.
	Contents func(io.Writer) error
}

// New returns an empty response with the given status code.
func New(status int) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
}

// Text returns a text/plain response whose body is written on flush.
func Text(status int, body string) *Response {
	r := New(status)
	r.ContentType = "text/plain; charset=utf-8"
	r.Contents = func(w io.Writer) error {
		_, err := io.WriteString(w, body)
		return err
	}
	return r
}

// HTML returns a text/html response.
func HTML(status int, body string) *Response {
	r := New(status)
	r.ContentType = "text/html; charset=utf-8"
	r.Contents = func(w io.Writer) error {
		_, err := io.WriteString(w, body)
		return err
	}
	return r
}

// JSON marshals v on flush.  Marshal errors surface through the
// transport's flush path, not at construction.
func JSON(status int, v any) *Response {
	r := New(status)
	r.ContentType = "application/json; charset=utf-8"
	r.Contents = func(w io.Writer) error {
		return json.NewEncoder(w).Encode(v)
	}
	return r
}

// InternalServerError is the fixed failure response installed when
// error recovery itself fails.  Body is deliberately generic; the full
// detail lives in the context's reserved error items.
func InternalServerError() *Response {
	return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// SetCookie queues a cookie for the transport to emit.
func (r *Response) SetCookie(c *http.Cookie) {
	r.Cookies = append(r.Cookies, c)
}

// WithoutBody returns a shallow copy whose body action is suppressed.
// Status, content type, headers, and cookies are preserved; used for
// HEAD requests, which must answer exactly like GET minus the body.
func (r *Response) WithoutBody() *Response {
	clone := *r
	clone.Contents = nil
	return &clone
}
