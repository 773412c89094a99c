// internal/server/adapter_test.go
//
// Tests for the net/http transport adapter: a full engine behind an
// httptest request, asserting that status, headers, cookies, and body
// make it onto the wire, and that a response-less context falls back
// to a bare 500.

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/tylerburd/nancy/internal/lifecycle"
	"github.com/tylerburd/nancy/internal/message"
)

// stubResolver returns a fixed resolution.
type stubResolver struct {
	resolution lifecycle.Resolution
}

func (s stubResolver) Resolve(*lifecycle.Context) (lifecycle.Resolution, error) {
	return s.resolution, nil
}

func newEngine(t *testing.T, r lifecycle.Resolver) *lifecycle.Engine {
	t.Helper()
	e, err := lifecycle.New(lifecycle.Config{Logger: zap.NewNop().Sugar()}, r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestHandler_WritesResponse(t *testing.T) {
	e := newEngine(t, stubResolver{resolution: lifecycle.Resolution{
		Handler: func(message.Params) (*message.Response, error) {
			resp := message.Text(http.StatusCreated, "made")
			resp.WithHeader("X-Custom", "yes")
			resp.SetCookie(&http.Cookie{Name: "c", Value: "v"})
			return resp, nil
		},
	}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	Handler(e, zap.NewNop().Sugar()).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	if rr.Body.String() != "made" {
		t.Fatalf("body = %q, want %q", rr.Body.String(), "made")
	}
	if rr.Header().Get("X-Custom") != "yes" {
		t.Fatal("custom header lost in transit")
	}
	if got := rr.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "c" {
		t.Fatalf("cookies = %v, want the handler's cookie", cookies)
	}
}

func TestHandler_HeadRequestHasNoBody(t *testing.T) {
	e := newEngine(t, stubResolver{resolution: lifecycle.Resolution{
		Handler: func(message.Params) (*message.Response, error) {
			return message.Text(http.StatusOK, "payload"), nil
		},
	}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodHead, "/thing", nil)
	Handler(e, zap.NewNop().Sugar()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("HEAD body = %q, want empty", rr.Body.String())
	}
}

// nilResponseResolver produces a handler that clears its own response,
// leaving the context response-less.
type nilResponseResolver struct{}

func (nilResponseResolver) Resolve(*lifecycle.Context) (lifecycle.Resolution, error) {
	return lifecycle.Resolution{
		Handler: func(message.Params) (*message.Response, error) {
			return nil, nil
		},
	}, nil
}

func TestHandler_NilResponseFallsBackTo500(t *testing.T) {
	e := newEngine(t, nilResponseResolver{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/void", nil)
	Handler(e, zap.NewNop().Sugar()).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want the adapter's last-line 500", rr.Code)
	}
}
