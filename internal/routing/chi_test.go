// internal/routing/chi_test.go
//
// Unit-tests for the chi-backed resolver.
//
// Context
// -------
// Verifies the four resolution outcomes:
//
//   • pattern match                 → registered handler + URL params
//   • HEAD with only a GET route    → GET route returned
//   • no pattern match              → 404 route
//   • pattern under another method  → 405 route with Allow header

package routing

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tylerburd/nancy/internal/lifecycle"
	"github.com/tylerburd/nancy/internal/message"
)

func contextFor(t *testing.T, method, rawurl string) *lifecycle.Context {
	t.Helper()
	req, err := message.NewRequest(method, rawurl, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	c := lifecycle.NewContext()
	c.SetRequest(req)
	return c
}

func render(t *testing.T, resp *message.Response) string {
	t.Helper()
	if resp.Contents == nil {
		return ""
	}
	var sb strings.Builder
	if err := resp.Contents(&sb); err != nil {
		t.Fatalf("render: %v", err)
	}
	return sb.String()
}

func TestResolve_MatchWithParams(t *testing.T) {
	r := NewChiResolver()
	r.Get("/users/{id}", func(p message.Params) (*message.Response, error) {
		return message.Text(200, p.String("id")), nil
	})

	res, err := r.Resolve(contextFor(t, "GET", "http://example.test/users/42"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Params.String("id") != "42" {
		t.Fatalf("params[id] = %q, want 42", res.Params.String("id"))
	}

	resp, err := res.Handler(res.Params)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := render(t, resp); got != "42" {
		t.Fatalf("body = %q, want 42", got)
	}
}

func TestResolve_HeadFallsBackToGet(t *testing.T) {
	r := NewChiResolver()
	r.Get("/thing", func(message.Params) (*message.Response, error) {
		return message.Text(200, "thing"), nil
	})

	res, err := r.Resolve(contextFor(t, "HEAD", "http://example.test/thing"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	resp, err := res.Handler(res.Params)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want the GET route's 200", resp.StatusCode)
	}
}

func TestResolve_NoMatchIs404Route(t *testing.T) {
	r := NewChiResolver()
	r.Get("/known", func(message.Params) (*message.Response, error) {
		return message.Text(200, "known"), nil
	})

	res, err := r.Resolve(contextFor(t, "GET", "http://example.test/unknown"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	resp, err := res.Handler(res.Params)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestResolve_WrongMethodIs405WithAllow(t *testing.T) {
	r := NewChiResolver()
	r.Get("/submit", func(message.Params) (*message.Response, error) {
		return message.Text(200, "get"), nil
	})
	r.Post("/submit", func(message.Params) (*message.Response, error) {
		return message.Text(200, "post"), nil
	})

	res, err := r.Resolve(contextFor(t, "DELETE", "http://example.test/submit"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	resp, err := res.Handler(res.Params)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}

	allow := resp.Header.Get("Allow")
	if !strings.Contains(allow, "GET") || !strings.Contains(allow, "POST") {
		t.Fatalf("Allow = %q, want GET and POST", allow)
	}
}

func TestResolve_PerRouteHooksPassThrough(t *testing.T) {
	r := NewChiResolver()
	r.Handle(http.MethodGet, "/hooked", Route{
		Handler: func(message.Params) (*message.Response, error) {
			return message.Text(200, "ok"), nil
		},
		PreHook: func(*lifecycle.Context) (*message.Response, error) {
			return nil, nil
		},
		PostHook: func(*lifecycle.Context) error { return nil },
	})

	res, err := r.Resolve(contextFor(t, "GET", "http://example.test/hooked"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.PreHook == nil || res.PostHook == nil {
		t.Fatal("per-route hooks were dropped during resolution")
	}
}
