// internal/message/response_test.go
//
// Body suppression and the typed-params accessors.

package message

import (
	"strings"
	"testing"
)

func TestWithoutBody_PreservesEverythingButContents(t *testing.T) {
	resp := Text(200, "payload")
	resp.WithHeader("X-Thing", "yes")

	head := resp.WithoutBody()

	if head.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", head.StatusCode)
	}
	if head.ContentType != resp.ContentType {
		t.Fatalf("content type = %q, want %q", head.ContentType, resp.ContentType)
	}
	if head.Header.Get("X-Thing") != "yes" {
		t.Fatal("headers lost")
	}
	if head.Contents != nil {
		t.Fatal("body action survived suppression")
	}

	// The original is untouched.
	var sb strings.Builder
	if err := resp.Contents(&sb); err != nil {
		t.Fatalf("render original: %v", err)
	}
	if sb.String() != "payload" {
		t.Fatalf("original body = %q", sb.String())
	}
}

func TestRequestCookie(t *testing.T) {
	req, err := NewRequest("GET", "http://example.test/", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Cookie", "a=1; b=2")

	if v, ok := req.Cookie("b"); !ok || v != "2" {
		t.Fatalf("cookie b = %q/%v, want 2/true", v, ok)
	}
	if _, ok := req.Cookie("missing"); ok {
		t.Fatal("missing cookie reported present")
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{"id": "42", "count": 7, "name": "ada"}

	if p.String("name") != "ada" {
		t.Fatalf("String(name) = %q", p.String("name"))
	}
	if n, ok := p.Int("id"); !ok || n != 42 {
		t.Fatalf("Int(id) = %d/%v", n, ok)
	}
	if n, ok := p.Int("count"); !ok || n != 7 {
		t.Fatalf("Int(count) = %d/%v", n, ok)
	}
	if _, ok := p.Int("name"); ok {
		t.Fatal("Int(name) should fail")
	}
	if p.String("missing") != "" || p.Has("missing") {
		t.Fatal("missing key misreported")
	}
}
