// internal/server/adapter.go
//
// net/http transport adapter.
//
// Context
// -------
// The lifecycle engine is host-agnostic; this adapter is the bridge to
// a real listener.  Inbound, it converts *http.Request into the
// engine's message.Request (cloned headers, pass-through body, the
// transport context attached for collaborators).  Outbound, it writes
// the context's response — headers, cookies, status, then the deferred
// body action — and tears the context down.
//
// A context that comes back with no response at all is the engine's
// "failed before producing even an error response" signal; the adapter
// is the caller's last line of defence and answers a bare 500.
package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tylerburd/nancy/internal/lifecycle"
	"github.com/tylerburd/nancy/internal/message"
)

// Handler adapts engine into an http.Handler.
func Handler(engine *lifecycle.Engine, log *zap.SugaredLogger) http.Handler {
	if log == nil {
		log = zap.S()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := fromHTTP(r)

		c, err := engine.HandleRequest(req)
		if err != nil {
			// Only reachable for a nil request, which we never send;
			// still, fail closed.
			log.Errorw("engine rejected request", "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
			return
		}
		defer func() {
			if cerr := c.Close(); cerr != nil {
				log.Warnw("context teardown", "err", cerr)
			}
		}()

		if c.Response == nil {
			log.Errorw("lifecycle produced no response",
				"method", r.Method, "url", r.URL.String())
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
			return
		}

		if err := writeResponse(w, c.Response); err != nil {
			// Headers are already on the wire; all we can do is log.
			log.Warnw("response write failed",
				"method", r.Method, "url", r.URL.String(), "err", err)
		}
	})
}

// fromHTTP converts the transport request into the engine's model.
// Headers are cloned so lifecycle stages can mutate them without
// touching the server's copy; the body is shared and closed by the
// context (idempotently, since net/http closes it too).
func fromHTTP(r *http.Request) *message.Request {
	req := &message.Request{
		Method:     r.Method,
		URL:        r.URL,
		Proto:      r.Proto,
		Header:     r.Header.Clone(),
		Body:       r.Body,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
	}
	return req.WithContext(r.Context())
}

// writeResponse flushes resp to the wire: headers, cookies, status,
// body action.
func writeResponse(w http.ResponseWriter, resp *message.Response) error {
	header := w.Header()
	for key, values := range resp.Header {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	if resp.ContentType != "" {
		header.Set("Content-Type", resp.ContentType)
	}
	for _, c := range resp.Cookies {
		http.SetCookie(w, c)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if resp.Contents == nil {
		return nil
	}
	return resp.Contents(w)
}
