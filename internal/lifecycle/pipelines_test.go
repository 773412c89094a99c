// internal/lifecycle/pipelines_test.go
//
// Ordering and short-circuit behaviour of the hook pipelines.

package lifecycle

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/tylerburd/nancy/internal/message"
)

func TestBeforePipeline_OrderAndShortCircuit(t *testing.T) {
	var ran []string
	p := &BeforePipeline{}

	p.Append(func(*Context) (*message.Response, error) {
		ran = append(ran, "first")
		return nil, nil
	})
	p.Append(func(*Context) (*message.Response, error) {
		ran = append(ran, "second")
		return message.Text(200, "short"), nil
	})
	p.Append(func(*Context) (*message.Response, error) {
		ran = append(ran, "third")
		return nil, nil
	})

	resp, err := p.Invoke(NewContext())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp == nil {
		t.Fatal("expected the second hook's response")
	}
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Fatalf("ran = %v, want [first second]", ran)
	}
}

func TestBeforePipeline_Prepend(t *testing.T) {
	var ran []string
	p := &BeforePipeline{}

	p.Append(func(*Context) (*message.Response, error) {
		ran = append(ran, "appended")
		return nil, nil
	})
	p.Prepend(func(*Context) (*message.Response, error) {
		ran = append(ran, "prepended")
		return nil, nil
	})

	if _, err := p.Invoke(NewContext()); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(ran) != 2 || ran[0] != "prepended" {
		t.Fatalf("ran = %v, want prepended first", ran)
	}
}

func TestAfterPipeline_StopsOnError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	p := &AfterPipeline{}

	p.Append(func(*Context) error {
		ran = append(ran, "first")
		return boom
	})
	p.Append(func(*Context) error {
		ran = append(ran, "second")
		return nil
	})

	if err := p.Invoke(NewContext()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(ran) != 1 {
		t.Fatalf("ran = %v, want only the failing hook", ran)
	}
}

func TestErrorPipeline_FirstResponseWins(t *testing.T) {
	p := &ErrorPipeline{}
	winner := message.Text(500, "handled")

	p.Append(func(*Context, error) (*message.Response, error) {
		return nil, nil // declines
	})
	p.Append(func(*Context, error) (*message.Response, error) {
		return winner, nil
	})
	p.Append(func(*Context, error) (*message.Response, error) {
		t.Error("hook after the winner should not run")
		return nil, nil
	})

	resp, err := p.Invoke(NewContext(), errors.New("cause"))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp != winner {
		t.Fatalf("resp = %+v, want the second hook's response", resp)
	}
}
