package runner

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestSimComplete(t *testing.T) {
	h := NewSimHandler()
	result, err := h.Run(context.Background(), []byte("result done"))
	if err != nil {
		t.Fatal("unexpected error: ", err)
	}
	if string(result) != "done" {
		t.Error("unexpected result: ", string(result))
	}
}

func TestSimEmptyScriptCompletes(t *testing.T) {
	h := NewSimHandler()
	result, err := h.Run(context.Background(), nil)
	if err != nil || result != nil {
		t.Error("empty script should complete with no result, got: ", result, err)
	}
}

func TestSimFail(t *testing.T) {
	h := NewSimHandler()
	_, err := h.Run(context.Background(), []byte("fail smtp unreachable"))
	if err == nil || err.Error() != "smtp unreachable" {
		t.Error("expected retryable failure, got: ", err)
	}
	if IsPermanent(err) {
		t.Error("plain fail must not be permanent")
	}
}

func TestSimFailPermanent(t *testing.T) {
	h := NewSimHandler()
	_, err := h.Run(context.Background(), []byte("failperm bad address"))
	if !IsPermanent(err) {
		t.Error("expected permanent failure, got: ", err)
	}
}

func TestSimBadScriptIsPermanent(t *testing.T) {
	h := NewSimHandler()
	_, err := h.Run(context.Background(), []byte("explode"))
	if !IsPermanent(err) {
		t.Error("unparsable script should fail permanently, got: ", err)
	}
}

func TestSimBlockHonorsContext(t *testing.T) {
	h := NewSimHandler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := h.Run(ctx, []byte("block"))
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Error("expected context.Canceled, got: ", err)
		}
	case <-time.After(time.Second):
		t.Fatal("block did not observe cancellation")
	}
}

func TestPermanentWrapping(t *testing.T) {
	base := errors.New("boom")
	wrapped := errors.Wrap(Permanent(base), "outer context")
	if !IsPermanent(wrapped) {
		t.Error("IsPermanent should see through wrapping")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("email", NewSimHandler())

	if _, ok := r.Lookup("email"); !ok {
		t.Error("expected registered handler")
	}
	if _, ok := r.Lookup("report"); ok {
		t.Error("expected miss for unregistered type")
	}
	if types := r.Types(); len(types) != 1 || types[0] != "email" {
		t.Error("unexpected types: ", types)
	}
}
