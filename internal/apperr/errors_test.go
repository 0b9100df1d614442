package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeNotFound, "domain missing")
	if got := err.Error(); got != "[NOT_FOUND] domain missing" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Wrap(fmt.Errorf("disk full"), CodeInternal, "save failed")
	if !strings.Contains(wrapped.Error(), "disk full") {
		t.Errorf("Wrapped message lost the cause: %q", wrapped.Error())
	}
}

func TestWithContext(t *testing.T) {
	err := Newf(CodeValidationError, "bad path %q", "x.y").
		WithContext(CtxDomain, "auth").
		WithContext(CtxFile, "src/a.ts")

	if err.Context[CtxDomain] != "auth" {
		t.Errorf("Context = %v", err.Context)
	}
	if !strings.Contains(err.Error(), "auth") {
		t.Errorf("Context not rendered: %q", err.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConflict, "already running"))
	if !IsCode(err, CodeConflict) {
		t.Error("IsCode should see through wrapping")
	}
	if IsCode(err, CodeNotFound) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(errors.New("plain"), CodeConflict) {
		t.Error("IsCode matched a non-coded error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(cause, CodeUnavailable, "llm call")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestInvariant(t *testing.T) {
	Invariant(true, "never fires")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		e, ok := r.(*Error)
		if !ok || e.Code != CodeInvariant {
			t.Errorf("recovered %v", r)
		}
	}()
	Invariant(false, "edge target %q is not a node", "a.ts")
}
