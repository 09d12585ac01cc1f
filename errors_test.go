package thumbcache

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestErrorMatchesKind(t *testing.T) {
	cause := os.ErrNotExist
	err := wrapErr(ErrInvalidInput, cause)

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("errors.Is does not match the kind")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is does not match the cause")
	}
	if errors.Is(err, ErrExecutionFailed) {
		t.Error("errors.Is matched an unrelated kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := errorf(ErrUnsupportedMimeType, "no thumbnailer registered for %s", "application/x-unknown")

	msg := err.Error()
	if !strings.Contains(msg, "unsupported mime type") {
		t.Errorf("message %q missing kind text", msg)
	}
	if !strings.Contains(msg, "application/x-unknown") {
		t.Errorf("message %q missing detail", msg)
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := &Error{Kind: ErrCacheIO}
	if err.Error() != ErrCacheIO.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrCacheIO) {
		t.Error("errors.Is does not match the kind")
	}
}

func TestErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", wrapErr(ErrExecutionFailed, errors.New("exit status 1")))

	var terr *Error
	if !errors.As(wrapped, &terr) {
		t.Fatal("errors.As failed to find *Error")
	}
	if terr.Kind != ErrExecutionFailed {
		t.Errorf("Kind = %v, want ErrExecutionFailed", terr.Kind)
	}
}
