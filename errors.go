package thumbcache

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers match them with errors.Is against any error
// returned by the package.
var (
	// ErrInvalidInput means the source path could not be resolved to an
	// absolute, existing file.
	ErrInvalidInput = errors.New("thumbcache: invalid input")
	// ErrUnsupportedMimeType means no registered thumbnailer handles the
	// source's MIME type. No failure marker is written for this condition.
	ErrUnsupportedMimeType = errors.New("thumbcache: unsupported mime type")
	// ErrMalformedCommandTemplate means a descriptor's Exec line could not
	// be tokenized or was empty.
	ErrMalformedCommandTemplate = errors.New("thumbcache: malformed command template")
	// ErrExecutionFailed means the external thumbnailer failed or produced
	// no output. The failure is recorded with a marker so identical calls
	// are cheap until the source changes.
	ErrExecutionFailed = errors.New("thumbcache: execution failed")
	// ErrCacheIO means a filesystem operation on the cache itself failed.
	ErrCacheIO = errors.New("thumbcache: cache i/o error")
	// ErrMetadataParse means a cached thumbnail's embedded metadata could
	// not be read. Internally this is treated as a cache miss; it is only
	// surfaced by direct metadata inspection.
	ErrMetadataParse = errors.New("thumbcache: metadata parse error")
)

// Error pairs one of the sentinel kinds with an underlying cause. errors.Is
// matches against both.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Err.Error())
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrapErr builds an *Error from a kind and a cause.
func wrapErr(kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// errorf builds an *Error from a kind and a formatted message.
func errorf(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
