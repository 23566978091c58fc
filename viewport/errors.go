package viewport

import (
	"errors"
	"fmt"
)

// Error kinds reported by resource-acquisition operations. Navigation and
// zoom never fail; they clamp or return a sentinel index instead.
var (
	// ErrSourceNotFound means a file-backed source does not exist. It is
	// reported before any decode attempt.
	ErrSourceNotFound = errors.New("document source not found")

	// ErrPasswordRequired means the document is encrypted and no password
	// was supplied (or the password prompt was cancelled).
	ErrPasswordRequired = errors.New("password required")

	// ErrInvalidPassword means the supplied password was rejected.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidSourceComposition is returned when a password wrapper is
	// placed around a source that already carries one.
	ErrInvalidSourceComposition = errors.New("password-protected source cannot wrap another password-protected source")

	// ErrDecodeFailure is the generic backend failure (corrupt document,
	// unsupported entry, ...).
	ErrDecodeFailure = errors.New("decode failure")

	// ErrCacheUnloaded is returned by a PageImageCache after Unload.
	ErrCacheUnloaded = errors.New("page image cache unloaded")

	// ErrPagePending marks a page of PeekRange that is still being
	// rendered in the background.
	ErrPagePending = errors.New("page not rendered yet")

	// ErrNoDocument is returned by operations that need an open document.
	ErrNoDocument = errors.New("no document open")
)

// DecodeError wraps a backend failure for a single page.
type DecodeError struct {
	Page int // 0-based, -1 when not page specific
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("decode failure: %v", e.Err)
	}
	return fmt.Sprintf("decode failure on page %d: %v", e.Page+1, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrDecodeFailure.
func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailure }

// IsPasswordError reports whether err is one of the password kinds.
func IsPasswordError(err error) bool {
	return errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrInvalidPassword)
}

// ErrPageOutOfRange is returned when a fetch starts outside the document.
var ErrPageOutOfRange = errors.New("page index out of range")
