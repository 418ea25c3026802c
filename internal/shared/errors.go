package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the record changed underneath the caller
	// (optimistic concurrency version mismatch).
	ErrConflict = errors.New("record version conflict")
)

// UserSafeMessage maps internal errors onto text safe to surface to the
// submitting user.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrConflict):
		return "The record changed, please refresh and retry."
	default:
		return err.Error()
	}
}
