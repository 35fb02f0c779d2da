package render

import "fmt"

// Error classification tags. Classification happens once, at the boundary
// nearest the failure; callers only ever see a classified error.
const (
	ErrTypeValidation             = "validation_error"
	ErrTypeTransientUpstreamFetch = "transient_upstream_fetch"
	ErrTypeUpstreamFetch4xx       = "upstream_fetch_4xx"
	ErrTypeUpstreamFetch5xx       = "upstream_fetch_5xx"
	ErrTypeImageDecode            = "image_decode_error"
	ErrTypeRender                 = "render_error"
	ErrTypeUnknown                = "unknown_error"
)

// Error is a classified render failure.
type Error struct {
	Type string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(errType string, err error) *Error {
	return &Error{Type: errType, Err: err}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrTypeValidation, fmt.Errorf(format, args...))
}

// Classify returns the classification tag of err, or unknown_error for
// anything that escaped classification at its boundary.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if re, ok := err.(*Error); ok {
		return re.Type
	}
	return ErrTypeUnknown
}

// IsTransient reports whether an error classification is worth retrying:
// upstream timeouts/connection resets and upstream 5xx responses.
func IsTransient(errType string) bool {
	return errType == ErrTypeTransientUpstreamFetch || errType == ErrTypeUpstreamFetch5xx
}
