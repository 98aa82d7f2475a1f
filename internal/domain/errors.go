package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrFetch                 = errors.New("fetch failed")
	ErrDecode                = errors.New("decode failed")
	ErrRender                = errors.New("render failed")
	ErrEncode                = errors.New("encode failed")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrPublish               = errors.New("publish failed")
	ErrInvalidPackName       = errors.New("invalid pack name")
)

// Mark attaches a failure kind to err while keeping err's message readable.
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}

	return &kindError{kind: kind, err: err}
}

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.err
}

// FailureKind names the most specific failure kind found in err's chain.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCapabilityUnavailable):
		return "capability unavailable"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrPublish):
		return "publish"
	default:
		return "unknown"
	}
}
