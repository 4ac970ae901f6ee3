package swapchain

import (
	"github.com/pkg/errors"
)

// Error kinds. Every error returned by this package matches exactly one of them with errors.Is, except recreation
// failures which also match the kind of their cause.
var (
	// ErrQuery means the surface capabilities could not be read. The surface is unusable.
	ErrQuery = errors.New("swapchain: surface query failed")
	// ErrNegotiation means the platform reported no format or no present mode at all.
	ErrNegotiation = errors.New("swapchain: no option to negotiate")
	// ErrPrecondition means a required input was missing, e.g. an unset queue family index.
	ErrPrecondition = errors.New("swapchain: precondition not met")
	// ErrCreation means the platform refused to allocate the swap chain or hand out its images.
	ErrCreation = errors.New("swapchain: creation failed")
	// ErrRecreation means destroy-then-create failed. The Manager is left Destroyed.
	ErrRecreation = errors.New("swapchain: recreation failed")
	// ErrInvalidState means an operation or accessor was called in a state that forbids it.
	ErrInvalidState = errors.New("swapchain: invalid state")
)

// opError ties the failing operation and its cause to one of the kinds above.
type opError struct {
	kind  error
	op    string
	cause error
}

func newError(kind error, op string, cause error) error {
	return &opError{kind: kind, op: op, cause: cause}
}

func (e *opError) Error() string {
	if e.cause == nil {
		return e.kind.Error() + ": " + e.op
	}
	return e.kind.Error() + ": " + e.op + ": " + e.cause.Error()
}

func (e *opError) Is(target error) bool {
	return target == e.kind
}

func (e *opError) Unwrap() error {
	return e.cause
}
