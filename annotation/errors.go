package annotation

import (
	"errors"
	"fmt"

	"github.com/s0up4200/flickpick/identity"
)

// Common errors
var (
	// ErrBackend indicates the annotation store could not be reached or refused the request
	ErrBackend = errors.New("annotation backend error")
	// ErrNoIdentity indicates a write was attempted with no signed-in user
	ErrNoIdentity = identity.ErrNoIdentity
	// ErrInvalidKind indicates an unknown annotation kind
	ErrInvalidKind = errors.New("invalid annotation kind")
	// ErrInvalidMovieID indicates a movie ID that is not positive
	ErrInvalidMovieID = errors.New("invalid movie id")
)

func backendError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
}
