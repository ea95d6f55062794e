package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound        = errors.New("player not found")
	ErrPlayerExists          = errors.New("player already exists")
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchAlreadyCompleted = errors.New("match already completed")
	ErrInvalidMode           = errors.New("invalid match mode")
	ErrInvalidCategory       = errors.New("invalid game category")
	ErrInvalidRoster         = errors.New("invalid team roster")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInternalError         = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrMatchNotFound)
}
