package domain

import "errors"

// Domain errors
var (
	ErrPlayNotFound   = errors.New("play not found")
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidPlay    = errors.New("invalid play")
	ErrInvalidGameID  = errors.New("invalid bgg id")
	ErrDuplicateGame  = errors.New("game already in collection")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalError  = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayNotFound) ||
		errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrPlayerNotFound)
}
