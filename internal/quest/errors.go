package quest

import "errors"

var (
	// ErrNotFound signals an unknown team, point, or question.
	ErrNotFound = errors.New("not found")

	// ErrValidation signals user-correctable input: the caller should prompt a retry.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicate signals a business-rule conflict: taken team name,
	// already-completed point, already-claimed prize.
	ErrDuplicate = errors.New("already exists")

	// ErrGameInactive signals that the game-active gate rejected the action.
	ErrGameInactive = errors.New("game is not active")
)
