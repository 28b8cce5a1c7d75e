package command

import "errors"

// Sentinel errors for command validation. Every check fails fast before any
// op file is written, so a failed command never leaves a partial op behind.
var (
	// ErrNotFound indicates the target entity id is absent from replayed state.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied indicates the acting actor lacks the editor role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyExists indicates a duplicate membership add.
	ErrAlreadyExists = errors.New("already exists")
	// ErrCrossBoardMove indicates a card move targeting a list on a different board.
	ErrCrossBoardMove = errors.New("cross-board move not supported")
	// ErrInvalidArgument indicates a bad position, role, or empty required field.
	ErrInvalidArgument = errors.New("invalid argument")
)
