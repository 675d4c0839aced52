package service

import "errors"

var (
	// ErrRoomNotFound is returned for unknown room codes and for rooms whose
	// session has already terminated.
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidMode is returned when room creation names an unknown mode.
	ErrInvalidMode = errors.New("invalid game mode")
	// ErrSubjectMissing is returned when a game is started without a subject.
	ErrSubjectMissing = errors.New("pick a subject before starting")
	// ErrNotHost is returned when a non-host invokes a host-only action.
	ErrNotHost = errors.New("only the host can do that")
	// ErrCodeExhausted is internal: code generation kept colliding.
	ErrCodeExhausted = errors.New("could not generate a unique room code")
)
