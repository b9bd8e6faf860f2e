package session

import "errors"

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTokenNotFound       = errors.New("auth token not found")
	ErrTokenAlreadyExists  = errors.New("auth token already exists")
)
