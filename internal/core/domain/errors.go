package domain

import "errors"

var (
	ErrParticipantExists     = errors.New("participant already registered")
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrNotJoined             = errors.New("sender has not joined")
	ErrInvalidSegment        = errors.New("invalid segment")
	ErrIdentityMismatch      = errors.New("payload identity does not match sender")
	ErrRecipientNotConnected = errors.New("recipient not connected")
	ErrMalformedEvent        = errors.New("malformed event")
)
