package ports

import (
	"context"
	"encoding/json"

	"canvasrelay/internal/core/domain"
)

// SessionRouter applies inbound events to session state and returns the
// messages that must be delivered as a result.
type SessionRouter interface {
	Handle(ctx context.Context, event domain.Event) ([]domain.Delivery, error)
	Stats() domain.SessionStats
}

// SignalingRelay addresses negotiation messages to a single recipient.
type SignalingRelay interface {
	Relay(kind domain.SignalKind, to, from domain.ParticipantID, payload json.RawMessage) (domain.Delivery, error)
}

// ConnectionDirectory answers whether a transport connection is live for an identity.
type ConnectionDirectory interface {
	IsConnected(id domain.ParticipantID) bool
}
