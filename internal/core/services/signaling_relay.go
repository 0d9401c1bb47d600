package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/core/ports"
	"canvasrelay/pkg/errors"
	"canvasrelay/pkg/validation"
)

type signalingRelay struct {
	directory ports.ConnectionDirectory
}

// NewSignalingRelay builds a relay that only addresses identities the
// directory reports as connected.
func NewSignalingRelay(directory ports.ConnectionDirectory) ports.SignalingRelay {
	return &signalingRelay{directory: directory}
}

func (r *signalingRelay) Relay(kind domain.SignalKind, to, from domain.ParticipantID, payload json.RawMessage) (domain.Delivery, error) {
	if !kind.Valid() {
		return domain.Delivery{}, errors.InvalidInput(domain.ErrMalformedEvent, fmt.Sprintf("unknown signal kind %q", kind))
	}
	if err := validation.ValidateParticipantID(string(to)); err != nil {
		return domain.Delivery{}, errors.InvalidInput(domain.ErrMalformedEvent, fmt.Sprintf("signal recipient: %v", err))
	}
	if to == from {
		return domain.Delivery{}, errors.InvalidInput(domain.ErrMalformedEvent, "signal addressed to sender")
	}
	if len(payload) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return domain.Delivery{}, errors.InvalidInput(domain.ErrMalformedEvent, fmt.Sprintf("%s payload is required", kind.Field()))
	}
	if !r.directory.IsConnected(to) {
		return domain.Delivery{}, errors.NotFound(domain.ErrRecipientNotConnected, "signal recipient").
			WithContext("to", to)
	}

	return domain.Delivery{
		To: []domain.ParticipantID{to},
		Message: domain.OutboundMessage{
			Type: domain.MessageType(kind),
			Payload: domain.SignalPayload{
				Kind:       kind,
				From:       from,
				Descriptor: payload,
			},
		},
	}, nil
}
