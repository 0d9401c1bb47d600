package signal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"canvasrelay/internal/core/domain"
	"canvasrelay/pkg/errors"
)

// SignalMessage is the websocket frame envelope in both directions.
type SignalMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound topics. Outbound topics are domain.MessageType values.
const (
	TopicJoin               = "join"
	TopicRequestConnections = "requestConnections"
	TopicRequestState       = "requestState"
	TopicDraw               = "draw"
	TopicClearCanvas        = "clearCanvas"
	TopicOffer              = "offer"
	TopicAnswer             = "answer"
	TopicICECandidate       = "ice-candidate"
)

// unknownTopic labels metrics for frames whose type is not recognised, which
// keeps label cardinality bounded.
const unknownTopic = "unknown"

type JoinPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RelayPayload is the inbound form of offer, answer and ice-candidate. Only
// the field matching the frame type is read.
type RelayPayload struct {
	To        domain.ParticipantID `json:"to"`
	Offer     json.RawMessage      `json:"offer,omitempty"`
	Answer    json.RawMessage      `json:"answer,omitempty"`
	Candidate json.RawMessage      `json:"candidate,omitempty"`
}

func (p RelayPayload) descriptor(kind domain.SignalKind) json.RawMessage {
	switch kind {
	case domain.SignalOffer:
		return p.Offer
	case domain.SignalAnswer:
		return p.Answer
	default:
		return p.Candidate
	}
}

// decodeEvent turns one text frame from sender into a session event. The
// returned topic is always usable as a metric label, even on error.
func decodeEvent(sender domain.ParticipantID, data []byte) (domain.Event, string, error) {
	var msg SignalMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, unknownTopic, malformed(err, "frame is not a JSON envelope")
	}

	switch msg.Type {
	case TopicJoin:
		var p JoinPayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, msg.Type, malformed(err, "invalid join payload")
		}
		return domain.JoinEvent{Sender: sender, Name: p.Name, Color: p.Color}, msg.Type, nil

	case TopicRequestConnections:
		return domain.RequestConnectionsEvent{Sender: sender}, msg.Type, nil

	case TopicRequestState:
		return domain.RequestStateEvent{Sender: sender}, msg.Type, nil

	case TopicDraw:
		var segment domain.Segment
		if err := unmarshalPayload(msg.Payload, &segment); err != nil {
			return nil, msg.Type, malformed(err, "invalid draw payload")
		}
		return domain.DrawEvent{Sender: sender, Segment: segment, Raw: msg.Payload}, msg.Type, nil

	case TopicClearCanvas:
		var target domain.ParticipantID
		if !isNull(msg.Payload) {
			if err := json.Unmarshal(msg.Payload, &target); err != nil {
				return nil, msg.Type, malformed(err, "clearCanvas payload must be a participant id")
			}
		}
		return domain.ClearCanvasEvent{Sender: sender, Target: target}, msg.Type, nil

	case TopicOffer, TopicAnswer, TopicICECandidate:
		kind := domain.SignalKind(msg.Type)
		var p RelayPayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, msg.Type, malformed(err, fmt.Sprintf("invalid %s payload", msg.Type))
		}
		return domain.SignalEvent{Sender: sender, Kind: kind, To: p.To, Payload: p.descriptor(kind)}, msg.Type, nil

	default:
		return nil, unknownTopic, malformed(nil, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// encodeMessage renders an outbound message as a frame.
func encodeMessage(m domain.OutboundMessage) ([]byte, error) {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", m.Type, err)
	}
	return json.Marshal(SignalMessage{Type: string(m.Type), Payload: payload})
}

func unmarshalPayload(raw json.RawMessage, v interface{}) error {
	if isNull(raw) {
		return fmt.Errorf("payload is required")
	}
	return json.Unmarshal(raw, v)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func malformed(cause error, message string) *errors.AppError {
	if cause == nil {
		return errors.InvalidInput(domain.ErrMalformedEvent, message)
	}
	return errors.InvalidInput(fmt.Errorf("%w: %v", domain.ErrMalformedEvent, cause), message)
}
