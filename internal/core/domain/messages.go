package domain

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	MessageConnected           MessageType = "connected"
	MessageCurrentUsers        MessageType = "currentUsers"
	MessageCurrentState        MessageType = "currentState"
	MessageUserJoined          MessageType = "userJoined"
	MessageUserJoinedWithVideo MessageType = "userJoinedWithVideo"
	MessageUserLeft            MessageType = "userLeft"
	MessageDraw                MessageType = "draw"
	MessageClearCanvas         MessageType = "clearCanvas"
	MessageOffer               MessageType = "offer"
	MessageAnswer              MessageType = "answer"
	MessageICECandidate        MessageType = "ice-candidate"
)

// SignalKind names a peer-connection negotiation step. The relay forwards
// each kind under the same name it arrived with.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return true
	}
	return false
}

// Field is the payload key that carries the negotiation descriptor.
func (k SignalKind) Field() string {
	if k == SignalICECandidate {
		return "candidate"
	}
	return string(k)
}

type OutboundMessage struct {
	Type    MessageType
	Payload interface{}
}

// Delivery addresses one outbound message to a set of participants.
type Delivery struct {
	To      []ParticipantID
	Message OutboundMessage
}

// SignalPayload is the relayed form of a negotiation message:
// {"from": <sender>, <kind field>: <descriptor>}.
type SignalPayload struct {
	Kind       SignalKind
	From       ParticipantID
	Descriptor json.RawMessage
}

func (p SignalPayload) MarshalJSON() ([]byte, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("unknown signal kind %q", p.Kind)
	}
	return json.Marshal(map[string]interface{}{
		"from":         p.From,
		p.Kind.Field(): p.Descriptor,
	})
}
