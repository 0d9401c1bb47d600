package domain

import "encoding/json"

// Event is an inbound session event. The set of implementations is closed;
// consumers dispatch with a type switch.
type Event interface {
	Origin() ParticipantID
	isEvent()
}

type JoinEvent struct {
	Sender ParticipantID
	Name   string
	Color  string
}

type RequestConnectionsEvent struct {
	Sender ParticipantID
}

type RequestStateEvent struct {
	Sender ParticipantID
}

// DrawEvent carries the decoded segment and, when it came off the wire, the
// payload bytes as received.
type DrawEvent struct {
	Sender  ParticipantID
	Segment Segment
	Raw     json.RawMessage
}

// ClearCanvasEvent carries the identity named in the payload, which may be
// empty when the client omits it.
type ClearCanvasEvent struct {
	Sender ParticipantID
	Target ParticipantID
}

// DisconnectEvent is raised by the transport, never by a client message.
type DisconnectEvent struct {
	Sender ParticipantID
}

type SignalEvent struct {
	Sender  ParticipantID
	Kind    SignalKind
	To      ParticipantID
	Payload json.RawMessage
}

func (e JoinEvent) Origin() ParticipantID               { return e.Sender }
func (e RequestConnectionsEvent) Origin() ParticipantID { return e.Sender }
func (e RequestStateEvent) Origin() ParticipantID       { return e.Sender }
func (e DrawEvent) Origin() ParticipantID               { return e.Sender }
func (e ClearCanvasEvent) Origin() ParticipantID        { return e.Sender }
func (e DisconnectEvent) Origin() ParticipantID         { return e.Sender }
func (e SignalEvent) Origin() ParticipantID             { return e.Sender }

func (JoinEvent) isEvent()               {}
func (RequestConnectionsEvent) isEvent() {}
func (RequestStateEvent) isEvent()       {}
func (DrawEvent) isEvent()               {}
func (ClearCanvasEvent) isEvent()        {}
func (DisconnectEvent) isEvent()         {}
func (SignalEvent) isEvent()             {}
