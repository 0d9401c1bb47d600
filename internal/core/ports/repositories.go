package ports

import "canvasrelay/internal/core/domain"

// ParticipantRegistry tracks the participants that have joined the session.
type ParticipantRegistry interface {
	Register(id domain.ParticipantID, name, color string) (domain.Participant, error)
	Update(id domain.ParticipantID, name, color string) (domain.Participant, error)
	Unregister(id domain.ParticipantID)
	Get(id domain.ParticipantID) (domain.Participant, bool)
	List() []domain.Participant
	Len() int
}

// CanvasStore holds one ordered segment log per participant.
type CanvasStore interface {
	Ensure(id domain.ParticipantID)
	Append(id domain.ParticipantID, segment domain.Segment)
	Clear(id domain.ParticipantID)
	Remove(id domain.ParticipantID)
	Segments(id domain.ParticipantID) ([]domain.Segment, bool)
	Snapshot() domain.CanvasSnapshot
	Stats() (canvases, segments int)
}
