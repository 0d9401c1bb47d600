package memory

import (
	"fmt"

	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/core/ports"
)

// MemoryParticipantRegistry keeps participants in registration order. It is
// not safe for concurrent use; the session hub goroutine is its only caller.
type MemoryParticipantRegistry struct {
	participants map[domain.ParticipantID]domain.Participant
	order        []domain.ParticipantID
}

func NewMemoryParticipantRegistry() ports.ParticipantRegistry {
	return &MemoryParticipantRegistry{
		participants: make(map[domain.ParticipantID]domain.Participant),
	}
}

func (r *MemoryParticipantRegistry) Register(id domain.ParticipantID, name, color string) (domain.Participant, error) {
	if _, exists := r.participants[id]; exists {
		return domain.Participant{}, fmt.Errorf("%w: %s", domain.ErrParticipantExists, id)
	}

	p := domain.Participant{ID: id, Name: name, Color: color}
	r.participants[id] = p
	r.order = append(r.order, id)
	return p, nil
}

// Update replaces display metadata and keeps the registration position.
func (r *MemoryParticipantRegistry) Update(id domain.ParticipantID, name, color string) (domain.Participant, error) {
	if _, exists := r.participants[id]; !exists {
		return domain.Participant{}, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, id)
	}

	p := domain.Participant{ID: id, Name: name, Color: color}
	r.participants[id] = p
	return p, nil
}

func (r *MemoryParticipantRegistry) Unregister(id domain.ParticipantID) {
	if _, exists := r.participants[id]; !exists {
		return
	}

	delete(r.participants, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemoryParticipantRegistry) Get(id domain.ParticipantID) (domain.Participant, bool) {
	p, exists := r.participants[id]
	return p, exists
}

func (r *MemoryParticipantRegistry) List() []domain.Participant {
	list := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.participants[id])
	}
	return list
}

func (r *MemoryParticipantRegistry) Len() int {
	return len(r.participants)
}
