package memory

import (
	"canvasrelay/internal/core/domain"
	"canvasrelay/internal/core/ports"
)

// MemoryCanvasStore keeps an append-only segment log per participant.
// Logs are keyed by the identity passed in, never by the segment's own
// userId field. Like the registry, it is owned by a single goroutine.
type MemoryCanvasStore struct {
	canvases map[domain.ParticipantID][]domain.Segment
	segments int
}

func NewMemoryCanvasStore() ports.CanvasStore {
	return &MemoryCanvasStore{
		canvases: make(map[domain.ParticipantID][]domain.Segment),
	}
}

func (s *MemoryCanvasStore) Ensure(id domain.ParticipantID) {
	if _, exists := s.canvases[id]; !exists {
		s.canvases[id] = []domain.Segment{}
	}
}

func (s *MemoryCanvasStore) Append(id domain.ParticipantID, segment domain.Segment) {
	s.canvases[id] = append(s.canvases[id], segment.Clone())
	s.segments++
}

func (s *MemoryCanvasStore) Clear(id domain.ParticipantID) {
	log, exists := s.canvases[id]
	if !exists {
		return
	}
	s.segments -= len(log)
	s.canvases[id] = []domain.Segment{}
}

func (s *MemoryCanvasStore) Remove(id domain.ParticipantID) {
	log, exists := s.canvases[id]
	if !exists {
		return
	}
	s.segments -= len(log)
	delete(s.canvases, id)
}

func (s *MemoryCanvasStore) Segments(id domain.ParticipantID) ([]domain.Segment, bool) {
	log, exists := s.canvases[id]
	if !exists {
		return nil, false
	}
	return cloneLog(log), true
}

// Snapshot returns a deep copy of every canvas log.
func (s *MemoryCanvasStore) Snapshot() domain.CanvasSnapshot {
	snapshot := make(domain.CanvasSnapshot, len(s.canvases))
	for id, log := range s.canvases {
		snapshot[id] = cloneLog(log)
	}
	return snapshot
}

func (s *MemoryCanvasStore) Stats() (canvases, segments int) {
	return len(s.canvases), s.segments
}

func cloneLog(log []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, len(log))
	for i, segment := range log {
		out[i] = segment.Clone()
	}
	return out
}
