package services

import "canvasrelay/internal/core/domain"

// Audience returns the identities of participants, in registration order,
// minus any excluded identity.
func Audience(participants []domain.Participant, exclude ...domain.ParticipantID) []domain.ParticipantID {
	audience := make([]domain.ParticipantID, 0, len(participants))
	for _, p := range participants {
		if excluded(p.ID, exclude) {
			continue
		}
		audience = append(audience, p.ID)
	}
	return audience
}

func excluded(id domain.ParticipantID, exclude []domain.ParticipantID) bool {
	for _, e := range exclude {
		if e == id {
			return true
		}
	}
	return false
}
