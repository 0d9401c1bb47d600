package domain

type ParticipantID string

type Participant struct {
	ID    ParticipantID `json:"id"`
	Name  string        `json:"name"`
	Color string        `json:"color"`
}

type SessionStats struct {
	Participants int `json:"participants"`
	Canvases     int `json:"canvases"`
	Segments     int `json:"segments"`
	Connections  int `json:"connections"`
}
