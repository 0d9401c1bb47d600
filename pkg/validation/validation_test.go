package validation

import (
	"strings"
	"testing"
)

func TestValidateParticipantID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "5f0c8a3e-2d7b-4d6c-9f7e-1a2b3c4d5e6f", false},
		{"simple", "peer_1", false},
		{"empty", "", true},
		{"spaces", "peer 1", true},
		{"too long", strings.Repeat("a", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParticipantID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParticipantID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ascii", "Alice", false},
		{"unicode", "Zoë 🎨", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"max length", strings.Repeat("é", MaxDisplayNameLength), false},
		{"too long", strings.Repeat("a", MaxDisplayNameLength+1), true},
		{"invalid utf8", "bad\xffname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDisplayName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		color   string
		wantErr bool
	}{
		{"#FF0000", false},
		{"#abc", false},
		{"#1a2b3", false},
		{"red", false},
		{"rgb(255, 0, 0)", false},
		{"hsla(120, 50%, 50%, 0.3)", false},
		{"", true},
		{"#zzzzzz", true},
		{"url(javascript:alert(1))", true},
		{"#" + strings.Repeat("f", 40), true},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			err := ValidateColor(tt.color)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.color, err, tt.wantErr)
			}
		})
	}
}

func TestValidateICEServerURL(t *testing.T) {
	valid := []string{"stun:stun.l.google.com:19302", "turn:turn.example.com:3478?transport=udp", "turns:t.example.com"}
	for _, u := range valid {
		if err := ValidateICEServerURL(u); err != nil {
			t.Errorf("expected %q to be valid, got %v", u, err)
		}
	}

	invalid := []string{"", "http://example.com", "stun:"}
	for _, u := range invalid {
		if err := ValidateICEServerURL(u); err == nil {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}
