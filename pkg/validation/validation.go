package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxDisplayNameLength   = 64
	MaxColorLength         = 32
	MaxParticipantIDLength = 100
)

var (
	// ParticipantIDRegex validates participant ID format
	ParticipantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	hexColorRegex   = regexp.MustCompile(`^#[0-9a-fA-F]{1,8}$`)
	namedColorRegex = regexp.MustCompile(`^[a-zA-Z]+$`)
	funcColorRegex  = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\)$`)
)

// ValidateParticipantID validates participant ID
func ValidateParticipantID(id string) error {
	if id == "" {
		return fmt.Errorf("participant ID is required")
	}
	if len(id) > MaxParticipantIDLength {
		return fmt.Errorf("participant ID is too long (max %d characters)", MaxParticipantIDLength)
	}
	if !ParticipantIDRegex.MatchString(id) {
		return fmt.Errorf("invalid participant ID format")
	}
	return nil
}

// ValidateDisplayName validates a participant-supplied display name
func ValidateDisplayName(name string) error {
	if err := ValidateNonEmptyString(name, "name"); err != nil {
		return err
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name contains invalid characters")
	}
	return ValidateStringLength(name, 1, MaxDisplayNameLength, "name")
}

// ValidateColor accepts hex (#rgb .. #rrggbbaa), named and rgb()/hsl() colors.
func ValidateColor(color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		return fmt.Errorf("color is required")
	}
	if len(color) > MaxColorLength {
		return fmt.Errorf("color is too long (max %d characters)", MaxColorLength)
	}
	if hexColorRegex.MatchString(color) || namedColorRegex.MatchString(color) || funcColorRegex.MatchString(color) {
		return nil
	}
	return fmt.Errorf("invalid color format")
}

// ValidateICEServerURL validates a STUN/TURN server URL
func ValidateICEServerURL(url string) error {
	if url == "" {
		return fmt.Errorf("ICE server URL is required")
	}
	for _, scheme := range []string{"stun:", "stuns:", "turn:", "turns:"} {
		if strings.HasPrefix(url, scheme) && len(url) > len(scheme) {
			return nil
		}
	}
	return fmt.Errorf("invalid ICE server URL scheme (must be stun, stuns, turn, or turns)")
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
