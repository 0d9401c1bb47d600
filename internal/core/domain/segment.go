package domain

import (
	"fmt"
	"math"
)

type SegmentKind string

const (
	SegmentLine   SegmentKind = "line"
	SegmentPreset SegmentKind = "preset"
)

// MaxSegmentPoints bounds a single drawing operation.
const MaxSegmentPoints = 10000

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is one atomic drawing operation. Segments are appended to a canvas
// and never edited in place.
type Segment struct {
	Type   SegmentKind   `json:"type"`
	Points []Point       `json:"points"`
	Color  string        `json:"color"`
	Size   float64       `json:"size"`
	StartX float64       `json:"startX"`
	StartY float64       `json:"startY"`
	UserID ParticipantID `json:"userId"`
}

type CanvasSnapshot map[ParticipantID][]Segment

func (s Segment) Validate() error {
	switch s.Type {
	case SegmentLine, SegmentPreset:
	case "":
		return fmt.Errorf("%w: segment type is required", ErrInvalidSegment)
	default:
		return fmt.Errorf("%w: unknown segment type %q", ErrInvalidSegment, s.Type)
	}

	if len(s.Points) == 0 {
		return fmt.Errorf("%w: at least one point is required", ErrInvalidSegment)
	}
	if len(s.Points) > MaxSegmentPoints {
		return fmt.Errorf("%w: too many points (max %d)", ErrInvalidSegment, MaxSegmentPoints)
	}
	for i, p := range s.Points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: point %d is not finite", ErrInvalidSegment, i)
		}
	}

	if s.Color == "" {
		return fmt.Errorf("%w: color is required", ErrInvalidSegment)
	}
	if !finite(s.Size) || s.Size < 0 {
		return fmt.Errorf("%w: size must be a non-negative number", ErrInvalidSegment)
	}
	if !finite(s.StartX) || !finite(s.StartY) {
		return fmt.Errorf("%w: start coordinate is not finite", ErrInvalidSegment)
	}
	return nil
}

// Clone returns a copy that shares no backing memory with s.
func (s Segment) Clone() Segment {
	points := make([]Point, len(s.Points))
	copy(points, s.Points)
	s.Points = points
	return s
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
