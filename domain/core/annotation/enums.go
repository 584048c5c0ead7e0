package annotation

import (
	"fmt"
	"strings"
)

// NoteType classifies a note. The values are a closed enumeration stored
// upper-case on the wire.
type NoteType string

const (
	NoteTypeGeneral    NoteType = "GENERAL"
	NoteTypeQuestion   NoteType = "QUESTION"
	NoteTypeInsight    NoteType = "INSIGHT"
	NoteTypeCrossRef   NoteType = "CROSS_REF"
	NoteTypePrayer     NoteType = "PRAYER"
	NoteTypeCommentary NoteType = "COMMENTARY"
)

// ParseNoteType normalizes and validates a note type. An empty input
// defaults to GENERAL.
func ParseNoteType(s string) (NoteType, error) {
	if s == "" {
		return NoteTypeGeneral, nil
	}
	t := NoteType(strings.ToUpper(s))
	switch t {
	case NoteTypeGeneral, NoteTypeQuestion, NoteTypeInsight,
		NoteTypeCrossRef, NoteTypePrayer, NoteTypeCommentary:
		return t, nil
	default:
		return "", fmt.Errorf("invalid note type: %q", s)
	}
}

// Color is a highlight color. The values are a closed enumeration stored
// upper-case on the wire; YELLOW is the default.
type Color string

const (
	ColorYellow Color = "YELLOW"
	ColorBlue   Color = "BLUE"
	ColorGreen  Color = "GREEN"
	ColorPink   Color = "PINK"
	ColorOrange Color = "ORANGE"
	ColorPurple Color = "PURPLE"
	ColorRed    Color = "RED"
)

// ParseColor normalizes and validates a highlight color. An empty input
// defaults to YELLOW.
func ParseColor(s string) (Color, error) {
	if s == "" {
		return ColorYellow, nil
	}
	c := Color(strings.ToUpper(s))
	switch c {
	case ColorYellow, ColorBlue, ColorGreen, ColorPink,
		ColorOrange, ColorPurple, ColorRed:
		return c, nil
	default:
		return "", fmt.Errorf("invalid highlight color: %q", s)
	}
}

// CSS returns the background color value used when decorating markup
// server-side. Unknown colors fall back to yellow.
func (c Color) CSS() string {
	switch c {
	case ColorBlue:
		return "#bfdbfe"
	case ColorGreen:
		return "#bbf7d0"
	case ColorPink:
		return "#fce7f3"
	case ColorOrange:
		return "#fed7aa"
	case ColorPurple:
		return "#e9d5ff"
	case ColorRed:
		return "#fecaca"
	default:
		return "#fef08a"
	}
}

// ClassSuffix returns the lower-case form used in marker element class
// names.
func (c Color) ClassSuffix() string {
	return strings.ToLower(string(c))
}
