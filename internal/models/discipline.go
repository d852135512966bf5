package models

import (
	"fmt"
	"strings"
)

// Discipline is the engineering category of a model; it selects the style
type Discipline int

const (
	Unknown Discipline = iota
	Architecture
	Structural
	HVAC
)

// classifyOrder is the priority of identifier markers; the first match wins
var classifyOrder = []struct {
	marker     string
	discipline Discipline
}{
	{"Arch", Architecture},
	{"CON", Structural},
	{"HVAC", HVAC},
}

// Classify infers the discipline from an identifier such as "NVW_DCR-LOD300_Eng-HVAC.ifc".
// Matching is case-sensitive.
func Classify(id string) Discipline {
	for _, c := range classifyOrder {
		if strings.Contains(id, c.marker) {
			return c.discipline
		}
	}
	return Unknown
}

// ParseDiscipline parses a configured discipline name.
// Both the empty string and "unknown" yield Unknown; callers that distinguish
// an unset name register with Register and an explicit one with RegisterAs.
func ParseDiscipline(s string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return Unknown, nil
	case "architecture", "arch":
		return Architecture, nil
	case "structural", "structure", "con":
		return Structural, nil
	case "hvac", "mep":
		return HVAC, nil
	default:
		return Unknown, fmt.Errorf("unknown discipline %q", s)
	}
}

func (d Discipline) String() string {
	switch d {
	case Architecture:
		return "architecture"
	case Structural:
		return "structural"
	case HVAC:
		return "hvac"
	default:
		return "unknown"
	}
}
