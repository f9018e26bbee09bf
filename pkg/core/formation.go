// pkg/core/formation.go
package core

import "strings"

// FormationClass is the tactical category of a formation.
type FormationClass int

const (
	FormationUnknown FormationClass = iota
	FormationInfantry
	FormationRanged
	FormationCavalry
	FormationHorseArcher
	FormationSkirmisher
	FormationHeavyInfantry
	FormationLightCavalry
	FormationHeavyCavalry
)

var formationNames = map[FormationClass]string{
	FormationUnknown:       "unknown",
	FormationInfantry:      "infantry",
	FormationRanged:        "ranged",
	FormationCavalry:       "cavalry",
	FormationHorseArcher:   "horse_archer",
	FormationSkirmisher:    "skirmisher",
	FormationHeavyInfantry: "heavy_infantry",
	FormationLightCavalry:  "light_cavalry",
	FormationHeavyCavalry:  "heavy_cavalry",
}

func (c FormationClass) String() string {
	if s, ok := formationNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseFormationClass maps a name back to its class. Unrecognised names map to
// FormationUnknown.
func ParseFormationClass(s string) FormationClass {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range formationNames {
		if name == s {
			return c
		}
	}
	return FormationUnknown
}
