// pkg/core/orders.go
package core

// OrderType is an order a commander issues to formations.
type OrderType int

const (
	OrderOther OrderType = iota
	OrderAdvance
	OrderHoldFire
	OrderMove
	OrderStandYourGround
	OrderFallBack
	OrderCharge
	OrderArrangementSchiltron
	OrderFireAtWill
)

// VoiceType is a vocal bark a unit can make.
type VoiceType int

const (
	VoiceGrunt VoiceType = iota
	VoiceYell
	VoiceAdvance
	VoiceHoldFire
	VoiceMove
	VoiceAffirmative
	VoiceIdle
	VoiceFallBack
	VoiceCharge
	VoiceFormShieldWall
	VoiceFireAtWill
)

var voiceNames = [...]string{
	VoiceGrunt:          "grunt",
	VoiceYell:           "yell",
	VoiceAdvance:        "advance",
	VoiceHoldFire:       "hold_fire",
	VoiceMove:           "move",
	VoiceAffirmative:    "affirmative",
	VoiceIdle:           "idle",
	VoiceFallBack:       "fall_back",
	VoiceCharge:         "charge",
	VoiceFormShieldWall: "form_shield_wall",
	VoiceFireAtWill:     "fire_at_will",
}

func (v VoiceType) String() string {
	if int(v) >= 0 && int(v) < len(voiceNames) {
		return voiceNames[v]
	}
	return "unknown"
}

// RemovalState is why a unit left the battle.
type RemovalState int

const (
	RemovalKilled RemovalState = iota
	RemovalUnconscious
	RemovalRouted
	RemovalDeleted
)

// Incapacitating reports whether the removal counts as the unit falling in
// combat.
func (s RemovalState) Incapacitating() bool {
	return s == RemovalKilled || s == RemovalUnconscious
}

func (s RemovalState) String() string {
	switch s {
	case RemovalKilled:
		return "killed"
	case RemovalUnconscious:
		return "unconscious"
	case RemovalRouted:
		return "routed"
	default:
		return "deleted"
	}
}
