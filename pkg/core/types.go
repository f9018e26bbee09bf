// pkg/core/types.go
package core

import "math"

// Position3D is a point in engine scene coordinates.
type Position3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns p offset by o.
func (p Position3D) Add(o Position3D) Position3D {
	return Position3D{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// DistanceXY is the ground-plane distance between two points.
func (p Position3D) DistanceXY(o Position3D) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Direction2D is a ground-plane facing.
type Direction2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Down is the probe direction used for ground checks.
var Down = Position3D{Z: -1}

// Side is the battle side a party or team fights on.
type Side int

const (
	SideNone Side = iota
	SideAttacker
	SideDefender
)

func (s Side) String() string {
	switch s {
	case SideAttacker:
		return "attacker"
	case SideDefender:
		return "defender"
	default:
		return "none"
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	switch s {
	case SideAttacker:
		return SideDefender
	case SideDefender:
		return SideAttacker
	default:
		return SideNone
	}
}

// MaxMorale is the engine's morale ceiling.
const MaxMorale = 100.0
