package sim

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Wall is static scene geometry: a ground footprint extruded from Base up to
// Top.
type Wall struct {
	Name      string
	Footprint geom.Geometry
	Base      float64
	Top       float64
}

// AddWall registers scene geometry from a WKT footprint.
func (m *Mission) AddWall(name, footprintWKT string, base, top float64) error {
	g, err := geom.UnmarshalWKT(footprintWKT)
	if err != nil {
		return fmt.Errorf("parsing footprint of %s: %w", name, err)
	}
	m.walls = append(m.walls, Wall{Name: name, Footprint: g, Base: base, Top: top})
	return nil
}

// Probe casts a ray from origin along dir and returns every wall it passes
// through within maxDistance.
func (m *Mission) Probe(origin, dir core.Position3D, maxDistance float64) ([]host.Geometry, error) {
	norm := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y + dir.Z*dir.Z)
	if norm == 0 {
		return nil, fmt.Errorf("zero direction: %w", host.ErrProbeFailed)
	}
	if maxDistance <= 0 {
		return nil, nil
	}
	end := core.Position3D{
		X: origin.X + dir.X/norm*maxDistance,
		Y: origin.Y + dir.Y/norm*maxDistance,
		Z: origin.Z + dir.Z/norm*maxDistance,
	}

	ray, err := rayFootprint(origin, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", host.ErrProbeFailed, err)
	}
	lowZ, highZ := math.Min(origin.Z, end.Z), math.Max(origin.Z, end.Z)

	var hits []host.Geometry
	for _, w := range m.walls {
		if w.Top < lowZ || w.Base > highZ {
			continue
		}
		if !geom.Intersects(ray, w.Footprint) {
			continue
		}
		hits = append(hits, host.Geometry{
			Name:     w.Name,
			Position: core.Position3D{X: origin.X, Y: origin.Y, Z: math.Min(w.Top, origin.Z)},
		})
	}
	return hits, nil
}

// rayFootprint is the ground-plane shadow of the segment from a to b.
func rayFootprint(a, b core.Position3D) (geom.Geometry, error) {
	if a.X == b.X && a.Y == b.Y {
		pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: a.X, Y: a.Y}})
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("ray point: %w", err)
		}
		return pt.AsGeometry(), nil
	}
	seq := geom.NewSequence([]float64{a.X, a.Y, b.X, b.Y}, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("ray line: %w", err)
	}
	return ls.AsGeometry(), nil
}
