package world

import (
	"cmp"
	"slices"
)

// Map holds the generated hex grid. Only hexes within Radius exist.
type Map struct {
	Hexes  map[HexCoord]*Hex `json:"-"`
	Radius int               `json:"radius"`
}

// NewMap creates an empty map. A grid of radius R holds the hexes where
// max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{Hexes: make(map[HexCoord]*Hex), Radius: radius}
}

// Get returns the hex at coord, or nil off the map.
func (m *Map) Get(coord HexCoord) *Hex { return m.Hexes[coord] }

// Set stores hex at its coordinate.
func (m *Map) Set(hex *Hex) { m.Hexes[hex.Coord] = hex }

// InBounds reports whether coord lies within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return max(abs(coord.Q), abs(coord.R), abs(coord.S())) <= m.Radius
}

// IsLand reports whether a fief could stand at coord.
func (m *Map) IsLand(coord HexCoord) bool {
	h := m.Get(coord)
	return h != nil && h.Terrain != TerrainOcean
}

// HexCount returns the number of hexes on the map.
func (m *Map) HexCount() int { return len(m.Hexes) }

// Coords returns every coordinate in q, then r order.
func (m *Map) Coords() []HexCoord {
	out := make([]HexCoord, 0, len(m.Hexes))
	for c := range m.Hexes {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

// LargestLandMass returns the biggest connected land region in q, then r
// order. Ties go to the region found first in that order.
func (m *Map) LargestLandMass() []HexCoord {
	seen := make(map[HexCoord]bool)
	var best []HexCoord
	for _, start := range m.Coords() {
		if seen[start] || !m.IsLand(start) {
			continue
		}
		seen[start] = true
		region := []HexCoord{start}
		for i := 0; i < len(region); i++ {
			for _, n := range region[i].Neighbors() {
				if !seen[n] && m.IsLand(n) {
					seen[n] = true
					region = append(region, n)
				}
			}
		}
		if len(region) > len(best) {
			best = region
		}
	}
	sortCoords(best)
	return best
}

func sortCoords(cs []HexCoord) {
	slices.SortFunc(cs, func(a, b HexCoord) int {
		return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R))
	})
}
