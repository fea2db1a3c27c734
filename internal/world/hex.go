// Package world provides the hex grid, terrain generation, fief placement
// and the travel graph between fiefs.
// Uses axial coordinates (q, r) for the hex grid; every land hex is one fief.
package world

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainPlains   Terrain = iota // Easy going, rich farmland
	TerrainForest                  // Slow to cross
	TerrainMountain                // Slowest passable terrain
	TerrainCoast                   // Land bordering the sea
	TerrainRiver                   // Fords and bridges
	TerrainMarsh                   // Boggy lowland
	TerrainMoor                    // Cold upland heath
	TerrainOcean                   // Impassable
)

// Hex represents a single tile on the world map.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`

	// Set during world generation.
	Elevation   float64 `json:"elevation"`   // 0.0 (sea level) to 1.0 (peak)
	Rainfall    float64 `json:"rainfall"`    // 0.0 (arid) to 1.0 (sodden)
	Temperature float64 `json:"temperature"` // 0.0 (frozen) to 1.0 (hot)
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// TravelCost returns the days needed to enter a hex of this terrain in a mild season.
// Ocean returns 0: it cannot be entered.
func TravelCost(t Terrain) float64 {
	switch t {
	case TerrainPlains:
		return 7
	case TerrainCoast, TerrainRiver:
		return 8
	case TerrainForest:
		return 10
	case TerrainMoor:
		return 12
	case TerrainMarsh:
		return 13
	case TerrainMountain:
		return 15
	default:
		return 0
	}
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountain:
		return "Mountain"
	case TerrainCoast:
		return "Coast"
	case TerrainRiver:
		return "River"
	case TerrainMarsh:
		return "Marsh"
	case TerrainMoor:
		return "Moor"
	case TerrainOcean:
		return "Ocean"
	default:
		return "Unknown"
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
