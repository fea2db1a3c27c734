// Realm generation using layered simplex noise.
// Generates elevation, rainfall and temperature layers, then derives terrain.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Radius      int     // Hex grid radius (6 gives 127 hexes)
	Seed        int64   // Random seed (0 = random)
	SeaLevel    float64 // Elevation threshold for ocean (0.0–1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0–1.0)
}

// DefaultGenConfig returns a realm of roughly eighty fiefs.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      6,
		Seed:        0,
		SeaLevel:    0.22,
		MountainLvl: 0.74,
	}
}

// SmallTestConfig returns a tiny realm for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:      3,
		Seed:        42,
		SeaLevel:    0.15,
		MountainLvl: 0.8,
	}
}

// Generate creates a map with terrain for every hex within the radius.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)

	m := NewMap(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.15, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.12, 0.5)
			temp := octaveNoise(tempNoise, x, y, 3, 0.1, 0.5)

			// Continental shaping: the rim of the map sinks into the sea.
			dist := math.Sqrt(x*x+y*y) / float64(cfg.Radius+1)
			falloff := 1.0 - math.Pow(dist, 4)
			if falloff < 0 {
				falloff = 0
			}
			elev *= falloff

			// North is colder, as is high ground.
			temp = temp*0.6 + (1.0-(y/float64(cfg.Radius)+1)/2)*0.3 + (1.0-elev)*0.1

			m.Set(&Hex{
				Coord:       coord,
				Terrain:     deriveTerrain(elev, rain, temp, cfg),
				Elevation:   elev,
				Rainfall:    rain,
				Temperature: temp,
			})
		}
	}

	markCoastalHexes(m)
	return m
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, rain, temp float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainOcean
	}
	if elev > cfg.MountainLvl {
		return TerrainMountain
	}
	if temp < 0.3 && elev > 0.5 {
		return TerrainMoor
	}
	if rain > 0.7 && elev < 0.4 {
		return TerrainMarsh
	}
	if rain > 0.55 && elev < 0.35 {
		return TerrainRiver
	}
	if rain > 0.45 && elev > 0.45 {
		return TerrainForest
	}
	return TerrainPlains
}

// markCoastalHexes converts low land hexes adjacent to ocean into coast.
func markCoastalHexes(m *Map) {
	var toMark []HexCoord

	for coord, hex := range m.Hexes {
		if hex.Terrain != TerrainPlains && hex.Terrain != TerrainForest {
			continue
		}
		if hex.Elevation >= 0.5 {
			continue
		}
		for _, neighbor := range coord.Neighbors() {
			nh := m.Get(neighbor)
			if nh != nil && nh.Terrain == TerrainOcean {
				toMark = append(toMark, coord)
				break
			}
		}
	}

	for _, coord := range toMark {
		m.Get(coord).Terrain = TerrainCoast
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}
