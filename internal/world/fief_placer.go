// Fief placement: turns land hexes into fiefs and groups them into
// provinces and kingdoms.
package world

import (
	"math/rand"
)

// FiefSeed holds the parameters for one generated fief.
type FiefSeed struct {
	Coord      HexCoord
	Terrain    Terrain
	Name       string
	Population uint32
	Province   int // Index into Layout.Provinces
}

// ProvinceSeed groups fiefs around a seat.
type ProvinceSeed struct {
	Name    string
	Seat    int // Index into Layout.Fiefs
	Kingdom int // Index into Layout.Kingdoms
}

// KingdomSeed is a top-level realm with its own language and nationality.
type KingdomSeed struct {
	Name        string
	Seat        int // Index into Layout.Provinces
	Language    string
	Nationality string
}

// Layout is the political geography derived from a map.
type Layout struct {
	Fiefs     []FiefSeed
	Provinces []ProvinceSeed
	Kingdoms  []KingdomSeed
}

// Cultures available to generated kingdoms, in order.
var Cultures = []struct{ Language, Nationality, Suffix string }{
	{"E1", "Eng", "England"},
	{"F1", "Fr", "Francia"},
	{"S1", "Sco", "Alba"},
}

// PlaceFiefs makes every hex of the largest land mass a fief and partitions
// them into provinces (about one per fiefsPerProvince) and kingdoms.
func PlaceFiefs(m *Map, seed int64, fiefsPerProvince, kingdoms int) Layout {
	rng := rand.New(rand.NewSource(seed + 200))
	if fiefsPerProvince < 1 {
		fiefsPerProvince = 1
	}
	if kingdoms < 1 {
		kingdoms = 1
	}
	if kingdoms > len(Cultures) {
		kingdoms = len(Cultures)
	}

	land := m.LargestLandMass()
	if len(land) == 0 {
		centre := HexCoord{}
		m.Set(&Hex{Coord: centre, Terrain: TerrainPlains, Elevation: 0.5, Rainfall: 0.5, Temperature: 0.5})
		land = []HexCoord{centre}
	}

	var layout Layout
	for _, coord := range land {
		hex := m.Get(coord)
		layout.Fiefs = append(layout.Fiefs, FiefSeed{
			Coord:      coord,
			Terrain:    hex.Terrain,
			Population: populationFor(hex.Terrain, rng),
		})
	}

	numProvinces := max(1, len(land)/fiefsPerProvince)
	seats := spreadSeats(land, numProvinces, rng)
	for _, seat := range seats {
		layout.Provinces = append(layout.Provinces, ProvinceSeed{Seat: seat})
	}
	for i := range layout.Fiefs {
		layout.Fiefs[i].Province = nearestSeat(layout.Fiefs[i].Coord, land, seats)
	}

	provinceCoords := make([]HexCoord, len(seats))
	for i, s := range seats {
		provinceCoords[i] = land[s]
	}
	kingdoms = min(kingdoms, len(seats))
	kSeats := spreadSeats(provinceCoords, kingdoms, rng)
	for i, seat := range kSeats {
		layout.Kingdoms = append(layout.Kingdoms, KingdomSeed{
			Name:        Cultures[i].Suffix,
			Seat:        seat,
			Language:    Cultures[i].Language,
			Nationality: Cultures[i].Nationality,
		})
	}
	for i := range layout.Provinces {
		layout.Provinces[i].Kingdom = nearestSeat(provinceCoords[i], provinceCoords, kSeats)
	}

	names := generateNames(rng, len(layout.Fiefs)+len(layout.Provinces))
	for i := range layout.Fiefs {
		layout.Fiefs[i].Name = names[i]
	}
	for i := range layout.Provinces {
		layout.Provinces[i].Name = names[len(layout.Fiefs)+i] + "shire"
	}
	return layout
}

// spreadSeats picks n indexes from coords that are far apart from each other.
func spreadSeats(coords []HexCoord, n int, rng *rand.Rand) []int {
	if n >= len(coords) {
		out := make([]int, len(coords))
		for i := range out {
			out[i] = i
		}
		return out
	}
	seats := []int{rng.Intn(len(coords))}
	for len(seats) < n {
		best, bestDist := -1, -1
		for i, c := range coords {
			d := 1 << 30
			for _, s := range seats {
				d = min(d, Distance(c, coords[s]))
			}
			if d > bestDist {
				best, bestDist = i, d
			}
		}
		seats = append(seats, best)
	}
	return seats
}

// nearestSeat returns the position in seats of the seat closest to c.
func nearestSeat(c HexCoord, coords []HexCoord, seats []int) int {
	best, bestDist := 0, 1<<30
	for i, s := range seats {
		if d := Distance(c, coords[s]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func populationFor(t Terrain, rng *rand.Rand) uint32 {
	switch t {
	case TerrainPlains, TerrainRiver:
		return 3000 + uint32(rng.Intn(4000))
	case TerrainCoast:
		return 2500 + uint32(rng.Intn(3000))
	case TerrainForest, TerrainMarsh:
		return 1200 + uint32(rng.Intn(1500))
	default:
		return 600 + uint32(rng.Intn(900))
	}
}

// generateNames produces procedural place names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Ash", "Black", "Brad", "Cald", "Chester", "Dun", "East", "Elm",
		"Faring", "Glou", "Hart", "Ips", "Kings", "Lang", "Mar", "North",
		"Oak", "Pen", "Ravens", "Salis", "Stan", "Thorn", "Wal", "West",
		"Whit", "Wor", "York", "Bever", "Can", "Dor",
	}
	suffixes := []string{
		"ford", "ham", "ton", "bury", "wick", "ley", "field", "by",
		"chester", "mouth", "stead", "worth", "thorpe", "well", "combe",
		"dale", "minster", "borough", "den", "hurst",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if used[name] {
			// Numbered fallback keeps large maps from looping.
			if len(used) >= len(prefixes)*len(suffixes) {
				name = name + " " + string(rune('A'+len(names)%26))
			} else {
				continue
			}
		}
		used[name] = true
		names = append(names, name)
	}

	return names
}
