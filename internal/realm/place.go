package realm

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// PlaceKind tags the level of a titled place.
type PlaceKind uint8

const (
	PlaceFief PlaceKind = iota
	PlaceProvince
	PlaceKingdom
)

// String returns the place kind name.
func (k PlaceKind) String() string {
	switch k {
	case PlaceProvince:
		return "province"
	case PlaceKingdom:
		return "kingdom"
	default:
		return "fief"
	}
}

// Rank is the title that goes with holding a place.
type Rank struct {
	Title   string  `json:"title"`
	Stature float64 `json:"stature"`
}

// Ranks maps each place kind to its title.
var Ranks = map[PlaceKind]Rank{
	PlaceFief:     {Title: "Baron", Stature: 2},
	PlaceProvince: {Title: "Earl", Stature: 4},
	PlaceKingdom:  {Title: "King", Stature: 6},
}

// Province groups fiefs under an earl.
type Province struct {
	ID          ids.ProvinceID `json:"id"`
	Name        string         `json:"name"`
	Kingdom     ids.KingdomID  `json:"kingdom"`
	Owner       ids.CharID     `json:"owner,omitempty"`
	TitleHolder ids.CharID     `json:"title_holder,omitempty"`
	TaxRate     float64        `json:"tax_rate"` // Percent of fief income paid to the owner
}

// Kingdom is the top of the feudal hierarchy. Its owner is the sovereign.
type Kingdom struct {
	ID          ids.KingdomID `json:"id"`
	Name        string        `json:"name"`
	Owner       ids.CharID    `json:"owner,omitempty"`
	TitleHolder ids.CharID    `json:"title_holder,omitempty"`
	Language    string        `json:"language"`
	Nationality string        `json:"nationality"`
}

// ChallengeSeasons is how many consecutive qualifying seasons transfer ownership.
const ChallengeSeasons = 4

// OwnershipChallenge is a claim by a player on a province or kingdom.
type OwnershipChallenge struct {
	ID         ids.ChallengeID `json:"id"`
	Challenger ids.CharID      `json:"challenger"`
	Place      string          `json:"place"`
	Kind       PlaceKind       `json:"kind"`
	Seasons    int             `json:"seasons"` // Consecutive seasons the claim has held
}

// Advance records one more qualifying season. Returns true once the threshold is met.
func (c *OwnershipChallenge) Advance() bool {
	c.Seasons++
	return c.Seasons >= ChallengeSeasons
}
