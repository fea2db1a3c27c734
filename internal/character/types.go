// Package character provides the person record shared by players and
// dependents, the trait and ailment model, and the rating calculus.
package character

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// Sex of a character. Affects stature, death rates and inheritance.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// RoleKind tags which role a character currently plays.
type RoleKind uint8

const (
	RoleDependent RoleKind = iota
	RolePlayer
)

// String returns the role name.
func (k RoleKind) String() string {
	if k == RolePlayer {
		return "player"
	}
	return "dependent"
}

// Character is the common record for every person in the realm.
// Exactly one of Player or Dependent is set, matching Kind.
type Character struct {
	ID          ids.CharID `json:"id"`
	FirstName   string     `json:"first_name"`
	FamilyName  string     `json:"family_name"`
	Sex         Sex        `json:"sex"`
	Birth       clock.Date `json:"birth"`
	Nationality string     `json:"nationality"`
	Language    string     `json:"language"`
	Alive       bool       `json:"alive"`

	// Base ratings (1–9 scale).
	MaxHealth       float64 `json:"max_health"`
	Virility        float64 `json:"virility"`
	Combat          float64 `json:"combat"`
	Management      float64 `json:"management"`
	StatureModifier float64 `json:"stature_modifier"` // Earned or lost through deeds

	Days     float64      `json:"days"` // Remaining this season
	Location ids.FiefID   `json:"location"`
	InKeep   bool         `json:"in_keep"`
	Route    []ids.FiefID `json:"route,omitempty"` // Remaining legs of a journey

	Traits   []TraitLevel        `json:"traits"`
	Ailments map[string]*Ailment `json:"ailments,omitempty"`
	Titles   []string            `json:"titles,omitempty"` // Place IDs (fief, province or kingdom)
	Army     ids.ArmyID          `json:"army,omitempty"`   // Army this character leads

	// Family
	FamilyID ids.CharID `json:"family_id,omitempty"` // Lineage key, fixed across successions
	Spouse   ids.CharID `json:"spouse,omitempty"`
	Father   ids.CharID `json:"father,omitempty"`
	Mother   ids.CharID `json:"mother,omitempty"`
	Fiance   ids.CharID `json:"fiance,omitempty"`
	Pregnant bool       `json:"pregnant"`

	// Captivity
	Captor      ids.CharID  `json:"captor,omitempty"`
	RansomEntry ids.EntryID `json:"ransom_entry,omitempty"`

	Kind      RoleKind       `json:"kind"`
	Player    *PlayerRole    `json:"player,omitempty"`
	Dependent *DependentRole `json:"dependent,omitempty"`
}

// PlayerRole holds what a human-bound character owns and commands.
type PlayerRole struct {
	PlayerID      string     `json:"player_id,omitempty"` // Human login bound to this character
	Purse         float64    `json:"purse"`
	HomeFief      ids.FiefID `json:"home_fief,omitempty"`
	AncestralHome ids.FiefID `json:"ancestral_home,omitempty"`
	Outlawed      bool       `json:"outlawed"`

	Fiefs      []ids.FiefID     `json:"fiefs,omitempty"`
	Provinces  []ids.ProvinceID `json:"provinces,omitempty"`
	Kingdoms   []ids.KingdomID  `json:"kingdoms,omitempty"`
	Armies     []ids.ArmyID     `json:"armies,omitempty"`
	Sieges     []ids.SiegeID    `json:"sieges,omitempty"`
	Dependents []ids.CharID     `json:"dependents,omitempty"` // Employees and family
	Entourage  []ids.CharID     `json:"entourage,omitempty"`
	Captives   []ids.CharID     `json:"captives,omitempty"`
}

// DependentRole holds the employment state of a non-player character.
type DependentRole struct {
	Employer    ids.CharID             `json:"employer,omitempty"`
	Salary      float64                `json:"salary"`
	InEntourage bool                   `json:"in_entourage"`
	IsHeir      bool                   `json:"is_heir"`
	LastOffers  map[ids.CharID]float64 `json:"last_offers,omitempty"` // Hirer → most recent bid
}

// FullName returns "First Family".
func (c *Character) FullName() string {
	if c.FamilyName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.FamilyName
}

// IsPlayer reports whether the character holds the player role.
func (c *Character) IsPlayer() bool {
	return c.Kind == RolePlayer && c.Player != nil
}

// IsDependent reports whether the character holds the dependent role.
func (c *Character) IsDependent() bool {
	return c.Kind == RoleDependent && c.Dependent != nil
}

// IsCaptive reports whether someone is holding the character.
func (c *Character) IsCaptive() bool {
	return c.Captor != ""
}

// IsFemale is shorthand used by the rating and family rules.
func (c *Character) IsFemale() bool {
	return c.Sex == SexFemale
}

// Employer returns the dependent's employer, or "" for players and unemployed.
func (c *Character) Employer() ids.CharID {
	if c.IsDependent() {
		return c.Dependent.Employer
	}
	return ""
}

// IsHeir reports whether this dependent is flagged as heir.
func (c *Character) IsHeir() bool {
	return c.IsDependent() && c.Dependent.IsHeir
}

// HasFamily reports whether the character belongs to a player's family.
func (c *Character) HasFamily() bool {
	return c.FamilyID != ""
}

// Age returns the character's age at now.
func (c *Character) Age(now clock.Date) int {
	return clock.AgeAt(c.Birth, now)
}

// AddTitle records a held title.
func (c *Character) AddTitle(place string) {
	c.Titles = ids.Add(c.Titles, place)
}

// RemoveTitle drops a held title.
func (c *Character) RemoveTitle(place string) {
	c.Titles = ids.Remove(c.Titles, place)
}

// PromoteToPlayer swaps the dependent role for a player role, keeping the ID.
func (c *Character) PromoteToPlayer(role *PlayerRole) {
	c.Kind = RolePlayer
	c.Player = role
	c.Dependent = nil
}

// NewDependentRole returns an unemployed dependent role.
func NewDependentRole() *DependentRole {
	return &DependentRole{LastOffers: make(map[ids.CharID]float64)}
}
