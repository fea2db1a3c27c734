package realm

import (
	"fmt"
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// Troop types, in order of quality.
const (
	TroopKnights = iota
	TroopMenAtArms
	TroopLightCavalry
	TroopLongbowmen
	TroopCrossbowmen
	TroopFoot
	TroopRabble
	NumTroopTypes
)

// TroopNames are display names for each troop type.
var TroopNames = [NumTroopTypes]string{
	"knights", "menAtArms", "lightCavalry", "longbowmen", "crossbowmen", "foot", "rabble",
}

// Troops counts soldiers by type.
type Troops [NumTroopTypes]uint32

// Total returns the number of soldiers.
func (t Troops) Total() uint32 {
	var n uint32
	for _, v := range t {
		n += v
	}
	return n
}

// Covers reports whether t has at least as many of every type as o.
func (t Troops) Covers(o Troops) bool {
	for i := range t {
		if t[i] < o[i] {
			return false
		}
	}
	return true
}

// Add returns t + o.
func (t Troops) Add(o Troops) Troops {
	for i := range t {
		t[i] += o[i]
	}
	return t
}

// Sub returns t - o. ok is false if o is not covered.
func (t Troops) Sub(o Troops) (Troops, bool) {
	if !t.Covers(o) {
		return t, false
	}
	for i := range t {
		t[i] -= o[i]
	}
	return t, true
}

// Scale returns t with every type multiplied by f, rounded down.
func (t Troops) Scale(f float64) Troops {
	for i := range t {
		t[i] = uint32(math.Floor(float64(t[i]) * f))
	}
	return t
}

// Default stances for a leaderless army.
const (
	DefaultAggression = 1
	DefaultCombatOdds = 4
)

// Army costs and rates.
const (
	MaintenancePerTroop = 10.0 // Per season
	RecruitCostPerTroop = 50.0
	attritionUnpaid     = 0.1
)

// Army is a body of troops owned by a player and optionally led by a character.
type Army struct {
	ID          ids.ArmyID `json:"id"`
	Owner       ids.CharID `json:"owner"`
	Leader      ids.CharID `json:"leader,omitempty"`
	Location    ids.FiefID `json:"location"`
	Nationality string     `json:"nationality"`
	Troops      Troops     `json:"troops"`
	Days        float64    `json:"days"`
	Aggression  uint8      `json:"aggression"`  // 0 avoid battle, 1 normal, 2 seek battle
	CombatOdds  uint8      `json:"combat_odds"` // Odds ratio below which it retreats
	Maintained  bool       `json:"maintained"`  // Paid for this season
}

// NewArmy creates an empty leaderless army.
func NewArmy(id ids.ArmyID, owner ids.CharID, location ids.FiefID, nationality string, days float64) *Army {
	return &Army{
		ID:          id,
		Owner:       owner,
		Location:    location,
		Nationality: nationality,
		Days:        days,
		Aggression:  DefaultAggression,
		CombatOdds:  DefaultCombatOdds,
	}
}

// TroopCount returns the number of soldiers.
func (a *Army) TroopCount() uint32 {
	return a.Troops.Total()
}

// AssignLeader sets the leader; the army moves at the leader's pace.
func (a *Army) AssignLeader(leader ids.CharID, days float64) {
	a.Leader = leader
	a.Days = days
}

// ClearLeader removes the leader and resets stances to their defaults.
func (a *Army) ClearLeader() {
	a.Leader = ""
	a.Aggression = DefaultAggression
	a.CombatOdds = DefaultCombatOdds
}

// SetCombatValues validates and applies stances.
func (a *Army) SetCombatValues(aggression, odds uint8) error {
	if aggression > 2 {
		return fmt.Errorf("aggression %d out of range 0–2", aggression)
	}
	if odds > 9 {
		return fmt.Errorf("combat odds %d out of range 0–9", odds)
	}
	a.Aggression = aggression
	a.CombatOdds = odds
	return nil
}

// MaintenanceCost returns the seasonal upkeep.
func (a *Army) MaintenanceCost() float64 {
	return float64(a.TroopCount()) * MaintenancePerTroop
}

// AddTroops merges troops into the army.
func (a *Army) AddTroops(t Troops) {
	a.Troops = a.Troops.Add(t)
}

// Detach splits troops off the army. ok is false if the army lacks them.
func (a *Army) Detach(t Troops) bool {
	rest, ok := a.Troops.Sub(t)
	if !ok || t.Total() == 0 {
		return false
	}
	a.Troops = rest
	return true
}

// TakeLosses removes a fraction of every troop type.
func (a *Army) TakeLosses(fraction float64) uint32 {
	before := a.TroopCount()
	a.Troops = a.Troops.Scale(1 - math.Max(0, math.Min(1, fraction)))
	return before - a.TroopCount()
}

// UpdateSeason applies attrition to unpaid armies and resets the season flags.
// Returns true when the army has no troops left and should be disbanded.
func (a *Army) UpdateSeason(days float64) bool {
	if !a.Maintained {
		a.TakeLosses(attritionUnpaid)
	}
	a.Maintained = false
	if a.Leader == "" {
		a.Days = days
	}
	return a.TroopCount() == 0
}
