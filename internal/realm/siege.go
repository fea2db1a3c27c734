package realm

import (
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// RoundKind selects a siege action.
type RoundKind uint8

const (
	RoundReduction RoundKind = iota // Bombard and starve the defenders
	RoundStorm                      // Assault the walls
	RoundNegotiate                  // Offer terms
)

// String returns the round name.
func (k RoundKind) String() string {
	switch k {
	case RoundStorm:
		return "storm"
	case RoundNegotiate:
		return "negotiate"
	default:
		return "reduction"
	}
}

const (
	// RoundDays is the time one siege round takes.
	RoundDays = 10.0
	// MaxSiegeSeasons ends a siege that has dragged on too long.
	MaxSiegeSeasons = 8
)

// Siege is an army investing a fief.
type Siege struct {
	ID              ids.SiegeID `json:"id"`
	Fief            ids.FiefID  `json:"fief"`
	BesiegingArmy   ids.ArmyID  `json:"besieging_army"`
	BesiegingPlayer ids.CharID  `json:"besieging_player"`
	DefendingPlayer ids.CharID  `json:"defending_player"`
	Garrison        uint32      `json:"garrison"`
	KeepLevel       float64     `json:"keep_level"`
	Start           clock.Date  `json:"start"`
	Rounds          int         `json:"rounds"`
	Seasons         int         `json:"seasons"`
	AttackerLosses  uint32      `json:"attacker_losses"`
	DefenderLosses  uint32      `json:"defender_losses"`
}

// RoundInput carries the attacker and defender strengths for one round.
type RoundInput struct {
	AttackerTroops     uint32
	AttackerLeadership float64 // Leader's leadership value (storm variant for storms)
	AttackerStature    float64
	DefenderStature    float64
	DefenderLoyalty    float64 // Fief loyalty to its owner, 0–9
}

// RoundResult reports what a round did.
type RoundResult struct {
	Kind           RoundKind `json:"kind"`
	Captured       bool      `json:"captured"`
	AttackerLosses float64   `json:"attacker_losses"` // Fraction of the besieging army lost
	DefenderLosses uint32    `json:"defender_losses"`
	Chance         float64   `json:"chance"` // Success chance in percent, for storms and negotiation
}

func (s *Siege) defence() float64 {
	return float64(s.Garrison) * (1 + s.KeepLevel/2)
}

// Round resolves one siege round.
func (s *Siege) Round(kind RoundKind, in RoundInput, rng entropy.Source) RoundResult {
	s.Rounds++
	res := RoundResult{Kind: kind}
	attack := float64(in.AttackerTroops) * (1 + in.AttackerLeadership/10)

	switch kind {
	case RoundReduction:
		ratio := attack / math.Max(1, s.defence())
		losses := uint32(math.Ceil(float64(s.Garrison) * math.Min(0.3, 0.05*ratio)))
		s.Garrison -= min(losses, s.Garrison)
		s.KeepLevel = math.Max(0, s.KeepLevel-0.5)
		res.DefenderLosses = losses
		res.AttackerLosses = 0.01

	case RoundStorm:
		if s.Garrison == 0 {
			res.Chance = 100
		} else {
			res.Chance = math.Max(5, math.Min(95, 50*attack/math.Max(1, s.defence()*3)))
		}
		if entropy.Chance(rng, res.Chance) {
			res.Captured = true
			res.DefenderLosses = s.Garrison
			s.Garrison = 0
			res.AttackerLosses = 0.05
		} else {
			res.AttackerLosses = 0.15
			losses := uint32(float64(s.Garrison) * 0.05)
			s.Garrison -= losses
			res.DefenderLosses = losses
		}

	case RoundNegotiate:
		res.Chance = math.Max(0, math.Min(60, 10+(in.AttackerStature-in.DefenderStature)*10+(9-in.DefenderLoyalty)*3))
		if s.Garrison == 0 {
			res.Chance = 100
		}
		res.Captured = entropy.Chance(rng, res.Chance)
	}

	s.DefenderLosses += res.DefenderLosses
	return res
}

// UpdateSeason ages the siege. armyPresent is false when the besieging army
// has gone. Returns true when the siege should end without a decision.
func (s *Siege) UpdateSeason(armyPresent bool) bool {
	s.Seasons++
	return !armyPresent || s.Seasons >= MaxSiegeSeasons
}
