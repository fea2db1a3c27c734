package engine

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// pick draws one element of s, or reports false when s is empty.
func pick[T any](t *rapid.T, s []T, label string) (T, bool) {
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	return s[rapid.IntRange(0, len(s)-1).Draw(t, label)], true
}

func living(g *Game) []*character.Character {
	var out []*character.Character
	for _, c := range g.Characters() {
		if c.Alive {
			out = append(out, c)
		}
	}
	return out
}

func sameFief(g *Game, p *character.Character) []*character.Character {
	var out []*character.Character
	for _, c := range living(g) {
		if c.Location == p.Location && c.ID != p.ID {
			out = append(out, c)
		}
	}
	return out
}

// TestRandomPlayKeepsInvariants drives a generated world with random player
// actions and season ticks, checking the cross-references after each step.
// Rule violations must come back as game errors, never as internal ones.
func TestRandomPlayKeepsInvariants(t *testing.T) {
	lay := testLayout(t)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64Range(1, 1<<40).Draw(rt, "seed")
		g, err := Build(Options{StartYear: testYear, Rng: entropy.NewSeeded(seed)}, Setup{
			Layout:         lay,
			Players:        testSeats(lay),
			NPCsPerFief:    1,
			ProvinceTaxPct: 5,
		})
		if err != nil {
			rt.Fatalf("Build: %v", err)
		}

		check := func(op string, err error) {
			if err != nil && gameerr.CodeOf(err) == gameerr.CodeInternal {
				rt.Fatalf("%s: internal error %v", op, err)
			}
		}
		player := func(rt *rapid.T) (*character.Character, bool) { return pick(rt, g.Players(), "player") }

		rt.Repeat(map[string]func(*rapid.T){
			"": func(rt *rapid.T) {
				if err := g.CheckInvariants(); err != nil {
					rt.Fatalf("invariants violated:\n%v", err)
				}
			},
			"travel": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				f, _ := pick(rt, g.Fiefs(), "dest")
				_, err := g.TravelTo(p, f.ID)
				check("travel", err)
			},
			"hire": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				d, ok := pick(rt, sameFief(g, p), "hiree")
				if !ok {
					return
				}
				check("hire", g.Hire(p, d, rapid.Float64Range(-100, 50000).Draw(rt, "offer")))
			},
			"fire": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				id, ok := pick(rt, p.Player.Dependents, "dependent")
				if !ok {
					return
				}
				check("fire", g.Fire(p, g.characters[id]))
			},
			"entourage": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				id, ok := pick(rt, p.Player.Dependents, "member")
				if !ok {
					return
				}
				d := g.characters[id]
				if rapid.Bool().Draw(rt, "join") {
					check("add to entourage", g.AddToEntourage(p, d))
				} else {
					check("remove from entourage", g.RemoveFromEntourage(p, d))
				}
			},
			"recruit": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				_, _, err := g.RecruitTroops(p, uint32(rapid.IntRange(0, 300).Draw(rt, "troops")))
				check("recruit", err)
			},
			"besiege": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				a, err := g.Army(p.Army)
				if err != nil {
					return
				}
				s, err := g.BesiegeFief(p, a)
				check("besiege", err)
				if err != nil {
					return
				}
				kind := realm.RoundKind(rapid.IntRange(0, 2).Draw(rt, "round"))
				_, err = g.SiegeRound(p, s, kind)
				check("siege round", err)
			},
			"kidnap": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				target, ok := pick(rt, sameFief(g, p), "target")
				if !ok {
					return
				}
				_, err := g.Kidnap(p, target)
				check("kidnap", err)
			},
			"ransom": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				id, ok := pick(rt, p.Player.Captives, "captive")
				if !ok {
					return
				}
				c := g.characters[id]
				switch rapid.IntRange(0, 2).Draw(rt, "fate") {
				case 0:
					check("release", g.ReleaseCaptive(p, c))
				case 1:
					check("execute", g.ExecuteCaptive(p, c))
				default:
					entry, err := g.RansomCaptive(p, c, rapid.Float64Range(1, 8000).Draw(rt, "ransom"))
					check("ransom", err)
					if err != nil {
						return
					}
					if payer := g.FamilyHead(c); payer != nil {
						check("pay ransom", g.PayRansom(payer, entry))
					}
				}
			},
			"child": func(rt *rapid.T) {
				p, ok := player(rt)
				if !ok {
					return
				}
				_, err := g.TryForChild(p)
				check("try for child", err)
			},
			"death": func(rt *rapid.T) {
				c, ok := pick(rt, living(g), "victim")
				if !ok {
					return
				}
				g.ProcessDeath(c, "misadventure")
			},
			"season": func(rt *rapid.T) {
				_, err := g.SeasonUpdate()
				if err != nil && !gameerr.HasCode(err, gameerr.CodeGameOver) {
					rt.Fatalf("SeasonUpdate: %v", err)
				}
			},
		})
	})
}
