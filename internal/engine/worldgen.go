package engine

import (
	"fmt"
	"log/slog"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

// PlayerSeed is a human who starts the game with a noble house.
type PlayerSeed struct {
	User      string
	FirstName string // Optional; a generated name is used when empty
}

// Setup describes a fresh world.
type Setup struct {
	Layout         world.Layout
	Players        []PlayerSeed
	NPCsPerFief    int     // Unattached dependents seeded in each fief
	ProvinceTaxPct float64 // Overlord tax on fief income
}

// Build creates a new game from a generated layout. Each player is given a
// province (in layout order) with all its fiefs; the first player seated in
// a kingdom is also its sovereign. Every house starts with a wife, sons and
// a younger brother, all sons of a late patriarch.
func Build(opts Options, s Setup) (*Game, error) {
	g := NewGame(opts)
	lay := s.Layout
	if len(lay.Fiefs) == 0 || len(lay.Provinces) == 0 || len(lay.Kingdoms) == 0 {
		return nil, fmt.Errorf("layout has no land")
	}
	if len(s.Players) > len(lay.Provinces) {
		return nil, fmt.Errorf("%d players but only %d provinces", len(s.Players), len(lay.Provinces))
	}

	kingdoms := make([]*realm.Kingdom, len(lay.Kingdoms))
	for i, ks := range lay.Kingdoms {
		k := &realm.Kingdom{
			ID:          g.ids.NextKingdom(),
			Name:        ks.Name,
			Language:    ks.Language,
			Nationality: ks.Nationality,
		}
		g.kingdoms[k.ID] = k
		kingdoms[i] = k
	}
	provinces := make([]*realm.Province, len(lay.Provinces))
	for i, ps := range lay.Provinces {
		p := &realm.Province{
			ID:      g.ids.NextProvince(),
			Name:    ps.Name,
			Kingdom: kingdoms[ps.Kingdom].ID,
			TaxRate: s.ProvinceTaxPct,
		}
		g.provinces[p.ID] = p
		provinces[i] = p
	}
	fiefs := make([]*realm.Fief, len(lay.Fiefs))
	byProvince := make([][]*realm.Fief, len(provinces))
	nodes := make([]world.Node, len(lay.Fiefs))
	for i, fs := range lay.Fiefs {
		k := kingdoms[lay.Provinces[fs.Province].Kingdom]
		f := realm.NewFief(g.ids.NextFief(), fs.Name, provinces[fs.Province].ID, fs.Coord, fs.Terrain, k.Language, fs.Population)
		g.fiefs[f.ID] = f
		fiefs[i] = f
		byProvince[fs.Province] = append(byProvince[fs.Province], f)
		nodes[i] = world.Node{Fief: f.ID, Coord: f.Coord, Terrain: f.Terrain}
	}
	g.graph = world.NewGraph(nodes)

	for i, seed := range s.Players {
		prov := provinces[i]
		seat := fiefs[lay.Provinces[i].Seat]
		if seat.Province != prov.ID {
			seat = byProvince[i][0]
		}
		k := g.kingdoms[prov.Kingdom]
		p := g.spawner.SpawnPlayer(character.Origin{
			Location:    seat.ID,
			Language:    k.Language,
			Nationality: k.Nationality,
			Now:         g.clock.Now,
		}, "", seat.ID)
		p.InKeep = true
		if seed.FirstName != "" {
			p.FirstName = seed.FirstName
		}
		g.addCharacter(p)
		if seed.User != "" {
			if err := g.BindUser(seed.User, p); err != nil {
				return nil, err
			}
		}

		for _, f := range byProvince[i] {
			f.Owner, f.TitleHolder = p.ID, p.ID
			p.AddTitle(string(f.ID))
			p.Player.Fiefs = append(p.Player.Fiefs, f.ID)
		}
		prov.Owner, prov.TitleHolder = p.ID, p.ID
		p.AddTitle(string(prov.ID))
		p.Player.Provinces = append(p.Player.Provinces, prov.ID)
		if k.Owner == "" {
			k.Owner, k.TitleHolder = p.ID, p.ID
			p.AddTitle(string(k.ID))
			p.Player.Kingdoms = append(p.Player.Kingdoms, k.ID)
		}
		g.seedFamily(p)
		slog.Info("house founded", "player", p.ID, "name", p.FullName(), "user", seed.User, "seat", seat.Name)
	}

	for _, f := range fiefs {
		k := g.kingdomOf(f.ID)
		for range s.NPCsPerFief {
			g.addCharacter(g.spawner.SpawnDependent(character.Origin{
				Location:    f.ID,
				Language:    f.Language,
				Nationality: k.Nationality,
				Now:         g.clock.Now,
			}))
		}
	}
	slog.Info("world built", "kingdoms", len(kingdoms), "provinces", len(provinces), "fiefs", len(fiefs),
		"characters", len(g.characters))
	return g, nil
}

// seedFamily gives p a late father, a wife, up to two sons and a brother.
func (g *Game) seedFamily(p *character.Character) {
	now := g.clock.Now
	father := g.spawner.SpawnRelative(p, character.SexMale, p.Age(now)+25, now)
	father.Alive = false
	father.Dependent.Employer = ""
	g.addCharacter(father)
	p.Father = father.ID

	join := func(c *character.Character) {
		g.addCharacter(c)
		p.Player.Dependents = ids.Add(p.Player.Dependents, c.ID)
	}

	wife := g.spawner.SpawnRelative(p, character.SexFemale, max(MarriageAge+2, p.Age(now)-3-g.rng.Intn(5)), now)
	wife.FamilyName = p.FamilyName
	wife.Spouse, p.Spouse = p.ID, wife.ID
	wife.InKeep = true
	join(wife)

	for n := g.rng.Intn(3); n > 0; n-- {
		age := g.rng.Intn(max(1, p.Age(now)-MarriageAge-4))
		son := g.spawner.SpawnRelative(p, character.SexMale, age, now)
		son.Father, son.Mother = p.ID, wife.ID
		son.InKeep = true
		join(son)
	}

	brother := g.spawner.SpawnRelative(p, character.SexMale, max(MarriageAge, p.Age(now)-2-g.rng.Intn(8)), now)
	brother.Father = father.ID
	brother.InKeep = true
	join(brother)
}
