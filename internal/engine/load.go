package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

// ErrDanglingReference is returned by Load when a record names an entity
// that does not exist.
var ErrDanglingReference = errors.New("dangling reference")

// State is the persisted form of a game. Derived indexes (fief presence,
// rosters, owned-place lists, titles) are not trusted on load; Load
// rebuilds them from the owning side of each relation.
type State struct {
	StartYear  int                         `json:"start_year"`
	Now        clock.Date                  `json:"now"`
	Counters   map[ids.Kind]uint64         `json:"counters"`
	Winner     ids.CharID                  `json:"winner,omitempty"`
	Users      map[string]ids.CharID       `json:"users,omitempty"`
	Kingdoms   []*realm.Kingdom            `json:"kingdoms"`
	Provinces  []*realm.Province           `json:"provinces"`
	Fiefs      []*realm.Fief               `json:"fiefs"`
	Characters []*character.Character      `json:"characters"`
	Armies     []*realm.Army               `json:"armies"`
	Sieges     []*realm.Siege              `json:"sieges"`
	Challenges []*realm.OwnershipChallenge `json:"challenges"`
	Journal    []journal.Entry             `json:"journal"`
	Scheduled  []journal.Entry             `json:"scheduled"`
}

// Snapshot returns the game's state. The records are shared with the live
// game, so callers encode the snapshot before releasing the world lock.
func (g *Game) Snapshot() State {
	return State{
		StartYear:  g.clock.StartYear,
		Now:        g.clock.Now,
		Counters:   g.ids.Counters(),
		Winner:     g.winner,
		Users:      g.Users(),
		Kingdoms:   g.Kingdoms(),
		Provinces:  g.Provinces(),
		Fiefs:      g.Fiefs(),
		Characters: g.Characters(),
		Armies:     g.Armies(),
		Sieges:     g.Sieges(),
		Challenges: g.Challenges(),
		Journal:    g.journal.Entries(),
		Scheduled:  g.journal.Scheduled(),
	}
}

func dangling(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDanglingReference}, args...)...)
}

// Load builds a game from a saved state. Records are registered in passes,
// each of which may only refer to what earlier passes registered:
// kingdoms, provinces, fiefs, players, dependents, armies, sieges,
// challenges, then the journal.
func Load(opts Options, st State) (*Game, error) {
	opts.StartYear = st.StartYear
	g := NewGame(opts)
	g.clock.Now = st.Now
	g.winner = st.Winner

	// Kingdoms.
	for _, k := range st.Kingdoms {
		if _, dup := g.kingdoms[k.ID]; dup {
			return nil, fmt.Errorf("duplicate kingdom %s", k.ID)
		}
		g.kingdoms[k.ID] = k
		g.ids.Observe(string(k.ID))
	}

	// Provinces.
	for _, p := range st.Provinces {
		if _, ok := g.kingdoms[p.Kingdom]; !ok {
			return nil, dangling("province %s kingdom %s", p.ID, p.Kingdom)
		}
		if _, dup := g.provinces[p.ID]; dup {
			return nil, fmt.Errorf("duplicate province %s", p.ID)
		}
		g.provinces[p.ID] = p
		g.ids.Observe(string(p.ID))
	}

	// Fiefs.
	nodes := make([]world.Node, 0, len(st.Fiefs))
	for _, f := range st.Fiefs {
		if _, ok := g.provinces[f.Province]; !ok {
			return nil, dangling("fief %s province %s", f.ID, f.Province)
		}
		if _, dup := g.fiefs[f.ID]; dup {
			return nil, fmt.Errorf("duplicate fief %s", f.ID)
		}
		f.Characters, f.Armies, f.Gaol = nil, nil, nil
		g.fiefs[f.ID] = f
		g.ids.Observe(string(f.ID))
		for _, d := range f.Detachments {
			g.ids.Observe(string(d.ID))
		}
		nodes = append(nodes, world.Node{Fief: f.ID, Coord: f.Coord, Terrain: f.Terrain})
	}
	g.graph = world.NewGraph(nodes)

	// Players, then dependents.
	var players, dependents []*character.Character
	for _, c := range st.Characters {
		switch {
		case c.IsPlayer():
			players = append(players, c)
		case c.IsDependent():
			dependents = append(dependents, c)
		default:
			return nil, fmt.Errorf("character %s has no role", c.ID)
		}
	}
	for _, c := range players {
		if err := g.loadCharacter(c); err != nil {
			return nil, err
		}
		r := c.Player
		r.Fiefs, r.Provinces, r.Kingdoms = nil, nil, nil
		r.Armies, r.Sieges, r.Dependents, r.Entourage, r.Captives = nil, nil, nil, nil, nil
		for _, id := range []ids.FiefID{r.HomeFief, r.AncestralHome} {
			if _, ok := g.fiefs[id]; id != "" && !ok {
				return nil, dangling("player %s home %s", c.ID, id)
			}
		}
		if r.PlayerID != "" && c.Alive {
			g.users[r.PlayerID] = c.ID
		}
	}
	for _, c := range dependents {
		if err := g.loadCharacter(c); err != nil {
			return nil, err
		}
		if c.Dependent.LastOffers == nil {
			c.Dependent.LastOffers = make(map[ids.CharID]float64)
		}
		if e := c.Dependent.Employer; e != "" {
			emp, ok := g.characters[e]
			if !ok || !emp.IsPlayer() {
				return nil, dangling("dependent %s employer %s", c.ID, e)
			}
			if c.Alive {
				emp.Player.Dependents = append(emp.Player.Dependents, c.ID)
				if c.Dependent.InEntourage {
					emp.Player.Entourage = append(emp.Player.Entourage, c.ID)
				}
			}
		}
	}
	for _, c := range st.Characters {
		if err := g.linkCharacter(c); err != nil {
			return nil, err
		}
	}
	for user, id := range st.Users {
		if c, ok := g.characters[id]; ok && c.IsPlayer() && c.Alive {
			g.users[user] = id
		}
	}

	// Ownership and titles, from the places' side.
	for _, c := range g.characters {
		c.Titles = nil
	}
	claim := func(kind string, id string, owner, holder ids.CharID) (*character.Character, error) {
		var o *character.Character
		if owner != "" {
			var ok bool
			if o, ok = g.characters[owner]; !ok || !o.IsPlayer() {
				return nil, dangling("%s %s owner %s", kind, id, owner)
			}
		}
		if holder != "" {
			h, ok := g.characters[holder]
			if !ok {
				return nil, dangling("%s %s title holder %s", kind, id, holder)
			}
			h.AddTitle(id)
		}
		return o, nil
	}
	for _, k := range g.Kingdoms() {
		o, err := claim("kingdom", string(k.ID), k.Owner, k.TitleHolder)
		if err != nil {
			return nil, err
		}
		if o != nil {
			o.Player.Kingdoms = append(o.Player.Kingdoms, k.ID)
		}
	}
	for _, p := range g.Provinces() {
		o, err := claim("province", string(p.ID), p.Owner, p.TitleHolder)
		if err != nil {
			return nil, err
		}
		if o != nil {
			o.Player.Provinces = append(o.Player.Provinces, p.ID)
		}
	}
	for _, f := range g.Fiefs() {
		o, err := claim("fief", string(f.ID), f.Owner, f.TitleHolder)
		if err != nil {
			return nil, err
		}
		if o != nil {
			o.Player.Fiefs = append(o.Player.Fiefs, f.ID)
		}
		if _, ok := g.characters[f.Bailiff]; f.Bailiff != "" && !ok {
			return nil, dangling("fief %s bailiff %s", f.ID, f.Bailiff)
		}
	}

	// Armies.
	for _, a := range st.Armies {
		owner, ok := g.characters[a.Owner]
		if !ok || !owner.IsPlayer() {
			return nil, dangling("army %s owner %s", a.ID, a.Owner)
		}
		if _, ok := g.fiefs[a.Location]; !ok {
			return nil, dangling("army %s location %s", a.ID, a.Location)
		}
		if a.Leader != "" {
			leader, ok := g.characters[a.Leader]
			if !ok || leader.Army != a.ID {
				return nil, dangling("army %s leader %s", a.ID, a.Leader)
			}
		}
		g.registerArmy(a)
		g.ids.Observe(string(a.ID))
	}
	for _, c := range g.characters {
		if a, ok := g.armies[c.Army]; c.Army != "" && (!ok || a.Leader != c.ID) {
			return nil, dangling("character %s army %s", c.ID, c.Army)
		}
	}

	// Sieges.
	for _, s := range st.Sieges {
		f, ok := g.fiefs[s.Fief]
		if !ok {
			return nil, dangling("siege %s fief %s", s.ID, s.Fief)
		}
		if _, ok := g.armies[s.BesiegingArmy]; !ok {
			return nil, dangling("siege %s army %s", s.ID, s.BesiegingArmy)
		}
		for _, id := range []ids.CharID{s.BesiegingPlayer, s.DefendingPlayer} {
			if id == "" {
				continue
			}
			c, ok := g.characters[id]
			if !ok || !c.IsPlayer() {
				return nil, dangling("siege %s party %s", s.ID, id)
			}
			c.Player.Sieges = append(c.Player.Sieges, s.ID)
		}
		f.Siege = s.ID
		g.sieges[s.ID] = s
		g.ids.Observe(string(s.ID))
	}

	// Challenges.
	for _, ch := range st.Challenges {
		if _, ok := g.characters[ch.Challenger]; !ok {
			return nil, dangling("challenge %s challenger %s", ch.ID, ch.Challenger)
		}
		if _, ok := g.placeOwner(ch.Place, ch.Kind); !ok {
			return nil, dangling("challenge %s place %s", ch.ID, ch.Place)
		}
		g.challenges[ch.ID] = ch
		g.ids.Observe(string(ch.ID))
	}

	// Journal.
	if err := g.journal.Restore(st.Journal, st.Scheduled); err != nil {
		return nil, fmt.Errorf("restore journal: %w", err)
	}
	for _, e := range slices.Concat(st.Journal, st.Scheduled) {
		g.ids.ObserveN(ids.KindEntry, uint64(e.ID))
	}
	g.ids.Restore(st.Counters)

	slog.Info("world loaded", "date", g.clock.Now, "characters", len(g.characters), "fiefs", len(g.fiefs),
		"armies", len(g.armies), "sieges", len(g.sieges), "journal", g.journal.Len())
	return g, nil
}

// loadCharacter registers c and its presence.
func (g *Game) loadCharacter(c *character.Character) error {
	if _, dup := g.characters[c.ID]; dup {
		return fmt.Errorf("duplicate character %s", c.ID)
	}
	if _, ok := g.fiefs[c.Location]; !ok {
		return dangling("character %s location %s", c.ID, c.Location)
	}
	for _, id := range c.Route {
		if _, ok := g.fiefs[id]; !ok {
			return dangling("character %s route %s", c.ID, id)
		}
	}
	if c.Ailments == nil {
		c.Ailments = make(map[string]*character.Ailment)
	}
	g.characters[c.ID] = c
	g.ids.Observe(string(c.ID))
	if c.Alive {
		g.fiefs[c.Location].AddCharacter(c.ID)
	}
	return nil
}

// linkCharacter checks c's references to other characters and rebuilds
// the captivity indexes.
func (g *Game) linkCharacter(c *character.Character) error {
	for _, ref := range []ids.CharID{c.Spouse, c.Father, c.Mother, c.Fiance, c.FamilyID} {
		if _, ok := g.characters[ref]; ref != "" && !ok {
			return dangling("character %s relative %s", c.ID, ref)
		}
	}
	if c.Captor == "" {
		return nil
	}
	captor, ok := g.characters[c.Captor]
	if !ok || !captor.IsPlayer() {
		return dangling("character %s captor %s", c.ID, c.Captor)
	}
	if c.Alive {
		captor.Player.Captives = append(captor.Player.Captives, c.ID)
		f := g.fiefs[c.Location]
		f.Gaol = append(f.Gaol, c.ID)
	}
	return nil
}
