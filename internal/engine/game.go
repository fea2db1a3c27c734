// Game ties the realm together: every character, landholding, army and
// siege, plus the clock, the journal and the travel graph.
package engine

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

// Options configures a new game.
type Options struct {
	StartYear    int
	Rng          entropy.Source    // Defaults to a crypto source
	Traits       []character.Trait // Defaults to character.DefaultTraits
	VictoryShare float64           // Fraction of all fiefs one player must own to win; 0 disables
	VictoryYear  int               // Year at which the largest landholder wins; 0 disables
}

// Game is the registry of the whole world. Operations on it are not
// goroutine-safe on their own; callers run them inside Exclusive.
type Game struct {
	mu sync.Mutex

	clock   *clock.Clock
	ids     *ids.Generator
	journal *journal.Journal
	graph   *world.Graph
	rng     entropy.Source
	spawner *character.Spawner
	traits  []character.Trait

	characters map[ids.CharID]*character.Character
	fiefs      map[ids.FiefID]*realm.Fief
	provinces  map[ids.ProvinceID]*realm.Province
	kingdoms   map[ids.KingdomID]*realm.Kingdom
	armies     map[ids.ArmyID]*realm.Army
	sieges     map[ids.SiegeID]*realm.Siege
	challenges map[ids.ChallengeID]*realm.OwnershipChallenge
	users      map[string]ids.CharID // Human login → bound player character

	victoryShare float64
	victoryYear  int
	winner       ids.CharID

	// Estates of players who die while a season tick is running are
	// settled together once every character has been processed.
	inTick         bool
	pendingEstates []ids.CharID
}

// NewGame creates an empty game.
func NewGame(opts Options) *Game {
	rng := opts.Rng
	if rng == nil {
		rng = entropy.Crypto{}
	}
	traits := opts.Traits
	if len(traits) == 0 {
		traits = character.DefaultTraits
	}
	gen := ids.NewGenerator()
	return &Game{
		clock:        clock.New(opts.StartYear),
		ids:          gen,
		journal:      journal.New(),
		graph:        world.NewGraph(nil),
		rng:          rng,
		spawner:      character.NewSpawner(rng, gen, traits),
		traits:       traits,
		characters:   make(map[ids.CharID]*character.Character),
		fiefs:        make(map[ids.FiefID]*realm.Fief),
		provinces:    make(map[ids.ProvinceID]*realm.Province),
		kingdoms:     make(map[ids.KingdomID]*realm.Kingdom),
		armies:       make(map[ids.ArmyID]*realm.Army),
		sieges:       make(map[ids.SiegeID]*realm.Siege),
		challenges:   make(map[ids.ChallengeID]*realm.OwnershipChallenge),
		users:        make(map[string]ids.CharID),
		victoryShare: opts.VictoryShare,
		victoryYear:  opts.VictoryYear,
	}
}

// Exclusive runs fn while holding the world lock.
func (g *Game) Exclusive(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// Now returns the current date.
func (g *Game) Now() clock.Date { return g.clock.Now }

// StartYear returns the year the game began.
func (g *Game) StartYear() int { return g.clock.StartYear }

// Journal returns the world journal.
func (g *Game) Journal() *journal.Journal { return g.journal }

// Graph returns the travel graph.
func (g *Game) Graph() *world.Graph { return g.graph }

// Winner returns the player who has won, or "" while the game is running.
func (g *Game) Winner() ids.CharID { return g.winner }

// ── Lookups ────────────────────────────────────────────────────────────

// Character looks up any character, alive or dead.
func (g *Game) Character(id ids.CharID) (*character.Character, error) {
	c, ok := g.characters[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeCharacterNotFound, id)
	}
	return c, nil
}

// Player looks up a character holding the player role.
func (g *Game) Player(id ids.CharID) (*character.Character, error) {
	c, ok := g.characters[id]
	if !ok || !c.IsPlayer() {
		return nil, gameerr.NotFound(gameerr.CodePlayerNotFound, id)
	}
	return c, nil
}

// PlayerByUser returns the character bound to a human login.
func (g *Game) PlayerByUser(user string) (*character.Character, error) {
	id, ok := g.users[user]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodePlayerNotFound, user)
	}
	return g.Player(id)
}

// Fief looks up a fief.
func (g *Game) Fief(id ids.FiefID) (*realm.Fief, error) {
	f, ok := g.fiefs[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeFiefNotFound, id)
	}
	return f, nil
}

// Province looks up a province.
func (g *Game) Province(id ids.ProvinceID) (*realm.Province, error) {
	p, ok := g.provinces[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeProvinceNotFound, id)
	}
	return p, nil
}

// Kingdom looks up a kingdom.
func (g *Game) Kingdom(id ids.KingdomID) (*realm.Kingdom, error) {
	k, ok := g.kingdoms[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeKingdomNotFound, id)
	}
	return k, nil
}

// Army looks up an army.
func (g *Game) Army(id ids.ArmyID) (*realm.Army, error) {
	a, ok := g.armies[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeArmyNotFound, id)
	}
	return a, nil
}

// Siege looks up a siege.
func (g *Game) Siege(id ids.SiegeID) (*realm.Siege, error) {
	s, ok := g.sieges[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeSiegeNotFound, id)
	}
	return s, nil
}

// Fiefs returns every fief sorted by ID.
func (g *Game) Fiefs() []*realm.Fief { return sortedValues(g.fiefs) }

// Provinces returns every province sorted by ID.
func (g *Game) Provinces() []*realm.Province { return sortedValues(g.provinces) }

// Kingdoms returns every kingdom sorted by ID.
func (g *Game) Kingdoms() []*realm.Kingdom { return sortedValues(g.kingdoms) }

// Armies returns every army sorted by ID.
func (g *Game) Armies() []*realm.Army { return sortedValues(g.armies) }

// Sieges returns every siege sorted by ID.
func (g *Game) Sieges() []*realm.Siege { return sortedValues(g.sieges) }

// Challenges returns every open ownership challenge sorted by ID.
func (g *Game) Challenges() []*realm.OwnershipChallenge { return sortedValues(g.challenges) }

// Characters returns every character sorted by ID.
func (g *Game) Characters() []*character.Character { return sortedValues(g.characters) }

// Players returns every living player sorted by ID.
func (g *Game) Players() []*character.Character {
	var out []*character.Character
	for _, c := range g.Characters() {
		if c.Alive && c.IsPlayer() {
			out = append(out, c)
		}
	}
	return out
}

// Users returns the human logins currently bound to a player.
func (g *Game) Users() map[string]ids.CharID {
	return maps.Clone(g.users)
}

// BindUser attaches a human login to a living player without one.
func (g *Game) BindUser(user string, p *character.Character) error {
	if !p.IsPlayer() || !p.Alive {
		return gameerr.New(gameerr.CodeNotPlayer, "%s cannot be bound to a user", p.ID)
	}
	if other, ok := g.users[user]; ok && other != p.ID {
		return gameerr.New(gameerr.CodeNotEligible, "user %s already plays %s", user, other)
	}
	if p.Player.PlayerID != "" && p.Player.PlayerID != user {
		return gameerr.New(gameerr.CodeNotEligible, "%s is already played by %s", p.ID, p.Player.PlayerID)
	}
	p.Player.PlayerID = user
	g.users[user] = p.ID
	return nil
}

func sortedValues[K cmp.Ordered, V any](m map[K]V) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// ── Rating context ─────────────────────────────────────────────────────

// placeKind derives the level of a titled place from its ID prefix.
func placeKind(place string) (realm.PlaceKind, bool) {
	kind, _, ok := ids.Parse(place)
	if !ok {
		return 0, false
	}
	switch kind {
	case ids.KindFief:
		return realm.PlaceFief, true
	case ids.KindProvince:
		return realm.PlaceProvince, true
	case ids.KindKingdom:
		return realm.PlaceKingdom, true
	}
	return 0, false
}

// RatingContext returns the facts the rating calculus needs for c.
func (g *Game) RatingContext(c *character.Character) character.Context {
	best := 0.0
	for _, t := range c.Titles {
		if kind, ok := placeKind(t); ok {
			best = max(best, realm.Ranks[kind].Stature)
		}
	}
	return character.Context{Now: g.clock.Now, RankStature: best}
}

// Stature returns c's current stature.
func (g *Game) Stature(c *character.Character) float64 {
	return c.Stature(g.RatingContext(c))
}

// Health returns c's current health.
func (g *Game) Health(c *character.Character) float64 {
	return c.Health(g.RatingContext(c))
}

// ── Relationships ──────────────────────────────────────────────────────

// FamilyHead returns the player whose family c belongs to, or nil.
func (g *Game) FamilyHead(c *character.Character) *character.Character {
	if c.IsPlayer() {
		return c
	}
	if !c.HasFamily() {
		return nil
	}
	head, ok := g.characters[c.Employer()]
	if !ok || !head.IsPlayer() || head.FamilyID != c.FamilyID {
		return nil
	}
	return head
}

// IsFamilyOf reports whether dependent d is in player p's family.
func IsFamilyOf(d, p *character.Character) bool {
	return d.IsDependent() && d.HasFamily() && d.FamilyID == p.FamilyID && d.Employer() == p.ID
}

// Serves reports whether c is p itself or one of p's employees or family.
func Serves(c, p *character.Character) bool {
	return c.ID == p.ID || c.Employer() == p.ID
}

// sovereignOf returns the living owner of the kingdom containing fief.
func (g *Game) sovereignOf(fief ids.FiefID) *character.Character {
	king := g.kingdomOf(fief)
	if king == nil || king.Owner == "" {
		return nil
	}
	s, ok := g.characters[king.Owner]
	if !ok || !s.Alive || !s.IsPlayer() {
		return nil
	}
	return s
}

// kingdomOf returns the kingdom containing fief, or nil.
func (g *Game) kingdomOf(fief ids.FiefID) *realm.Kingdom {
	f, ok := g.fiefs[fief]
	if !ok {
		return nil
	}
	prov, ok := g.provinces[f.Province]
	if !ok {
		return nil
	}
	return g.kingdoms[prov.Kingdom]
}

// homeFief returns the player's home fief.
func (g *Game) homeFief(p *character.Character) (*realm.Fief, error) {
	if !p.IsPlayer() || p.Player.HomeFief == "" {
		return nil, gameerr.New(gameerr.CodeNoHomeFief, "%s has no home fief", p.ID)
	}
	f, ok := g.fiefs[p.Player.HomeFief]
	if !ok {
		return nil, gameerr.New(gameerr.CodeNoHomeFief, "%s has no home fief", p.ID)
	}
	return f, nil
}

// ── Presence ───────────────────────────────────────────────────────────

// place puts c in fief, leaving wherever it was before.
func (g *Game) place(c *character.Character, fief ids.FiefID) {
	g.unplace(c)
	c.Location = fief
	if f, ok := g.fiefs[fief]; ok && c.Alive {
		f.AddCharacter(c.ID)
	}
}

// unplace removes c from its current fief's presence set.
func (g *Game) unplace(c *character.Character) {
	if f, ok := g.fiefs[c.Location]; ok {
		f.RemoveCharacter(c.ID)
	}
}

// addCharacter registers a new character and its presence.
func (g *Game) addCharacter(c *character.Character) {
	g.characters[c.ID] = c
	if c.Alive {
		g.place(c, c.Location)
	}
}

// ── Journal ────────────────────────────────────────────────────────────

// record appends a dated journal entry and returns its ID.
func (g *Game) record(t journal.EntryType, location ids.FiefID, description string, personae ...journal.Persona) ids.EntryID {
	e := journal.Entry{
		ID:          g.ids.NextEntry(),
		Date:        g.clock.Now,
		Type:        t,
		Personae:    personae,
		Description: description,
		Location:    location,
	}
	if err := g.journal.Append(e); err != nil {
		slog.Error("journal append failed", "entry", e.ID, "error", err)
	}
	return e.ID
}

// schedule queues an event seasons from now and returns its ID.
func (g *Game) schedule(t journal.EntryType, seasons int, data map[string]string, personae ...journal.Persona) ids.EntryID {
	e := journal.Entry{
		ID:       g.ids.NextEntry(),
		Date:     g.clock.Now.Add(seasons),
		Type:     t,
		Personae: personae,
		Data:     data,
	}
	g.journal.Schedule(e)
	return e.ID
}

func persona(c *character.Character, role string) journal.Persona {
	return journal.Persona{Character: c.ID, Role: role}
}

// ── Common checks ──────────────────────────────────────────────────────

func requireAlive(c *character.Character) error {
	if !c.Alive {
		return gameerr.New(gameerr.CodeCharacterDead, "%s is dead", c.FullName())
	}
	return nil
}

func requireFree(c *character.Character) error {
	if err := requireAlive(c); err != nil {
		return err
	}
	if c.IsCaptive() {
		return gameerr.New(gameerr.CodeCharacterCaptive, "%s is held captive", c.FullName())
	}
	return nil
}

func requirePlayer(c *character.Character) error {
	if !c.IsPlayer() {
		return gameerr.New(gameerr.CodeNotPlayer, "%s is not a player", c.FullName())
	}
	return requireAlive(c)
}

func requireColocated(a, b *character.Character) error {
	if a.Location != b.Location {
		return gameerr.New(gameerr.CodeNotColocated, "%s and %s are not in the same fief", a.FullName(), b.FullName())
	}
	return nil
}

func requireDays(c *character.Character, days float64) error {
	if c.Days < days {
		return gameerr.New(gameerr.CodeInsufficientDays, "%s needs %.0f days but has %.0f", c.FullName(), days, c.Days)
	}
	return nil
}
