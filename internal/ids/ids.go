// Package ids defines typed identifiers and the counter-based generator
// that issues them. IDs are never reused, including across restarts.
package ids

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// CharID identifies a character (player or dependent).
type CharID string

// FiefID identifies a landholding.
type FiefID string

// ProvinceID identifies a province.
type ProvinceID string

// KingdomID identifies a kingdom.
type KingdomID string

// ArmyID identifies an army.
type ArmyID string

// SiegeID identifies a siege.
type SiegeID string

// DetachmentID identifies troops left in a fief for pickup.
type DetachmentID string

// ChallengeID identifies an ownership challenge.
type ChallengeID string

// EntryID identifies a journal entry. Entries are ordered by EntryID.
type EntryID uint64

// Kind names an identifier family. Each kind has its own counter.
type Kind string

const (
	KindCharacter  Kind = "Char"
	KindFief       Kind = "Fief"
	KindProvince   Kind = "Prov"
	KindKingdom    Kind = "King"
	KindArmy       Kind = "Army"
	KindSiege      Kind = "Siege"
	KindDetachment Kind = "Det"
	KindChallenge  Kind = "Chal"
	KindEntry      Kind = "Entry"
)

// Generator issues identifiers from per-kind monotonically increasing counters.
type Generator struct {
	mu   sync.Mutex
	next map[Kind]uint64
}

// NewGenerator creates a generator with every counter starting at 1.
func NewGenerator() *Generator {
	return &Generator{next: make(map[Kind]uint64)}
}

func (g *Generator) issue(kind Kind) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.next[kind]
	if n == 0 {
		n = 1
	}
	g.next[kind] = n + 1
	return n
}

func format(kind Kind, n uint64) string {
	return string(kind) + "_" + strconv.FormatUint(n, 10)
}

func (g *Generator) NextChar() CharID             { return CharID(format(KindCharacter, g.issue(KindCharacter))) }
func (g *Generator) NextFief() FiefID             { return FiefID(format(KindFief, g.issue(KindFief))) }
func (g *Generator) NextProvince() ProvinceID     { return ProvinceID(format(KindProvince, g.issue(KindProvince))) }
func (g *Generator) NextKingdom() KingdomID       { return KingdomID(format(KindKingdom, g.issue(KindKingdom))) }
func (g *Generator) NextArmy() ArmyID             { return ArmyID(format(KindArmy, g.issue(KindArmy))) }
func (g *Generator) NextSiege() SiegeID           { return SiegeID(format(KindSiege, g.issue(KindSiege))) }
func (g *Generator) NextDetachment() DetachmentID { return DetachmentID(format(KindDetachment, g.issue(KindDetachment))) }
func (g *Generator) NextChallenge() ChallengeID   { return ChallengeID(format(KindChallenge, g.issue(KindChallenge))) }
func (g *Generator) NextEntry() EntryID           { return EntryID(g.issue(KindEntry)) }

// Observe moves the counter for kind past an ID that was created elsewhere
// (loaded from storage or a seed file) so it is never issued again.
func (g *Generator) Observe(id string) {
	kind, n, ok := Parse(id)
	if !ok {
		return
	}
	g.ObserveN(kind, n)
}

// ObserveN moves the counter for kind past n.
func (g *Generator) ObserveN(kind Kind, n uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next[kind] <= n {
		g.next[kind] = n + 1
	}
}

// Counters returns a copy of the next-value counters (for persistence).
func (g *Generator) Counters() map[Kind]uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Kind]uint64, len(g.next))
	for k, v := range g.next {
		out[k] = v
	}
	return out
}

// Restore replaces the counters. Counters never move backwards.
func (g *Generator) Restore(counters map[Kind]uint64) {
	for k, v := range counters {
		if v > 0 {
			g.ObserveN(k, v-1)
		}
	}
}

// Parse splits a prefixed identifier such as "Char_12".
func Parse(id string) (Kind, uint64, bool) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return Kind(id[:i]), n, true
}

// String implements fmt.Stringer.
func (e EntryID) String() string {
	return fmt.Sprintf("%s_%d", KindEntry, uint64(e))
}
