package engine

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
)

// Captivity tuning.
const (
	KidnapDays          = 10.0
	RansomSeasons       = 4    // A ransom demand lapses after this many seasons
	executionStatureHit = 0.5
)

// takeCaptive moves c into the gaol of fief, held by captor.
func (g *Game) takeCaptive(captor, c *character.Character, fief ids.FiefID) {
	if emp := g.characters[c.Employer()]; emp != nil && emp.IsPlayer() {
		g.leaveEntourage(emp, c)
	}
	if c.IsPlayer() {
		// A captured lord's party scatters.
		for _, id := range c.Player.Entourage {
			if m, ok := g.characters[id]; ok && m.IsDependent() {
				m.Dependent.InEntourage = false
			}
		}
		c.Player.Entourage = nil
	}
	g.resignLeadership(c)

	c.Captor = captor.ID
	c.Route = nil
	c.InKeep = true
	g.place(c, fief)
	captor.Player.Captives = ids.Add(captor.Player.Captives, c.ID)
	if f, ok := g.fiefs[fief]; ok {
		f.Gaol = ids.Add(f.Gaol, c.ID)
	}
	g.record(journal.TypeCapture, fief, fmt.Sprintf("%s was taken captive by %s", c.FullName(), captor.FullName()),
		persona(captor, journal.RoleCaptor), persona(c, journal.RoleCaptive))
}

// freeCaptive breaks the captivity link on both sides and empties the gaol cell.
func (g *Game) freeCaptive(c *character.Character) {
	if captor, ok := g.characters[c.Captor]; ok && captor.IsPlayer() {
		captor.Player.Captives = ids.Remove(captor.Player.Captives, c.ID)
	}
	if f, ok := g.fiefs[c.Location]; ok {
		f.Gaol = ids.Remove(f.Gaol, c.ID)
	}
	c.Captor = ""
	c.RansomEntry = 0
	c.InKeep = false
}

func requireCaptiveOf(captor, c *character.Character) error {
	if c.Captor != captor.ID {
		return gameerr.New(gameerr.CodeNotCaptive, "%s is not held by %s", c.FullName(), captor.FullName())
	}
	return nil
}

// Captives returns the characters p holds.
func (g *Game) Captives(p *character.Character) []*character.Character {
	if !p.IsPlayer() {
		return nil
	}
	out := make([]*character.Character, 0, len(p.Player.Captives))
	for _, id := range p.Player.Captives {
		if c, ok := g.characters[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// KidnapChance is the percent chance captor seizes target.
func (g *Game) KidnapChance(captor, target *character.Character) float64 {
	diff := captor.CombatValue(g.RatingContext(captor)) - target.CombatValue(g.RatingContext(target))
	return math.Max(5, math.Min(95, 50+diff*5))
}

// Kidnap tries to seize target in the fief the captor stands in.
// Failure costs the attempt's days and stature.
func (g *Game) Kidnap(captor, target *character.Character) (bool, error) {
	if err := requirePlayer(captor); err != nil {
		return false, err
	}
	if err := requireFree(captor); err != nil {
		return false, err
	}
	if err := requireAlive(target); err != nil {
		return false, err
	}
	if target.IsCaptive() {
		return false, gameerr.New(gameerr.CodeAlreadyCaptive, "%s is already held", target.FullName())
	}
	if Serves(target, captor) {
		return false, gameerr.New(gameerr.CodeNotEligible, "%s cannot kidnap their own people", captor.FullName())
	}
	if err := requireColocated(captor, target); err != nil {
		return false, err
	}
	if err := requireDays(captor, KidnapDays); err != nil {
		return false, err
	}

	chance := g.KidnapChance(captor, target)
	g.AdjustDays(captor, KidnapDays)
	if !entropy.Chance(g.rng, chance) {
		captor.StatureModifier -= 0.1
		g.record(journal.TypeGeneral, captor.Location, fmt.Sprintf("%s failed to seize %s", captor.FullName(), target.FullName()),
			persona(captor, journal.RoleAttacker), persona(target, journal.RoleSubject))
		return false, nil
	}
	g.takeCaptive(captor, target, captor.Location)
	slog.Info("kidnap", "captor", captor.ID, "captive", target.ID, "chance", chance)
	return true, nil
}

// ReleaseCaptive frees c without payment.
func (g *Game) ReleaseCaptive(captor, c *character.Character) error {
	if err := requireCaptiveOf(captor, c); err != nil {
		return err
	}
	g.closeRansom(c)
	g.freeCaptive(c)
	g.record(journal.TypeRelease, c.Location, fmt.Sprintf("%s released %s", captor.FullName(), c.FullName()),
		persona(captor, journal.RoleCaptor), persona(c, journal.RoleCaptive))
	return nil
}

// closeRansom marks any open demand for c as settled.
func (g *Game) closeRansom(c *character.Character) {
	if c.RansomEntry != 0 {
		g.journal.MarkReplied(c.RansomEntry)
		c.RansomEntry = 0
	}
}

// RansomCaptive sends a demand for amount to the head of c's household.
// Returns the journal entry the payer answers.
func (g *Game) RansomCaptive(captor, c *character.Character, amount float64) (ids.EntryID, error) {
	if err := requireCaptiveOf(captor, c); err != nil {
		return 0, err
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, gameerr.New(gameerr.CodeInvalidAmount, "ransom must be positive")
	}
	payer := g.FamilyHead(c)
	if payer == nil {
		payer = g.characters[c.Employer()]
	}
	if payer == nil || !payer.Alive || !payer.IsPlayer() || payer.ID == captor.ID {
		return 0, gameerr.New(gameerr.CodeNotEligible, "nobody will pay for %s", c.FullName())
	}
	if c.RansomEntry != 0 {
		if e, ok := g.journal.Get(c.RansomEntry); ok && !e.Replied {
			return 0, gameerr.New(gameerr.CodeNotEligible, "a ransom for %s is already outstanding", c.FullName())
		}
	}

	e := journal.Entry{
		ID:   g.ids.NextEntry(),
		Date: g.clock.Now,
		Type: journal.TypeRansom,
		Personae: []journal.Persona{
			persona(captor, journal.RoleCaptor),
			persona(c, journal.RoleCaptive),
			persona(payer, journal.RoleRecipient),
		},
		Description: fmt.Sprintf("%s demands %s for the release of %s", captor.FullName(), Money(amount), c.FullName()),
		Location:    c.Location,
		Data:        map[string]string{"amount": strconv.FormatFloat(amount, 'f', 0, 64)},
	}
	if err := g.journal.Append(e); err != nil {
		return 0, gameerr.Wrap(gameerr.CodeInternal, err, "record ransom")
	}
	c.RansomEntry = e.ID
	g.schedule(journal.TypeRansom, RansomSeasons, map[string]string{"demand": strconv.FormatUint(uint64(e.ID), 10)},
		persona(c, journal.RoleCaptive))
	return e.ID, nil
}

// PayRansom settles an outstanding demand from the payer's home treasury.
func (g *Game) PayRansom(payer *character.Character, entry ids.EntryID) error {
	if err := requirePlayer(payer); err != nil {
		return err
	}
	e, ok := g.journal.Get(entry)
	if !ok || e.Type != journal.TypeRansom {
		return gameerr.NotFound(gameerr.CodeEntryNotFound, entry)
	}
	if e.Replied {
		return gameerr.New(gameerr.CodeProposalClosed, "the demand has been settled")
	}
	captiveID, _ := e.Persona(journal.RoleCaptive)
	captorID, _ := e.Persona(journal.RoleCaptor)
	c, err := g.Character(captiveID)
	if err != nil {
		return err
	}
	// The demand may have passed to an heir since it was sent.
	if r, _ := e.Persona(journal.RoleRecipient); r != payer.ID && g.FamilyHead(c) != payer {
		return gameerr.Unauthorized("ransomRecipient")
	}
	captor, err := g.Character(captorID)
	if err != nil {
		return err
	}
	if c.Captor != captor.ID || c.RansomEntry != entry {
		g.journal.MarkReplied(entry)
		return gameerr.New(gameerr.CodeNotCaptive, "%s is no longer held by %s", c.FullName(), captor.FullName())
	}
	amount, err := strconv.ParseFloat(e.Data["amount"], 64)
	if err != nil {
		return gameerr.Wrap(gameerr.CodeInternal, err, "ransom amount")
	}
	home, err := g.homeFief(payer)
	if err != nil {
		return err
	}
	if home.Treasury < amount {
		return gameerr.New(gameerr.CodeInsufficientFunds, "the treasury of %s holds %s, the ransom is %s", home.Name, Money(home.Treasury), Money(amount))
	}

	home.AdjustTreasury(-amount)
	if captorHome, err := g.homeFief(captor); err == nil {
		captorHome.AdjustTreasury(amount)
	} else {
		captor.Player.Purse += amount
	}
	g.closeRansom(c)
	g.freeCaptive(c)
	g.record(journal.TypeRelease, c.Location, fmt.Sprintf("%s paid %s to free %s", payer.FullName(), Money(amount), c.FullName()),
		persona(payer, journal.RoleHead), persona(captor, journal.RoleCaptor), persona(c, journal.RoleCaptive))
	return nil
}

// ExecuteCaptive puts c to death. The captor loses stature for it.
func (g *Game) ExecuteCaptive(captor, c *character.Character) error {
	if err := requireCaptiveOf(captor, c); err != nil {
		return err
	}
	g.closeRansom(c)
	captor.StatureModifier -= executionStatureHit
	g.record(journal.TypeExecution, c.Location, fmt.Sprintf("%s executed %s", captor.FullName(), c.FullName()),
		persona(captor, journal.RoleCaptor), persona(c, journal.RoleCaptive))
	g.ProcessDeath(c, "executed")
	return nil
}

// lapseRansom closes a demand that has gone unanswered.
func (g *Game) lapseRansom(e journal.Entry) {
	id, err := strconv.ParseUint(e.Data["demand"], 10, 64)
	if err != nil {
		return
	}
	demand := ids.EntryID(id)
	if !g.journal.MarkReplied(demand) {
		return
	}
	if cid, ok := e.Persona(journal.RoleCaptive); ok {
		if c, ok := g.characters[cid]; ok && c.RansomEntry == demand {
			c.RansomEntry = 0
		}
	}
}
