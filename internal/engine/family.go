package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
)

// Family tuning.
const (
	MarriageAge        = 14
	ChildbearingMaxAge = 50
	PregnancySeasons   = 3
	stillbirthChance   = 5.0 // Percent
	conceptionDays     = 10.0
)

// ProposeMarriage has groom's family ask for bride's hand. The head of the
// bride's family receives the proposal in the journal.
func (g *Game) ProposeMarriage(groom, bride *character.Character) (ids.EntryID, error) {
	if err := g.marriageEligible(groom, bride); err != nil {
		return 0, err
	}
	groomHead := g.FamilyHead(groom)
	brideHead := g.FamilyHead(bride)
	if groomHead == nil || brideHead == nil || !bride.IsDependent() {
		return 0, gameerr.New(gameerr.CodeNotEligible, "both parties must belong to a noble family")
	}

	e := journal.Entry{
		ID:   g.ids.NextEntry(),
		Date: g.clock.Now,
		Type: journal.TypeProposal,
		Personae: []journal.Persona{
			persona(groom, journal.RoleGroom),
			persona(bride, journal.RoleBride),
			persona(groomHead, journal.RoleHead),
			persona(brideHead, journal.RoleRecipient),
		},
		Description: fmt.Sprintf("%s proposes to %s", groom.FullName(), bride.FullName()),
		Location:    groom.Location,
	}
	if err := g.journal.Append(e); err != nil {
		return 0, gameerr.Wrap(gameerr.CodeInternal, err, "record proposal")
	}
	return e.ID, nil
}

func (g *Game) marriageEligible(groom, bride *character.Character) error {
	for _, c := range []*character.Character{groom, bride} {
		if err := requireFree(c); err != nil {
			return err
		}
		if c.Spouse != "" {
			return gameerr.New(gameerr.CodeAlreadyMarried, "%s is already married", c.FullName())
		}
		if c.Fiance != "" {
			return gameerr.New(gameerr.CodeAlreadyEngaged, "%s is already engaged", c.FullName())
		}
		if c.Age(g.clock.Now) < MarriageAge {
			return gameerr.New(gameerr.CodeNotEligible, "%s is too young to marry", c.FullName())
		}
	}
	if groom.IsFemale() || !bride.IsFemale() {
		return gameerr.New(gameerr.CodeNotEligible, "a proposal needs a groom and a bride")
	}
	if groom.HasFamily() && groom.FamilyID == bride.FamilyID {
		return gameerr.New(gameerr.CodeNotEligible, "%s and %s are of the same family", groom.FullName(), bride.FullName())
	}
	return nil
}

// ReplyToProposal answers a proposal. Acceptance engages the couple and
// schedules the wedding for next season.
func (g *Game) ReplyToProposal(replier *character.Character, entry ids.EntryID, accept bool) error {
	e, ok := g.journal.Get(entry)
	if !ok || e.Type != journal.TypeProposal {
		return gameerr.NotFound(gameerr.CodeEntryNotFound, entry)
	}
	if e.Replied {
		return gameerr.New(gameerr.CodeProposalClosed, "the proposal has already been answered")
	}
	groomID, _ := e.Persona(journal.RoleGroom)
	brideID, _ := e.Persona(journal.RoleBride)
	groom, err := g.Character(groomID)
	if err != nil {
		return err
	}
	bride, err := g.Character(brideID)
	if err != nil {
		return err
	}
	if r, _ := e.Persona(journal.RoleRecipient); r != replier.ID && g.FamilyHead(bride) != replier {
		return gameerr.Unauthorized("ownsJournalEntryOrAdmin")
	}
	if accept {
		if err := g.marriageEligible(groom, bride); err != nil {
			return err
		}
	}
	g.journal.MarkReplied(entry)

	verdict := "refused"
	if accept {
		verdict = "accepted"
		groom.Fiance = bride.ID
		bride.Fiance = groom.ID
		g.schedule(journal.TypeMarriage, 1, nil, persona(groom, journal.RoleGroom), persona(bride, journal.RoleBride))
	}
	g.record(journal.TypeProposalReply, bride.Location,
		fmt.Sprintf("%s %s the proposal of %s to %s", replier.FullName(), verdict, groom.FullName(), bride.FullName()),
		persona(replier, journal.RoleHead), persona(groom, journal.RoleGroom), persona(bride, journal.RoleBride))
	return nil
}

// wed carries out a scheduled wedding. The bride joins the groom's family
// and household. A wedding whose couple no longer qualifies is called off.
func (g *Game) wed(e journal.Entry) {
	groomID, _ := e.Persona(journal.RoleGroom)
	brideID, _ := e.Persona(journal.RoleBride)
	groom, gok := g.characters[groomID]
	bride, bok := g.characters[brideID]
	if !gok || !bok || !groom.Alive || !bride.Alive || groom.Fiance != bride.ID || bride.Fiance != groom.ID {
		return
	}
	if err := g.weddingEligible(groom, bride); err != nil {
		groom.Fiance, bride.Fiance = "", ""
		slog.Info("wedding called off", "groom", groom.ID, "bride", bride.ID, "reason", err)
		g.record(journal.TypeGeneral, groom.Location,
			fmt.Sprintf("The wedding of %s and %s was called off", groom.FullName(), bride.FullName()),
			persona(groom, journal.RoleGroom), persona(bride, journal.RoleBride))
		return
	}
	groom.Fiance, bride.Fiance = "", ""
	groom.Spouse, bride.Spouse = bride.ID, groom.ID
	head := g.FamilyHead(groom)
	if prev := g.characters[bride.Employer()]; prev != nil && prev.IsPlayer() {
		g.dismiss(prev, bride)
	}
	if bride.IsCaptive() {
		g.closeRansom(bride)
		g.freeCaptive(bride)
	}
	bride.FamilyID = groom.FamilyID
	if head != nil {
		bride.Dependent.Employer = head.ID
		head.Player.Dependents = ids.Add(head.Player.Dependents, bride.ID)
	}
	bride.InKeep = groom.InKeep
	g.place(bride, groom.Location)
	slog.Info("marriage", "groom", groom.ID, "bride", bride.ID)
	g.record(journal.TypeMarriage, groom.Location, fmt.Sprintf("%s married %s", groom.FullName(), bride.FullName()),
		persona(groom, journal.RoleGroom), persona(bride, journal.RoleBride))
}

// weddingEligible repeats the proposal checks for an engaged couple. A
// bride who has since come to head her own house cannot leave it.
func (g *Game) weddingEligible(groom, bride *character.Character) error {
	if groom.Spouse != "" || bride.Spouse != "" {
		return gameerr.New(gameerr.CodeAlreadyMarried, "already married")
	}
	if groom.IsFemale() || !bride.IsFemale() {
		return gameerr.New(gameerr.CodeNotEligible, "a wedding needs a groom and a bride")
	}
	if !bride.IsDependent() || g.FamilyHead(groom) == nil {
		return gameerr.New(gameerr.CodeNotEligible, "%s cannot join the family of %s", bride.FullName(), groom.FullName())
	}
	if groom.HasFamily() && groom.FamilyID == bride.FamilyID {
		return gameerr.New(gameerr.CodeNotEligible, "%s and %s are of the same family", groom.FullName(), bride.FullName())
	}
	return nil
}

func (g *Game) AppointHeir(p, heir *character.Character) error {
	if err := requirePlayer(p); err != nil {
		return err
	}
	if !IsFamilyOf(heir, p) {
		return gameerr.New(gameerr.CodeNotEligible, "%s is not of the family of %s", heir.FullName(), p.FullName())
	}
	if err := requireAlive(heir); err != nil {
		return err
	}
	for _, id := range p.Player.Dependents {
		if d, ok := g.characters[id]; ok && d.IsDependent() {
			d.Dependent.IsHeir = false
		}
	}
	heir.Dependent.IsHeir = true
	return nil
}

// ConceptionChance is the percent chance husband and wife conceive this season.
func (g *Game) ConceptionChance(husband, wife *character.Character) float64 {
	v := (husband.Virility*(1+husband.TraitEffect(character.StatVirility)) +
		wife.Virility*(1+wife.TraitEffect(character.StatVirility))) / 2
	age := wife.Age(g.clock.Now)
	if age > 40 {
		v *= 0.5
	}
	return math.Max(0, math.Min(90, v*8))
}

// TryForChild spends days with one's wife in the hope of a pregnancy.
// Returns whether she conceived.
func (g *Game) TryForChild(husband *character.Character) (bool, error) {
	if err := requireFree(husband); err != nil {
		return false, err
	}
	wife, ok := g.characters[husband.Spouse]
	if !ok || husband.Spouse == "" {
		return false, gameerr.New(gameerr.CodeNotMarried, "%s is not married", husband.FullName())
	}
	if err := requireFree(wife); err != nil {
		return false, err
	}
	if !wife.IsFemale() {
		return false, gameerr.New(gameerr.CodeNotEligible, "only a husband may try for a child")
	}
	if wife.Pregnant {
		return false, gameerr.New(gameerr.CodeAlreadyPregnant, "%s is already with child", wife.FullName())
	}
	if wife.Age(g.clock.Now) >= ChildbearingMaxAge {
		return false, gameerr.New(gameerr.CodeNotEligible, "%s is past childbearing age", wife.FullName())
	}
	if err := requireColocated(husband, wife); err != nil {
		return false, err
	}
	if err := requireDays(husband, conceptionDays); err != nil {
		return false, err
	}

	g.AdjustDays(husband, conceptionDays)
	if !entropy.Chance(g.rng, g.ConceptionChance(husband, wife)) {
		return false, nil
	}
	wife.Pregnant = true
	g.schedule(journal.TypeBirth, PregnancySeasons, nil, persona(wife, journal.RoleMother), persona(husband, journal.RoleFather))
	g.record(journal.TypePregnancy, wife.Location, fmt.Sprintf("%s is with child", wife.FullName()),
		persona(wife, journal.RoleMother), persona(husband, journal.RoleFather))
	return true, nil
}

// giveBirth resolves a scheduled birth. The child may be stillborn, and the
// mother faces a death check either way.
func (g *Game) giveBirth(e journal.Entry) {
	motherID, _ := e.Persona(journal.RoleMother)
	fatherID, _ := e.Persona(journal.RoleFather)
	mother, ok := g.characters[motherID]
	if !ok || !mother.Alive || !mother.Pregnant {
		return
	}
	mother.Pregnant = false
	father, ok := g.characters[fatherID]
	if !ok {
		return
	}

	stillborn := entropy.Chance(g.rng, stillbirthChance)
	if stillborn {
		g.record(journal.TypeBirth, mother.Location, fmt.Sprintf("%s was delivered of a stillborn child", mother.FullName()),
			persona(mother, journal.RoleMother), persona(father, journal.RoleFather))
	} else {
		child := g.spawner.SpawnChild(mother, father, g.clock.Now)
		if head := g.FamilyHead(father); head != nil {
			child.Dependent.Employer = head.ID
			head.Player.Dependents = ids.Add(head.Player.Dependents, child.ID)
		} else {
			child.FamilyID = ""
		}
		g.addCharacter(child)
		slog.Info("birth", "child", child.ID, "mother", mother.ID, "father", father.ID)
		g.record(journal.TypeBirth, mother.Location, fmt.Sprintf("%s gave birth to %s", mother.FullName(), child.FullName()),
			persona(mother, journal.RoleMother), persona(father, journal.RoleFather), persona(child, journal.RoleSubject))
	}

	if g.CheckDeath(mother, true, stillborn) {
		g.ProcessDeath(mother, "childbirth")
	}
}
