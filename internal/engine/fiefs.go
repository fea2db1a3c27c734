package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// unmanagedRating is the management rating of a fief without a bailiff.
const unmanagedRating = 3.0

func requireFiefOwner(p *character.Character, f *realm.Fief) error {
	if f.Owner != p.ID {
		return gameerr.Unauthorized("ownsFiefOrAdmin")
	}
	return nil
}

// ManagementRating returns the rating of whoever runs f.
func (g *Game) ManagementRating(f *realm.Fief) float64 {
	if b, ok := g.characters[f.Bailiff]; ok && b.Alive && !b.IsCaptive() {
		return b.FiefManagementRating(g.RatingContext(b))
	}
	return unmanagedRating
}

// fiefExtras is what f pays on top of its budget: the household of the
// lord whose home it is.
func (g *Game) fiefExtras(f *realm.Fief) float64 {
	owner, ok := g.characters[f.Owner]
	if !ok || !owner.IsPlayer() || owner.Player.HomeFief != f.ID {
		return 0
	}
	return g.HouseholdExpenses(owner)
}

// AppointBailiff puts b (p or one of p's people) in charge of f.
func (g *Game) AppointBailiff(p *character.Character, f *realm.Fief, b *character.Character) error {
	if err := requireFiefOwner(p, f); err != nil {
		return err
	}
	if !Serves(b, p) {
		return gameerr.New(gameerr.CodeNotEmployee, "%s does not serve %s", b.FullName(), p.FullName())
	}
	if err := requireFree(b); err != nil {
		return err
	}
	f.Bailiff = b.ID
	return nil
}

// RemoveBailiff leaves f without a bailiff.
func (g *Game) RemoveBailiff(p *character.Character, f *realm.Fief) error {
	if err := requireFiefOwner(p, f); err != nil {
		return err
	}
	if f.Bailiff == "" {
		return gameerr.New(gameerr.CodeNoBailiff, "%s has no bailiff", f.Name)
	}
	f.Bailiff = ""
	return nil
}

// GrantFiefTitle gives the title of f to grantee (p or one of p's people).
func (g *Game) GrantFiefTitle(p *character.Character, f *realm.Fief, grantee *character.Character) error {
	if err := requireFiefOwner(p, f); err != nil {
		return err
	}
	if !Serves(grantee, p) {
		return gameerr.New(gameerr.CodeNotEmployee, "%s does not serve %s", grantee.FullName(), p.FullName())
	}
	if err := requireAlive(grantee); err != nil {
		return err
	}
	if prev, ok := g.characters[f.TitleHolder]; ok {
		prev.RemoveTitle(string(f.ID))
	}
	f.TitleHolder = grantee.ID
	grantee.AddTitle(string(f.ID))
	return nil
}

// AdjustExpenditure applies a new budget, or balances the current one when
// budget is nil. It returns the shortfall the fief still faces next season:
// for a balanced budget that is what remains after every spending line has
// been cut to zero.
func (g *Game) AdjustExpenditure(p *character.Character, f *realm.Fief, budget *realm.Budget) (float64, error) {
	if err := requireFiefOwner(p, f); err != nil {
		return 0, err
	}
	mgmt, extra := g.ManagementRating(f), g.fiefExtras(f)
	if budget == nil {
		return f.AutoAdjustExpenditure(mgmt, extra), nil
	}
	if err := f.ApplyBudget(*budget); err != nil {
		return 0, gameerr.Wrap(gameerr.CodeInvalidInput, err, "budget")
	}
	short := f.CalcExpenses(extra) - f.CalcIncome(mgmt) - f.Treasury
	return math.Max(0, math.Round(short)), nil
}

func validAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return gameerr.New(gameerr.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}

// TransferFunds moves money between two of p's fiefs.
func (g *Game) TransferFunds(p *character.Character, from, to *realm.Fief, amount float64) error {
	if err := requireFiefOwner(p, from); err != nil {
		return err
	}
	if err := requireFiefOwner(p, to); err != nil {
		return err
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	if from.Treasury < amount {
		return gameerr.New(gameerr.CodeInsufficientFunds, "%s holds only %s", from.Name, Money(from.Treasury))
	}
	from.AdjustTreasury(-amount)
	to.AdjustTreasury(amount)
	return nil
}

// TransferFundsToPlayer sends money from p's home treasury to another
// player's. Nothing moves unless the whole amount can.
func (g *Game) TransferFundsToPlayer(p, to *character.Character, amount float64) error {
	if err := requirePlayer(p); err != nil {
		return err
	}
	if err := requirePlayer(to); err != nil {
		return err
	}
	if p.ID == to.ID {
		return gameerr.Invalid("cannot send money to oneself")
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	from, err := g.homeFief(p)
	if err != nil {
		return err
	}
	dest, err := g.homeFief(to)
	if err != nil {
		return err
	}
	if from.Treasury < amount {
		return gameerr.New(gameerr.CodeInsufficientFunds, "%s holds only %s", from.Name, Money(from.Treasury))
	}
	from.AdjustTreasury(-amount)
	dest.AdjustTreasury(amount)
	g.record(journal.TypeGeneral, dest.ID, fmt.Sprintf("%s sent %s to %s", p.FullName(), Money(amount), to.FullName()),
		persona(p, journal.RoleSubject), persona(to, journal.RoleRecipient))
	return nil
}

// BarCharacter shuts target out of f's keep, expelling it if inside.
func (g *Game) BarCharacter(p *character.Character, f *realm.Fief, target *character.Character) error {
	if err := requireFiefOwner(p, f); err != nil {
		return err
	}
	if target.ID == p.ID {
		return gameerr.Invalid("cannot bar oneself")
	}
	f.Bar(target.ID)
	if target.Location == f.ID && target.InKeep && !target.IsCaptive() {
		target.InKeep = false
	}
	return nil
}

// UnbarCharacter lifts a bar.
func (g *Game) UnbarCharacter(p *character.Character, f *realm.Fief, target *character.Character) error {
	if err := requireFiefOwner(p, f); err != nil {
		return err
	}
	if !f.IsBarred(target.ID) {
		return gameerr.Invalid("%s is not barred from %s", target.FullName(), f.Name)
	}
	f.Unbar(target.ID)
	return nil
}

// transferFief hands f and its title to a new owner.
func (g *Game) transferFief(f *realm.Fief, to *character.Character) {
	if prev, ok := g.characters[f.Owner]; ok && prev.IsPlayer() {
		prev.Player.Fiefs = ids.Remove(prev.Player.Fiefs, f.ID)
		if prev.Player.HomeFief == f.ID {
			prev.Player.HomeFief = ""
			if len(prev.Player.Fiefs) > 0 {
				prev.Player.HomeFief = prev.Player.Fiefs[0]
			}
		}
	}
	if holder, ok := g.characters[f.TitleHolder]; ok {
		holder.RemoveTitle(string(f.ID))
	}
	f.Owner = to.ID
	f.TitleHolder = to.ID
	f.Bailiff = ""
	f.Unbar(to.ID)
	to.AddTitle(string(f.ID))
	to.Player.Fiefs = ids.Add(to.Player.Fiefs, f.ID)
	if to.Player.HomeFief == "" {
		to.Player.HomeFief = f.ID
	}
	slog.Info("fief changed hands", "fief", f.ID, "owner", to.ID)
	g.record(journal.TypeOwnership, f.ID, fmt.Sprintf("%s now holds %s", to.FullName(), f.Name), persona(to, journal.RoleSubject))
}

// ── Ownership challenges ───────────────────────────────────────────────

// placeOwner returns the current owner of a province or kingdom.
func (g *Game) placeOwner(place string, kind realm.PlaceKind) (ids.CharID, bool) {
	switch kind {
	case realm.PlaceProvince:
		if p, ok := g.provinces[ids.ProvinceID(place)]; ok {
			return p.Owner, true
		}
	case realm.PlaceKingdom:
		if k, ok := g.kingdoms[ids.KingdomID(place)]; ok {
			return k.Owner, true
		}
	}
	return "", false
}

// landShare returns the fraction of fiefs inside a province or kingdom that
// claimant owns.
func (g *Game) landShare(claimant ids.CharID, place string, kind realm.PlaceKind) float64 {
	var total, owned int
	for _, f := range g.fiefs {
		inside := false
		switch kind {
		case realm.PlaceProvince:
			inside = string(f.Province) == place
		case realm.PlaceKingdom:
			if p, ok := g.provinces[f.Province]; ok {
				inside = string(p.Kingdom) == place
			}
		}
		if !inside {
			continue
		}
		total++
		if f.Owner == claimant {
			owned++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(owned) / float64(total)
}

// claimHolds reports whether a challenge still qualifies: the challenger is
// a living player holding more than half the land.
func (g *Game) claimHolds(ch *realm.OwnershipChallenge) bool {
	c, ok := g.characters[ch.Challenger]
	if !ok || !c.Alive || !c.IsPlayer() {
		return false
	}
	owner, ok := g.placeOwner(ch.Place, ch.Kind)
	if !ok || owner == ch.Challenger {
		return false
	}
	return g.landShare(ch.Challenger, ch.Place, ch.Kind) > 0.5
}

// LodgeOwnershipChallenge claims a province or kingdom. The claim transfers
// ownership after it has held for realm.ChallengeSeasons consecutive seasons.
func (g *Game) LodgeOwnershipChallenge(p *character.Character, place string) (*realm.OwnershipChallenge, error) {
	if err := requirePlayer(p); err != nil {
		return nil, err
	}
	kind, ok := placeKind(place)
	if !ok || kind == realm.PlaceFief {
		return nil, gameerr.Invalid("only provinces and kingdoms can be challenged for")
	}
	if _, ok := g.placeOwner(place, kind); !ok {
		if kind == realm.PlaceProvince {
			return nil, gameerr.NotFound(gameerr.CodeProvinceNotFound, place)
		}
		return nil, gameerr.NotFound(gameerr.CodeKingdomNotFound, place)
	}
	for _, ch := range g.challenges {
		if ch.Place == place {
			return nil, gameerr.New(gameerr.CodeChallengeIneligible, "%s is already being challenged for", place)
		}
	}
	ch := &realm.OwnershipChallenge{
		ID:         g.ids.NextChallenge(),
		Challenger: p.ID,
		Place:      place,
		Kind:       kind,
	}
	if !g.claimHolds(ch) {
		return nil, gameerr.New(gameerr.CodeChallengeIneligible, "%s does not hold enough of %s", p.FullName(), place)
	}
	g.challenges[ch.ID] = ch
	g.record(journal.TypeOwnership, p.Location, fmt.Sprintf("%s laid claim to %s", p.FullName(), place), persona(p, journal.RoleSubject))
	return ch, nil
}

// evaluateChallenges advances every claim by a season, dropping those that
// no longer qualify and transferring those that have held long enough.
func (g *Game) evaluateChallenges() {
	for _, ch := range g.Challenges() {
		if !g.claimHolds(ch) {
			delete(g.challenges, ch.ID)
			continue
		}
		if ch.Advance() {
			delete(g.challenges, ch.ID)
			g.transferPlace(ch.Place, ch.Kind, g.characters[ch.Challenger])
		}
	}
}

// transferPlace hands a province or kingdom and its title to to.
func (g *Game) transferPlace(place string, kind realm.PlaceKind, to *character.Character) {
	var owner, holder *ids.CharID
	switch kind {
	case realm.PlaceProvince:
		p := g.provinces[ids.ProvinceID(place)]
		owner, holder = &p.Owner, &p.TitleHolder
	case realm.PlaceKingdom:
		k := g.kingdoms[ids.KingdomID(place)]
		owner, holder = &k.Owner, &k.TitleHolder
	default:
		return
	}
	if prev, ok := g.characters[*owner]; ok && prev.IsPlayer() {
		prev.Player.Provinces = ids.Remove(prev.Player.Provinces, ids.ProvinceID(place))
		prev.Player.Kingdoms = ids.Remove(prev.Player.Kingdoms, ids.KingdomID(place))
	}
	if h, ok := g.characters[*holder]; ok {
		h.RemoveTitle(place)
	}
	*owner, *holder = to.ID, to.ID
	to.AddTitle(place)
	if kind == realm.PlaceProvince {
		to.Player.Provinces = ids.Add(to.Player.Provinces, ids.ProvinceID(place))
	} else {
		to.Player.Kingdoms = ids.Add(to.Player.Kingdoms, ids.KingdomID(place))
	}
	slog.Info("ownership challenge succeeded", "place", place, "owner", to.ID)
	g.record(journal.TypeOwnership, to.Location, fmt.Sprintf("%s is now lord of %s", to.FullName(), place), persona(to, journal.RoleSubject))
}

// updateLandholdings runs every fief's economy, pays province overlords and
// advances ownership challenges.
func (g *Game) updateLandholdings() {
	for _, f := range g.Fiefs() {
		rate := 0.0
		prov, hasProv := g.provinces[f.Province]
		if hasProv && prov.Owner != "" && prov.Owner != f.Owner {
			rate = prov.TaxRate
		}
		rep := f.UpdateSeason(g.ManagementRating(f), g.fiefExtras(f), rate)
		if rep.OverlordTax > 0 {
			if lord, ok := g.characters[prov.Owner]; ok {
				if home, err := g.homeFief(lord); err == nil {
					home.AdjustTreasury(rep.OverlordTax)
				}
			}
		}
	}
	g.evaluateChallenges()
}
