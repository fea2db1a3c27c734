package dispatch

import (
	"strconv"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// ownedFief resolves the target fief, checks the requester owns it and
// returns the player acting for its owner.
func (c *call) ownedFief() (*realm.Fief, *character.Character, error) {
	f, err := c.targetFief()
	if err != nil {
		return nil, nil, err
	}
	if err := c.check(authz.OwnsFiefOrAdmin, f); err != nil {
		return nil, nil, err
	}
	p, err := c.actingFor(f.Owner)
	if err != nil {
		return nil, nil, err
	}
	return f, p, nil
}

func fiefResponse(f *realm.Fief, format string, args ...any) protocol.Response {
	return respond(protocol.PayloadFief, protocol.NewFiefView(f, true), format, args...)
}

// appointBailiff installs a bailiff. Fields: bailiff.
func appointBailiff(c *call) (protocol.Response, error) {
	f, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	b, err := c.fieldChar(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsCharOrAdmin, b); err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.AppointBailiff(p, f, b); err != nil {
		return protocol.Response{}, err
	}
	return fiefResponse(f, "%s is bailiff of %s", b.FullName(), f.Name), nil
}

func removeBailiff(c *call) (protocol.Response, error) {
	f, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.RemoveBailiff(p, f); err != nil {
		return protocol.Response{}, err
	}
	return fiefResponse(f, "%s has no bailiff", f.Name), nil
}

// grantFiefTitle hands the fief's title to someone. Fields: grantee.
func grantFiefTitle(c *call) (protocol.Response, error) {
	f, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	grantee, err := c.fieldChar(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.GrantFiefTitle(p, f, grantee); err != nil {
		return protocol.Response{}, err
	}
	return fiefResponse(f, "%s holds the title of %s", grantee.FullName(), f.Name), nil
}

// adjustExpenditure sets the budget from five fields (tax rate, officials,
// garrison, infrastructure, keep) or, with no fields, balances it. A
// remaining shortfall is reported with its own result code and the amount
// in the response fields.
func adjustExpenditure(c *call) (protocol.Response, error) {
	f, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	var budget *realm.Budget
	switch len(c.req.Fields) {
	case 0:
	case 5:
		var v [5]float64
		for i := range v {
			if v[i], err = c.amountField(i); err != nil {
				return protocol.Response{}, err
			}
		}
		budget = &realm.Budget{TaxRate: v[0], Officials: v[1], Garrison: v[2], Infrastructure: v[3], Keep: v[4]}
	default:
		return protocol.Response{}, gameerr.Invalid("a budget needs five values, got %d", len(c.req.Fields))
	}

	short, err := c.g.AdjustExpenditure(p, f, budget)
	if err != nil {
		return protocol.Response{}, err
	}
	if short > 0 {
		resp := fiefResponse(f, "%s will fall %s short next season", f.Name, engine.Money(short))
		resp.Result = protocol.ResultFiefExpenditureShortfall
		resp.Fields = []string{strconv.FormatFloat(short, 'f', 0, 64)}
		return resp, nil
	}
	return fiefResponse(f, "budget of %s adjusted", f.Name), nil
}

// transferFunds moves money between two of the owner's fiefs. Fields:
// destination fief, amount.
func transferFunds(c *call) (protocol.Response, error) {
	from, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	toID, err := c.field(0)
	if err != nil {
		return protocol.Response{}, err
	}
	amount, err := c.amountField(1)
	if err != nil {
		return protocol.Response{}, err
	}
	to, err := c.g.Fief(ids.FiefID(toID))
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFiefOrAdmin, to); err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.TransferFunds(p, from, to, amount); err != nil {
		return protocol.Response{}, err
	}
	return fiefResponse(from, "%s moved from %s to %s", engine.Money(amount), from.Name, to.Name), nil
}

// transferFundsToPlayer sends money to another player's home fief.
// Message: recipient player. Fields: amount.
func transferFundsToPlayer(c *call) (protocol.Response, error) {
	id, err := c.target()
	if err != nil {
		return protocol.Response{}, err
	}
	amount, err := c.amountField(0)
	if err != nil {
		return protocol.Response{}, err
	}
	to, err := c.g.Player(ids.CharID(id))
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.IsLivingPlayerOrAdmin, to); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.self()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.TransferFundsToPlayer(p, to, amount); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, c.charView(p), "%s sent to %s", engine.Money(amount), to.FullName()), nil
}

// barCharacter shuts someone out of the keep. Fields: target.
func barCharacter(c *call) (protocol.Response, error) {
	f, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	target, err := c.fieldChar(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.BarCharacter(p, f, target); err != nil {
		return protocol.Response{}, err
	}
	return fiefResponse(f, "%s is barred from %s", target.FullName(), f.Name), nil
}

func unbarCharacter(c *call) (protocol.Response, error) {
	f, p, err := c.ownedFief()
	if err != nil {
		return protocol.Response{}, err
	}
	target, err := c.fieldChar(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.UnbarCharacter(p, f, target); err != nil {
		return protocol.Response{}, err
	}
	return fiefResponse(f, "%s may enter %s again", target.FullName(), f.Name), nil
}

// lodgeOwnershipChallenge claims a province or kingdom named in Message.
func lodgeOwnershipChallenge(c *call) (protocol.Response, error) {
	place, err := c.target()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.IsLivingPlayerOrAdmin, nil); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.self()
	if err != nil {
		return protocol.Response{}, err
	}
	ch, err := c.g.LodgeOwnershipChallenge(p, place)
	if err != nil {
		return protocol.Response{}, err
	}
	resp := respond(protocol.PayloadCharacter, c.charView(p), "%s lays claim to %s", p.FullName(), place)
	resp.Fields = []string{string(ch.ID)}
	return resp, nil
}
