package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the request and response envelopes,
// keyed "request" and "response".
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	req := r.Reflect(&Request{})
	resp := r.Reflect(&Response{})
	if req == nil || resp == nil {
		return nil, fmt.Errorf("reflect envelope schema")
	}
	data, err := json.MarshalIndent(map[string]any{
		"request":  req,
		"response": resp,
		"actions":  Actions(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Actions lists every action tag a client may send.
func Actions() []Action {
	return []Action{
		ActionViewChar, ActionViewFief, ActionViewArmy, ActionViewSiege, ActionViewProvince,
		ActionListFiefs, ActionListCharsInFief, ActionListEmployees,
		ActionViewJournalEntries, ActionViewJournalEntry,
		ActionOfferSalary, ActionFire, ActionAddRemoveEntourage,
		ActionProposeMarriage, ActionReplyToProposal, ActionAppointHeir, ActionTryForChild,
		ActionTravelTo, ActionTakeThisRoute, ActionCamp, ActionEnterExitKeep,
		ActionAppointBailiff, ActionRemoveBailiff, ActionGrantFiefTitle, ActionAdjustExpenditure,
		ActionTransferFunds, ActionTransferFundsToPlayer, ActionBarCharacter, ActionUnbarCharacter,
		ActionLodgeOwnershipChallenge,
		ActionRecruitTroops, ActionMaintainArmy, ActionAppointLeader, ActionDropOffTroops,
		ActionListDetachments, ActionPickUpTroops, ActionDisbandArmy, ActionAdjustCombatValues,
		ActionBesiegeFief, ActionSiegeRoundReduction, ActionSiegeRoundStorm, ActionSiegeRoundNegotiate,
		ActionEndSiege, ActionAttack,
		ActionKidnap, ActionViewCaptives, ActionRansomCaptive, ActionPayRansom,
		ActionReleaseCaptive, ActionExecuteCaptive,
		ActionSpyFief, ActionSpyCharacter, ActionSpyArmy,
		ActionSeasonUpdate,
	}
}
