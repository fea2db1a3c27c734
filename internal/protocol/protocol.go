// Package protocol defines the action envelope exchanged with clients: the
// action tags, result codes, request and response shapes, and the entity
// views a response may carry.
package protocol

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
)

// Action tags a client request.
type Action string

const (
	// Viewing
	ActionViewChar           Action = "ViewChar"
	ActionViewFief           Action = "ViewFief"
	ActionViewArmy           Action = "ViewArmy"
	ActionViewSiege          Action = "ViewSiege"
	ActionViewProvince       Action = "ViewProvince"
	ActionListFiefs          Action = "ListFiefs"
	ActionListCharsInFief    Action = "ListCharsInFief"
	ActionListEmployees      Action = "ListEmployees"
	ActionViewJournalEntries Action = "ViewJournalEntries"
	ActionViewJournalEntry   Action = "ViewJournalEntry"

	// Household and employment
	ActionOfferSalary        Action = "OfferSalary"
	ActionFire               Action = "Fire"
	ActionAddRemoveEntourage Action = "AddRemoveEntourage"
	ActionProposeMarriage    Action = "ProposeMarriage"
	ActionReplyToProposal    Action = "ReplyToProposal"
	ActionAppointHeir        Action = "AppointHeir"
	ActionTryForChild        Action = "TryForChild"

	// Movement
	ActionTravelTo      Action = "TravelTo"
	ActionTakeThisRoute Action = "TakeThisRoute"
	ActionCamp          Action = "Camp"
	ActionEnterExitKeep Action = "EnterExitKeep"

	// Landholdings
	ActionAppointBailiff          Action = "AppointBailiff"
	ActionRemoveBailiff           Action = "RemoveBailiff"
	ActionGrantFiefTitle          Action = "GrantFiefTitle"
	ActionAdjustExpenditure       Action = "AdjustExpenditure"
	ActionTransferFunds           Action = "TransferFunds"
	ActionTransferFundsToPlayer   Action = "TransferFundsToPlayer"
	ActionBarCharacter            Action = "BarCharacter"
	ActionUnbarCharacter          Action = "UnbarCharacter"
	ActionLodgeOwnershipChallenge Action = "LodgeOwnershipChallenge"

	// Armies and sieges
	ActionRecruitTroops       Action = "RecruitTroops"
	ActionMaintainArmy        Action = "MaintainArmy"
	ActionAppointLeader       Action = "AppointLeader"
	ActionDropOffTroops       Action = "DropOffTroops"
	ActionListDetachments     Action = "ListDetachments"
	ActionPickUpTroops        Action = "PickUpTroops"
	ActionDisbandArmy         Action = "DisbandArmy"
	ActionAdjustCombatValues  Action = "AdjustCombatValues"
	ActionBesiegeFief         Action = "BesiegeFief"
	ActionSiegeRoundReduction Action = "SiegeRoundReduction"
	ActionSiegeRoundStorm     Action = "SiegeRoundStorm"
	ActionSiegeRoundNegotiate Action = "SiegeRoundNegotiate"
	ActionEndSiege            Action = "EndSiege"
	ActionAttack              Action = "Attack"

	// Captivity
	ActionKidnap         Action = "Kidnap"
	ActionViewCaptives   Action = "ViewCaptives"
	ActionRansomCaptive  Action = "RansomCaptive"
	ActionPayRansom      Action = "PayRansom"
	ActionReleaseCaptive Action = "ReleaseCaptive"
	ActionExecuteCaptive Action = "ExecuteCaptive"

	// Espionage
	ActionSpyFief      Action = "SpyFief"
	ActionSpyCharacter Action = "SpyCharacter"
	ActionSpyArmy      Action = "SpyArmy"

	// Administration
	ActionSeasonUpdate Action = "SeasonUpdate"
)

// Result is the outcome code of a request. Failures use the game error
// codes unchanged; successes use the codes below.
type Result string

const (
	ResultSuccess Result = "SUCCESS"

	// The explicit or balanced budget still spends more than the fief has.
	ResultFiefExpenditureShortfall Result = "FIEF_EXPENDITURE_SHORTFALL"
)

// ResultOf maps an operation error to its result code.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	return Result(gameerr.CodeOf(err))
}

// Failed reports whether r is an error code.
func (r Result) Failed() bool {
	return r != ResultSuccess && r != ResultFiefExpenditureShortfall
}

// Request is one client action.
//
// Message carries the primary target identifier; Fields carry the remaining
// arguments in the order each action documents.
type Request struct {
	RequestID string   `json:"requestId,omitempty" jsonschema:"description=Optional client token; a repeated token replays the first response"`
	Action    Action   `json:"action" jsonschema:"required"`
	Message   string   `json:"message,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

// PayloadKind names the view carried in a response.
type PayloadKind string

const (
	PayloadCharacter   PayloadKind = "character"
	PayloadCharacters  PayloadKind = "characters"
	PayloadFief        PayloadKind = "fief"
	PayloadFiefs       PayloadKind = "fiefs"
	PayloadArmy        PayloadKind = "army"
	PayloadSiege       PayloadKind = "siege"
	PayloadDetachment  PayloadKind = "detachment"
	PayloadDetachments PayloadKind = "detachments"
	PayloadEntry       PayloadKind = "journalEntry"
	PayloadEntries     PayloadKind = "journalEntries"
	PayloadProvince    PayloadKind = "province"
	PayloadSummary     PayloadKind = "season"
)

// Response answers one Request.
type Response struct {
	RequestID   string      `json:"requestId,omitempty"`
	Action      Action      `json:"action" jsonschema:"required"`
	Result      Result      `json:"result" jsonschema:"required"`
	Message     string      `json:"message,omitempty"`
	Fields      []string    `json:"fields,omitempty"`
	PayloadKind PayloadKind `json:"payloadKind,omitempty"`
	Payload     any         `json:"payload,omitempty"`
}

// Fail builds a response for a failed request.
func Fail(req Request, err error) Response {
	return Response{RequestID: req.RequestID, Action: req.Action, Result: ResultOf(err), Message: err.Error()}
}
