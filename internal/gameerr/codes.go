package gameerr

// Code is a machine-readable error code.
type Code string

// Kind is the error taxonomy a code belongs to.
type Kind uint8

const (
	KindNone Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidInput
	KindDomainRule
	KindUnimplemented
	KindInternal
)

// String returns the taxonomy name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindInvalidInput:
		return "InvalidInput"
	case KindDomainRule:
		return "DomainRule"
	case KindUnimplemented:
		return "Unimplemented"
	case KindInternal:
		return "Internal"
	default:
		return "None"
	}
}

const (
	CodeInternal Code = "ERROR_INTERNAL"

	// Lookup failures
	CodeCharacterNotFound  Code = "ERROR_CHARACTER_UNIDENTIFIED"
	CodePlayerNotFound     Code = "ERROR_PLAYER_UNIDENTIFIED"
	CodeFiefNotFound       Code = "ERROR_FIEF_UNIDENTIFIED"
	CodeProvinceNotFound   Code = "ERROR_PROVINCE_UNIDENTIFIED"
	CodeKingdomNotFound    Code = "ERROR_KINGDOM_UNIDENTIFIED"
	CodeArmyNotFound       Code = "ERROR_ARMY_UNIDENTIFIED"
	CodeSiegeNotFound      Code = "ERROR_SIEGE_UNIDENTIFIED"
	CodeDetachmentNotFound Code = "ERROR_DETACHMENT_UNIDENTIFIED"
	CodeEntryNotFound      Code = "ERROR_JOURNAL_ENTRY_UNIDENTIFIED"

	CodeUnauthorized Code = "ERROR_UNAUTHORISED"

	// Input validation
	CodeInvalidInput  Code = "ERROR_INVALID_INPUT"
	CodeInvalidAmount Code = "ERROR_INVALID_AMOUNT"
	CodeInvalidRoute  Code = "ERROR_INVALID_ROUTE"
	CodeUnknownAction Code = "ERROR_UNKNOWN_ACTION"

	// Domain rules
	CodeCharacterDead       Code = "ERROR_CHARACTER_DEAD"
	CodeCharacterCaptive    Code = "ERROR_CHARACTER_CAPTIVE"
	CodeNotColocated        Code = "ERROR_NOT_IN_SAME_FIEF"
	CodeInsufficientDays    Code = "ERROR_NOT_ENOUGH_DAYS"
	CodeInsufficientFunds   Code = "ERROR_INSUFFICIENT_FUNDS"
	CodeNoHomeFief          Code = "ERROR_NO_HOME_FIEF"
	CodeNotEmployee         Code = "ERROR_NOT_EMPLOYEE"
	CodeFamilyMember        Code = "ERROR_FAMILY_MEMBER"
	CodeSalaryTooLow        Code = "ERROR_SALARY_TOO_LOW"
	CodeNotPlayer           Code = "ERROR_NOT_PLAYER"
	CodeNotEligible         Code = "ERROR_NOT_ELIGIBLE"
	CodeAlreadyMarried      Code = "ERROR_ALREADY_MARRIED"
	CodeAlreadyEngaged      Code = "ERROR_ALREADY_ENGAGED"
	CodeAlreadyPregnant     Code = "ERROR_ALREADY_PREGNANT"
	CodeNotMarried          Code = "ERROR_NOT_MARRIED"
	CodeProposalClosed      Code = "ERROR_PROPOSAL_ALREADY_REPLIED"
	CodeNoArmy              Code = "ERROR_NO_ARMY"
	CodeNoLeader            Code = "ERROR_NO_ARMY_LEADER"
	CodeInsufficientTroops  Code = "ERROR_NOT_ENOUGH_TROOPS"
	CodeInsufficientMilitia Code = "ERROR_NOT_ENOUGH_MILITIA"
	CodeUnderSiege          Code = "ERROR_FIEF_UNDER_SIEGE"
	CodeNotBesiegeable      Code = "ERROR_FIEF_NOT_BESIEGEABLE"
	CodeBarred              Code = "ERROR_BARRED"
	CodeAlreadyCaptive      Code = "ERROR_ALREADY_CAPTIVE"
	CodeNotCaptive          Code = "ERROR_NOT_CAPTIVE"
	CodeNoBailiff           Code = "ERROR_NO_BAILIFF"
	CodeTravelBlocked       Code = "ERROR_TRAVEL_BLOCKED"
	CodeChallengeIneligible Code = "ERROR_CHALLENGE_INELIGIBLE"
	CodeGameOver            Code = "ERROR_GAME_OVER"

	CodeUnimplemented Code = "ERROR_UNIMPLEMENTED"
)

var notFound = map[Code]bool{
	CodeCharacterNotFound:  true,
	CodePlayerNotFound:     true,
	CodeFiefNotFound:       true,
	CodeProvinceNotFound:   true,
	CodeKingdomNotFound:    true,
	CodeArmyNotFound:       true,
	CodeSiegeNotFound:      true,
	CodeDetachmentNotFound: true,
	CodeEntryNotFound:      true,
}

// Kind classifies the code into the error taxonomy.
func (c Code) Kind() Kind {
	switch {
	case c == "":
		return KindNone
	case notFound[c]:
		return KindNotFound
	case c == CodeUnauthorized:
		return KindUnauthorized
	case c == CodeInvalidInput, c == CodeInvalidAmount, c == CodeInvalidRoute, c == CodeUnknownAction:
		return KindInvalidInput
	case c == CodeUnimplemented:
		return KindUnimplemented
	case c == CodeInternal:
		return KindInternal
	default:
		return KindDomainRule
	}
}
