package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

func TestResultOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"success", nil, ResultSuccess},
		{"domain error", gameerr.New(gameerr.CodeInsufficientFunds, "poor"), Result(gameerr.CodeInsufficientFunds)},
		{"unauthorised", gameerr.Unauthorized("ownsFiefOrAdmin"), Result(gameerr.CodeUnauthorized)},
		{"plain error", errors.New("disk on fire"), Result(gameerr.CodeInternal)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultOf(tt.err); got != tt.want {
				t.Fatalf("ResultOf = %q, want %q", got, tt.want)
			}
		})
	}
	if ResultSuccess.Failed() || ResultFiefExpenditureShortfall.Failed() || !Result(gameerr.CodeNoArmy).Failed() {
		t.Fatalf("Failed() misclassifies results")
	}
}

func TestFail(t *testing.T) {
	req := Request{RequestID: "r1", Action: ActionFire, Message: "Char_9"}
	resp := Fail(req, gameerr.NotFound(gameerr.CodeCharacterNotFound, "Char_9"))
	if resp.RequestID != "r1" || resp.Action != ActionFire || resp.Result != Result(gameerr.CodeCharacterNotFound) {
		t.Fatalf("Fail = %+v", resp)
	}
	if resp.Payload != nil {
		t.Fatalf("failure carries payload %v", resp.Payload)
	}
}

func TestResponseEncoding(t *testing.T) {
	a := realm.NewArmy("Army_1", "Char_1", "Fief_1", "Eng", 90)
	a.Troops[realm.TroopFoot] = 12
	resp := Response{Action: ActionViewArmy, Result: ResultSuccess, PayloadKind: PayloadArmy, Payload: NewArmyView(a)}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back struct {
		Action      Action      `json:"action"`
		PayloadKind PayloadKind `json:"payloadKind"`
		Payload     ArmyView    `json:"payload"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Payload.Total != 12 || back.Payload.Owner != "Char_1" || back.PayloadKind != PayloadArmy {
		t.Fatalf("decoded %+v", back)
	}
	if strings.Contains(string(data), "requestId") {
		t.Fatalf("empty request id encoded: %s", data)
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	for _, key := range []string{"request", "response", "actions"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("schema lacks %q", key)
		}
	}
	for _, field := range []string{"requestId", "fields", "payloadKind"} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("schema lacks field %q", field)
		}
	}
}

func TestActionsAreUnique(t *testing.T) {
	seen := make(map[Action]bool)
	for _, a := range Actions() {
		if seen[a] {
			t.Fatalf("action %s listed twice", a)
		}
		seen[a] = true
	}
}
