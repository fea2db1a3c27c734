package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/dispatch"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/persistence"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

const adminKey = "sekrit"

type fixture struct {
	s     *Server
	ts    *httptest.Server
	alice *character.Character
}

func newFixture(t *testing.T, configure func(*Server)) *fixture {
	t.Helper()
	lay := world.PlaceFiefs(world.Generate(world.SmallTestConfig()), 42, 4, 2)
	g, err := engine.Build(engine.Options{StartYear: 1194, Rng: entropy.NewSeeded(7)}, engine.Setup{
		Layout:         lay,
		Players:        []engine.PlayerSeed{{User: "alice"}, {User: "bob"}},
		NPCsPerFief:    1,
		ProvinceTaxPct: 5,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	alice, err := g.PlayerByUser("alice")
	if err != nil {
		t.Fatalf("PlayerByUser: %v", err)
	}
	eng := engine.NewEngine(g, 0)
	s := &Server{
		Game:     g,
		Eng:      eng,
		Dispatch: dispatch.New(g, eng, func(user string) bool { return user == "root" }),
		AdminKey: adminKey,
	}
	if configure != nil {
		configure(s)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &fixture{s: s, ts: ts, alice: alice}
}

func (fx *fixture) post(t *testing.T, path, user, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, fx.ts.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (fx *fixture) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, fx.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s status = %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want)
	}
}

func TestStatus(t *testing.T) {
	fx := newFixture(t, nil)
	resp := fx.get(t, "/api/v1/status", "")
	wantStatus(t, resp, http.StatusOK)
	status := decode[map[string]any](t, resp)
	if status["date"] != fx.s.Game.Now().String() {
		t.Fatalf("date = %v, want %v", status["date"], fx.s.Game.Now())
	}
	if status["players"] != float64(2) {
		t.Fatalf("players = %v, want 2", status["players"])
	}
}

func TestFiefsHideAccounts(t *testing.T) {
	fx := newFixture(t, nil)
	resp := fx.get(t, "/api/v1/fiefs", "")
	wantStatus(t, resp, http.StatusOK)
	fiefs := decode[[]protocol.FiefView](t, resp)
	if len(fiefs) == 0 {
		t.Fatal("no fiefs listed")
	}
	for _, f := range fiefs {
		if f.Full || f.Treasury != 0 || f.Budget != nil {
			t.Fatalf("fief %s leaks its accounts: %+v", f.ID, f)
		}
	}
}

func TestSchema(t *testing.T) {
	fx := newFixture(t, nil)
	resp := fx.get(t, "/api/v1/schema", "")
	wantStatus(t, resp, http.StatusOK)
	schema := decode[map[string]json.RawMessage](t, resp)
	for _, k := range []string{"request", "response", "actions"} {
		if _, ok := schema[k]; !ok {
			t.Fatalf("schema has no %q", k)
		}
	}
}

func TestAction(t *testing.T) {
	fx := newFixture(t, nil)

	resp := fx.post(t, "/api/v1/action", "", "", protocol.Request{Action: protocol.ActionViewChar})
	wantStatus(t, resp, http.StatusUnauthorized)

	resp = fx.post(t, "/api/v1/action", "alice", "", protocol.Request{
		Action:  protocol.ActionViewChar,
		Message: string(fx.alice.ID),
	})
	wantStatus(t, resp, http.StatusOK)
	got := decode[protocol.Response](t, resp)
	if got.Result != protocol.ResultSuccess {
		t.Fatalf("result = %s (%s), want success", got.Result, got.Message)
	}
	if got.RequestID == "" {
		t.Fatal("response has no request ID")
	}

	resp = fx.post(t, "/api/v1/action", "alice", "", protocol.Request{RequestID: "r1", Action: "Conquer"})
	got = decode[protocol.Response](t, resp)
	if got.Result != protocol.Result(gameerr.CodeUnknownAction) || got.RequestID != "r1" {
		t.Fatalf("got %s for %q, want %s for r1", got.Result, got.RequestID, gameerr.CodeUnknownAction)
	}
}

func TestAdminEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		token string
		want  int
	}{
		{name: "no token", key: adminKey, want: http.StatusUnauthorized},
		{name: "wrong token", key: adminKey, token: "guess", want: http.StatusUnauthorized},
		{name: "disabled", key: "", token: adminKey, want: http.StatusForbidden},
		{name: "admin", key: adminKey, token: adminKey, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, func(s *Server) { s.AdminKey = tt.key })
			before := fx.s.Game.Now()
			resp := fx.post(t, "/api/v1/season", "", tt.token, nil)
			wantStatus(t, resp, tt.want)
			advanced := fx.s.Game.Now() != before
			if advanced != (tt.want == http.StatusOK) {
				t.Fatalf("clock advanced = %v after status %d", advanced, resp.StatusCode)
			}
		})
	}
}

func TestSpeed(t *testing.T) {
	fx := newFixture(t, nil)
	resp := fx.post(t, "/api/v1/speed", "", adminKey, map[string]float64{"speed": 4})
	wantStatus(t, resp, http.StatusOK)
	if got := fx.s.Eng.Speed(); got != 4 {
		t.Fatalf("speed = %v, want 4", got)
	}
	resp = fx.post(t, "/api/v1/speed", "", adminKey, map[string]float64{"speed": 5000})
	wantStatus(t, resp, http.StatusBadRequest)

	resp = fx.get(t, "/api/v1/speed", "")
	wantStatus(t, resp, http.StatusOK)
	if got := decode[map[string]float64](t, resp)["speed"]; got != 4 {
		t.Fatalf("GET speed = %v, want 4", got)
	}
}

func TestSnapshotAndJournal(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	fx := newFixture(t, func(s *Server) { s.DB = db })

	wantStatus(t, fx.post(t, "/api/v1/season", "", adminKey, nil), http.StatusOK)
	wantStatus(t, fx.post(t, "/api/v1/snapshot", "", adminKey, nil), http.StatusOK)
	if ok, err := db.HasWorldState(); err != nil || !ok {
		t.Fatalf("HasWorldState = %v, %v after snapshot", ok, err)
	}

	wantStatus(t, fx.get(t, "/api/v1/journal", ""), http.StatusUnauthorized)
	wantStatus(t, fx.get(t, "/api/v1/journal?limit=0", adminKey), http.StatusBadRequest)

	resp := fx.get(t, "/api/v1/journal?limit=5", adminKey)
	wantStatus(t, resp, http.StatusOK)
	if got := decode[[]protocol.JournalEntryView](t, resp); len(got) > 5 {
		t.Fatalf("journal returned %d entries, want at most 5", len(got))
	}
}

func TestActionRateLimit(t *testing.T) {
	fx := newFixture(t, func(s *Server) { s.Limiter = NewRateLimiter(0.001, 1) })
	req := protocol.Request{Action: protocol.ActionViewChar, Message: string(fx.alice.ID)}

	wantStatus(t, fx.post(t, "/api/v1/action", "alice", "", req), http.StatusOK)
	resp := fx.post(t, "/api/v1/action", "alice", "", req)
	wantStatus(t, resp, http.StatusTooManyRequests)
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("429 without Retry-After")
	}
	// Buckets are per user.
	wantStatus(t, fx.post(t, "/api/v1/action", "bob", "", req), http.StatusOK)
}

func TestWebsocket(t *testing.T) {
	fx := newFixture(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(fx.ts.URL, "http") + "/api/v1/ws?user=alice"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.CloseNow()

	tests := []struct {
		name string
		send any
		want protocol.Result
	}{
		{
			name: "view self",
			send: protocol.Request{RequestID: "w1", Action: protocol.ActionViewChar, Message: string(fx.alice.ID)},
			want: protocol.ResultSuccess,
		},
		{
			name: "missing target",
			send: protocol.Request{RequestID: "w2", Action: protocol.ActionViewFief, Message: "Fief_9999"},
			want: protocol.Result(gameerr.CodeFiefNotFound),
		},
		{
			name: "malformed",
			send: []string{"not", "a", "request"},
			want: protocol.Result(gameerr.CodeInvalidInput),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := wsjson.Write(ctx, conn, tt.send); err != nil {
				t.Fatalf("Write: %v", err)
			}
			var got protocol.Response
			if err := wsjson.Read(ctx, conn, &got); err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got.Result != tt.want {
				t.Fatalf("result = %s (%s), want %s", got.Result, got.Message, tt.want)
			}
		})
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestWebsocketRequiresUser(t *testing.T) {
	fx := newFixture(t, nil)
	resp := fx.get(t, "/api/v1/ws", "")
	wantStatus(t, resp, http.StatusUnauthorized)
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	for i := range 2 {
		if ok, _ := rl.Allow("k"); !ok {
			t.Fatalf("request %d refused inside the burst", i)
		}
	}
	ok, wait := rl.Allow("k")
	if ok || wait <= 0 {
		t.Fatalf("Allow = %v, %v after the burst; want refusal with a wait", ok, wait)
	}
	if ok, _ := rl.Allow("other"); !ok {
		t.Fatal("separate key shares a bucket")
	}
}

func TestCORS(t *testing.T) {
	fx := newFixture(t, func(s *Server) { s.CORSOrigins = []string{"https://fiefs.example"} })
	tests := []struct {
		origin string
		want   string
	}{
		{"https://fiefs.example", "https://fiefs.example"},
		{"http://localhost:5173", "http://localhost:5173"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodOptions, fx.ts.URL+"/api/v1/action", nil)
		req.Header.Set("Origin", tt.origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS: %v", err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Fatalf("origin %s: allow = %q, want %q", tt.origin, got, tt.want)
		}
	}
}
