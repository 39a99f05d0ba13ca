package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"finanzas/internal/aggregate"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/persistence"
	"finanzas/internal/services"
	"finanzas/internal/sheets/memory"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	srv    *Server
	svc    *services.LedgerService
	local  *memory.Store
	remote *memory.Store
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	local, remote := memory.New(), memory.New()
	svc := services.NewLedgerService(persistence.Chain{}, persistence.NewSaver(local, remote, nil),
		services.WithStoreOptions(
			ledger.WithClock(func() time.Time { return testNow }),
			ledger.WithLocation(time.UTC),
		))
	return &testEnv{srv: NewServer(":0", svc, nil, opts...), svc: svc, local: local, remote: remote}
}

type testEnvelope struct {
	Data        json.RawMessage `json:"data"`
	SyncWarning string          `json:"sync_warning"`
	Error       *ErrorBody      `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)

	var env testEnvelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	e := newTestEnv(t)
	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rr, _ := e.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK || rr.Body.String() != want {
			t.Errorf("%s = %d %q", path, rr.Code, rr.Body.String())
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	e := newTestEnv(t)
	rr, _ := e.do(t, http.MethodGet, "/api/categories", "")
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Cache-Control"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	e := newTestEnv(t)

	rr, env := e.do(t, http.MethodPost, "/api/transactions",
		`{"description":"Supermercado","amount":"$15.000","category":"Alimentación 🍞","necessity":"Alta"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rr.Code, rr.Body.String())
	}
	tx := decodeData[core.Transaction](t, env)
	if tx.ID == 0 || tx.Amount != 15000 || tx.Date.String() != "2025-03-14" {
		t.Fatalf("created = %+v", tx)
	}
	if e.local.Saves() != 1 || e.remote.Saves() != 1 {
		t.Fatalf("saves local=%d remote=%d", e.local.Saves(), e.remote.Saves())
	}

	_, env = e.do(t, http.MethodGet, "/api/transactions?min=10000", "")
	list := decodeData[[]core.Transaction](t, env)
	if len(list) != 1 || list[0].ID != tx.ID {
		t.Fatalf("list = %+v", list)
	}

	_, env = e.do(t, http.MethodGet, "/api/transactions?max=1000", "")
	if list := decodeData[[]core.Transaction](t, env); len(list) != 0 {
		t.Fatalf("filtered list = %+v", list)
	}
}

func TestCreateTransactionErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"zero amount", `{"description":"x","amount":0,"category":"Alimentación 🍞","necessity":"Alta"}`, http.StatusBadRequest},
		{"amount above cap", `{"description":"x","amount":1000000000000001,"category":"Alimentación 🍞","necessity":"Alta"}`, http.StatusBadRequest},
		{"unknown category", `{"description":"x","amount":100,"category":"Nope","necessity":"Alta"}`, http.StatusBadRequest},
		{"future date", `{"date":"2025-03-15","description":"x","amount":100,"category":"Alimentación 🍞","necessity":"Alta"}`, http.StatusBadRequest},
		{"bad date", `{"date":"14/03/2025","description":"x","amount":100,"category":"Alimentación 🍞","necessity":"Alta"}`, http.StatusBadRequest},
		{"unknown field", `{"descripcion":"x"}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"not json", `amount=100`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			rr, env := e.do(t, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d body=%s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if env.Error == nil || env.Error.Code != "validation" {
				t.Fatalf("error = %+v", env.Error)
			}
			if e.local.Saves() != 0 {
				t.Fatal("rejected request must not be persisted")
			}
		})
	}
}

func TestQuickEditDeleteTransaction(t *testing.T) {
	e := newTestEnv(t)

	rr, env := e.do(t, http.MethodPost, "/api/transactions/quick",
		`{"description":"Café","amount":2500,"category":"Alimentación 🍞"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("quick status = %d", rr.Code)
	}
	tx := decodeData[core.Transaction](t, env)
	if !tx.Quick || tx.Necessity != core.NecessityMedium {
		t.Fatalf("quick = %+v", tx)
	}

	path := "/api/transactions/" + itoa(tx.ID)
	rr, env = e.do(t, http.MethodPatch, path, `{"amount":3000,"description":"Café doble"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeData[core.Transaction](t, env); got.Amount != 3000 || got.Description != "Café doble" {
		t.Fatalf("patched = %+v", got)
	}

	rr, _ = e.do(t, http.MethodDelete, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr, env = e.do(t, http.MethodDelete, path, "")
	if rr.Code != http.StatusNotFound || env.Error == nil {
		t.Fatalf("second delete = %d %+v", rr.Code, env.Error)
	}

	rr, _ = e.do(t, http.MethodPatch, "/api/transactions/abc", `{"amount":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rr.Code)
	}
}

func TestPersistenceFailureReturnsSyncWarning(t *testing.T) {
	e := newTestEnv(t)
	e.remote.Fail(errors.New("sheets unavailable"))

	rr, env := e.do(t, http.MethodPost, "/api/transactions",
		`{"description":"Bus","amount":800,"category":"Transporte 🚗","necessity":"Alta"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if env.SyncWarning != SyncWarningMessage || env.Error != nil {
		t.Fatalf("envelope = %+v", env)
	}
	if tx := decodeData[core.Transaction](t, env); tx.ID == 0 {
		t.Fatal("applied transaction must be returned")
	}
}

func TestProfilesEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rr, env := e.do(t, http.MethodPost, "/api/profiles", `{"name":"Camila"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create profile = %d", rr.Code)
	}
	p := decodeData[core.Profile](t, env)

	rr, env = e.do(t, http.MethodPut, "/api/profiles/"+itoa(p.ID), `{"name":"Cami","avatar":"🦊"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update profile = %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeData[core.Profile](t, env); got.Name != "Cami" || got.Avatar != "🦊" {
		t.Fatalf("updated = %+v", got)
	}

	rr, _ = e.do(t, http.MethodPut, "/api/profiles/"+itoa(p.ID), `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty update = %d", rr.Code)
	}

	rr, _ = e.do(t, http.MethodPost, "/api/profiles/"+itoa(p.ID)+"/income", `{"base":1000}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("income on inactive profile = %d", rr.Code)
	}

	rr, _ = e.do(t, http.MethodPost, "/api/profiles/"+itoa(p.ID)+"/activate", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("activate = %d", rr.Code)
	}
	rr, env = e.do(t, http.MethodPut, "/api/profiles/"+itoa(p.ID)+"/income", `{"base":"$500.000","extra":20000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("set income = %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeData[core.Profile](t, env); got.BaseIncome != 500000 || got.ExtraIncome != 20000 {
		t.Fatalf("income = %+v", got)
	}

	_, env = e.do(t, http.MethodGet, "/api/profiles", "")
	list := decodeData[profilesResponse](t, env)
	if list.ActiveProfileID != p.ID || len(list.Profiles) < 2 {
		t.Fatalf("profiles = %+v", list)
	}

	rr, _ = e.do(t, http.MethodPost, "/api/profiles/999/activate", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown profile = %d", rr.Code)
	}
}

func TestAddCategoryStatus(t *testing.T) {
	e := newTestEnv(t)

	rr, env := e.do(t, http.MethodPost, "/api/categories", `{"name":"Mascotas 🐶"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("new category = %d", rr.Code)
	}
	if got := decodeData[setResponse](t, env); !got.Added {
		t.Fatalf("added = %+v", got)
	}

	rr, env = e.do(t, http.MethodPost, "/api/categories", `{"name":"Mascotas 🐶"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("existing category = %d", rr.Code)
	}
	if got := decodeData[setResponse](t, env); got.Added {
		t.Fatalf("added twice = %+v", got)
	}

	rr, _ = e.do(t, http.MethodPost, "/api/necessities", `{"name":"Opcional"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("new necessity = %d", rr.Code)
	}
	_, env = e.do(t, http.MethodGet, "/api/necessities", "")
	if got := decodeData[[]string](t, env); got[len(got)-1] != "Opcional" {
		t.Fatalf("necessities = %v", got)
	}
}

func TestDashboardAndActivity(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/transactions",
		`{"description":"Cine","amount":9000,"category":"Entretenimiento 🎬","necessity":"Baja"}`)

	rr, env := e.do(t, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard = %d", rr.Code)
	}
	d := decodeData[aggregate.Dashboard](t, env)
	if d.Period != "2025-03" || d.Expenses != 9000 {
		t.Fatalf("dashboard = %+v", d)
	}

	rr, _ = e.do(t, http.MethodGet, "/api/dashboard?profile=999", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown profile dashboard = %d", rr.Code)
	}

	rr, env = e.do(t, http.MethodGet, "/api/activity?kind=expense", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("activity = %d", rr.Code)
	}
	if got := decodeData[activityResponse](t, env); len(got.Entries) != 1 {
		t.Fatalf("activity = %+v", got)
	}

	rr, _ = e.do(t, http.MethodGet, "/api/activity?kind=bogus", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bogus kind = %d", rr.Code)
	}

	_, env = e.do(t, http.MethodGet, "/api/activity/recent?n=5", "")
	if got := decodeData[[]core.ActivityEntry](t, env); len(got) != 1 {
		t.Fatalf("recent = %+v", got)
	}

	rr, _ = e.do(t, http.MethodGet, "/api/insights", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("insights = %d", rr.Code)
	}
}

func TestExports(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/transactions",
		`{"description":"Farmacia","amount":4500,"category":"Salud 💊","necessity":"Alta"}`)

	tests := []struct {
		path        string
		contentType string
		filename    string
	}{
		{"/api/export/transactions.csv", contentTypeCSV, "2025-03-14-transacciones.csv"},
		{"/api/export/transactions.xlsx", contentTypeXLSX, "2025-03-14-transacciones.xlsx"},
		{"/api/export/activity.csv", contentTypeCSV, "2025-03-14-actividad.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr, _ := e.do(t, http.MethodGet, tt.path, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, tt.filename) {
				t.Errorf("Content-Disposition = %q", got)
			}
			if rr.Body.Len() == 0 {
				t.Error("empty file")
			}
		})
	}

	rr, _ := e.do(t, http.MethodGet, "/api/export/transactions.csv", "")
	if !strings.HasPrefix(rr.Body.String(), "\ufeff") {
		t.Error("csv export should start with a BOM")
	}
	if !strings.Contains(rr.Body.String(), "Farmacia") {
		t.Errorf("csv body = %q", rr.Body.String())
	}

	rr, _ = e.do(t, http.MethodGet, "/api/export/transactions.csv?from=nope", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad filter = %d", rr.Code)
	}
}

func TestResetEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/transactions",
		`{"description":"Libro","amount":12000,"category":"Educación 📚","necessity":"Media"}`)

	rr, _ := e.do(t, http.MethodPost, "/api/reset", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset = %d", rr.Code)
	}
	_, env := e.do(t, http.MethodGet, "/api/transactions", "")
	if got := decodeData[[]core.Transaction](t, env); len(got) != 0 {
		t.Fatalf("transactions after reset = %+v", got)
	}

	rr, _ = e.do(t, http.MethodPost, "/api/factory-reset", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("factory reset = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRateLimitOnlyMutations(t *testing.T) {
	e := newTestEnv(t, WithRateLimit(2))

	for i := 0; i < 5; i++ {
		if rr, _ := e.do(t, http.MethodGet, "/api/categories", ""); rr.Code != http.StatusOK {
			t.Fatalf("GET %d = %d", i, rr.Code)
		}
	}
	body := `{"name":"Viajes ✈️"}`
	for i := 0; i < 2; i++ {
		if rr, _ := e.do(t, http.MethodPost, "/api/categories", body); rr.Code >= 400 {
			t.Fatalf("POST %d = %d", i, rr.Code)
		}
	}
	rr, env := e.do(t, http.MethodPost, "/api/categories", body)
	if rr.Code != http.StatusTooManyRequests || env.Error == nil {
		t.Fatalf("third POST = %d %+v", rr.Code, env.Error)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	e := newTestEnv(t)
	rr, _ := e.do(t, http.MethodDelete, "/api/categories", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
