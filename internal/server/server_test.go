package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/consistency-planner/internal/fxrate"
	"github.com/iwvelando/consistency-planner/internal/store"
	"go.uber.org/zap"
)

type fixedRate struct {
	rate fxrate.Rate
}

func (f fixedRate) Rate(context.Context) fxrate.Rate {
	return f.rate
}

func newTestHandler(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	opts := Options{
		Version: "1.2.3",
		Rates:   fixedRate{rate: fxrate.Rate{Code: "INR", Value: 86, Live: true}},
	}
	if withStore {
		s, err := store.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		opts.Store = s
	}
	return NewHandler(zap.NewNop(), opts)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleEvaluateBreached(t *testing.T) {
	h := newTestHandler(t, false)

	rr := do(t, h, http.MethodPost, "/api/evaluate", map[string]interface{}{
		"program": "15_promo",
		"days":    []interface{}{50, "30", "$20", 10, "five"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Report.Consistency.TotalNetProfit != 110 {
		t.Errorf("TotalNetProfit = %v, want 110", resp.Report.Consistency.TotalNetProfit)
	}
	if resp.Report.Eligibility.Eligible {
		t.Error("expected not eligible")
	}
	if !resp.Report.Roadmap.Required {
		t.Error("expected a roadmap")
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "day 5") {
		t.Errorf("Warnings = %v, want one about day 5", resp.Warnings)
	}
	if resp.Currency == nil || resp.Currency.Code != "INR" || resp.Currency.Rate != 86 {
		t.Errorf("Currency = %+v", resp.Currency)
	}
	if !strings.HasPrefix(resp.CSV, "account,") {
		t.Errorf("CSV = %q", resp.CSV)
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}
}

func TestHandleEvaluateEligible(t *testing.T) {
	h := newTestHandler(t, false)

	rr := do(t, h, http.MethodPost, "/api/evaluate", map[string]interface{}{
		"program":     "20",
		"accountSize": 1000,
		"days":        []interface{}{10, 10, 10, 10, 10},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Report.Eligibility.Eligible || resp.Report.Eligibility.PotentialPayout != 40 {
		t.Errorf("Eligibility = %+v", resp.Report.Eligibility)
	}
	if resp.Report.Roadmap.Required {
		t.Error("eligible evaluation should have no roadmap")
	}
}

func TestHandleEvaluateDayCountAndGoals(t *testing.T) {
	h := newTestHandler(t, false)

	rr := do(t, h, http.MethodPost, "/api/evaluate", map[string]interface{}{
		"days":         []interface{}{12, 8},
		"dayCount":     4,
		"targetPayout": 60,
		"plannedDays":  50,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Report.Days) != 4 || resp.Report.Days[3].Profit != 0 {
		t.Errorf("Days = %+v, want 4 days padded with zero", resp.Report.Days)
	}
	if resp.Report.Goals.TargetPayout != 60 || resp.Report.Goals.PlannedDays != 30 {
		t.Errorf("Goals = %+v", resp.Report.Goals)
	}

	rr = do(t, h, http.MethodPost, "/api/evaluate", map[string]interface{}{
		"days":     []interface{}{12, 8},
		"dayCount": 101,
	})
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Report.Days) != 2 {
		t.Errorf("an out of range day count should keep the log, got %d days", len(resp.Report.Days))
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "day count ignored") {
		t.Errorf("Warnings = %v", resp.Warnings)
	}
}

func TestHandleEvaluateErrors(t *testing.T) {
	h := newTestHandler(t, false)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"Wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"Malformed JSON", http.MethodPost, "{", http.StatusBadRequest},
		{"Unknown program", http.MethodPost, `{"program":"99"}`, http.StatusBadRequest},
		{"Unsupported tier", http.MethodPost, `{"program":"15_promo","accountSize":5000}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/evaluate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleEvaluateTooLarge(t *testing.T) {
	h := NewHandler(zap.NewNop(), Options{MaxUploadSize: 64})

	body := `{"days":[` + strings.Repeat(`"1",`, 100) + `"1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleEvaluateSave(t *testing.T) {
	h := newTestHandler(t, true)

	rr := do(t, h, http.MethodPost, "/api/evaluate", map[string]interface{}{
		"name": "Main",
		"days": []interface{}{5, 6, 7},
		"save": true,
	})
	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Saved {
		t.Fatalf("expected inputs to be saved, warnings %v", resp.Warnings)
	}

	rr = do(t, h, http.MethodGet, "/api/snapshots/Main", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if len(snap.Snapshot.Profits) != 3 || snap.Snapshot.Profits[2] != 7 {
		t.Errorf("Profits = %v", snap.Snapshot.Profits)
	}
	if snap.Report.Consistency.TotalNetProfit != 18 {
		t.Errorf("TotalNetProfit = %v, want 18", snap.Report.Consistency.TotalNetProfit)
	}
}

func TestHandleEvaluateSaveWithoutStore(t *testing.T) {
	h := newTestHandler(t, false)

	rr := do(t, h, http.MethodPost, "/api/evaluate", map[string]interface{}{"name": "Main", "save": true})
	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Saved || len(resp.Warnings) != 1 {
		t.Errorf("Saved = %v, Warnings = %v", resp.Saved, resp.Warnings)
	}
}

func TestHandleSnapshotLifecycle(t *testing.T) {
	h := newTestHandler(t, true)

	rr := do(t, h, http.MethodGet, "/api/snapshots/pro", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodPut, "/api/snapshots/pro", map[string]interface{}{
		"program":      "20",
		"accountSize":  25000,
		"days":         []interface{}{100, 200},
		"targetPayout": 300,
		"plannedDays":  10,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/api/snapshots/pro", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on load, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.Snapshot.Name != "pro" || snap.Snapshot.Program != "20" || snap.Snapshot.AccountSize != 25000 {
		t.Errorf("Snapshot = %+v", snap.Snapshot)
	}
	if snap.Snapshot.TargetPayout != 300 || snap.Snapshot.PlannedDays != 10 {
		t.Errorf("goals not persisted: %+v", snap.Snapshot)
	}

	rr = do(t, h, http.MethodDelete, "/api/snapshots/pro", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", rr.Code)
	}
	rr = do(t, h, http.MethodDelete, "/api/snapshots/pro", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestHandleSnapshotEdit(t *testing.T) {
	h := newTestHandler(t, true)

	rr := do(t, h, http.MethodPatch, "/api/snapshots/edit", map[string]interface{}{"day": 1, "profit": "5"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing snapshot, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodPut, "/api/snapshots/edit", map[string]interface{}{
		"days": []interface{}{40, 10, 10},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPatch, "/api/snapshots/edit", map[string]interface{}{
		"dayCount": "4",
		"day":      4,
		"profit":   "$12.50",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on edit, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	want := []float64{40, 10, 10, 12.5}
	if len(snap.Snapshot.Profits) != len(want) {
		t.Fatalf("Profits = %v, want %v", snap.Snapshot.Profits, want)
	}
	for i := range want {
		if snap.Snapshot.Profits[i] != want[i] {
			t.Errorf("Profits = %v, want %v", snap.Snapshot.Profits, want)
			break
		}
	}
	if snap.Report.Consistency.TotalNetProfit != 72.5 {
		t.Errorf("TotalNetProfit = %v, want 72.5", snap.Report.Consistency.TotalNetProfit)
	}

	rr = do(t, h, http.MethodGet, "/api/snapshots/edit", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if len(snap.Snapshot.Profits) != 4 {
		t.Errorf("edit was not persisted: %v", snap.Snapshot.Profits)
	}

	for _, body := range []map[string]interface{}{
		{"dayCount": "0"},
		{"dayCount": "many"},
		{"day": 9, "profit": "1"},
	} {
		rr = do(t, h, http.MethodPatch, "/api/snapshots/edit", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("edit %v: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestHandleSnapshotWithoutStore(t *testing.T) {
	h := newTestHandler(t, false)

	rr := do(t, h, http.MethodGet, "/api/snapshots/main", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHandleRules(t *testing.T) {
	h := newTestHandler(t, false)

	rr := do(t, h, http.MethodGet, "/api/rules", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Programs []struct {
			Program        string    `json:"program"`
			MinTradingDays int       `json:"minTradingDays"`
			Tiers          []float64 `json:"tiers"`
		} `json:"programs"`
		Default string `json:"default"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode rules: %v", err)
	}
	if len(resp.Programs) != 3 {
		t.Fatalf("expected 3 programs, got %d", len(resp.Programs))
	}
	if resp.Default != "15_promo" {
		t.Errorf("Default = %q", resp.Default)
	}
	for _, p := range resp.Programs {
		if p.Program == "15_promo" && (p.MinTradingDays != 3 || len(p.Tiers) != 1) {
			t.Errorf("promo program = %+v", p)
		}
		if p.Program == "20" && (p.MinTradingDays != 5 || len(p.Tiers) != 7) {
			t.Errorf("pro program = %+v", p)
		}
	}
}

func TestHandleRate(t *testing.T) {
	rr := do(t, newTestHandler(t, false), http.MethodGet, "/api/rate", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"enabled":true`) {
		t.Fatalf("unexpected response %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, NewHandler(nil, Options{}), http.MethodGet, "/api/rate", nil)
	if !strings.Contains(rr.Body.String(), `"enabled":false`) {
		t.Fatalf("expected conversion to be disabled: %s", rr.Body.String())
	}
}

func TestHandleRateWithProvider(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusNotFound)
	}))
	defer upstream.Close()

	provider := fxrate.NewProvider(zap.NewNop(), fxrate.Options{URL: upstream.URL})
	h := NewHandler(zap.NewNop(), Options{Rates: provider})

	rr := do(t, h, http.MethodGet, "/api/rate", nil)
	var resp struct {
		Enabled  bool `json:"enabled"`
		Currency struct {
			Code string  `json:"code"`
			Rate float64 `json:"rate"`
			Live bool    `json:"live"`
		} `json:"currency"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode rate: %v", err)
	}
	if !resp.Enabled || resp.Currency.Live || resp.Currency.Rate != 86 || resp.Currency.Code != "INR" {
		t.Errorf("expected the fallback rate, got %+v", resp)
	}
}

func TestHandleVersion(t *testing.T) {
	rr := do(t, newTestHandler(t, false), http.MethodGet, "/api/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"version":"1.2.3"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}

	rr = do(t, NewHandler(nil, Options{}), http.MethodGet, "/api/version", nil)
	if !strings.Contains(rr.Body.String(), `"version":"dev"`) {
		t.Errorf("expected dev version, got %s", rr.Body.String())
	}
}

func TestStaticIndex(t *testing.T) {
	rr := do(t, newTestHandler(t, false), http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Consistency Planner") {
		t.Error("expected the web UI")
	}
}

func TestCoerceProfit(t *testing.T) {
	tests := []struct {
		input  interface{}
		want   float64
		wantOK bool
	}{
		{nil, 0, true},
		{12.344, 12.34, true},
		{"-7.5", -7.5, true},
		{"$1,250", 1250, true},
		{"", 0, true},
		{"0.00", 0, true},
		{"abc", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"$", 0, false},
		{"+", 0, false},
		{"$-0.00", 0, true},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := coerceProfit(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("coerceProfit(%v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
