package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/consistency-planner/internal/analysis"
	"github.com/iwvelando/consistency-planner/internal/fxrate"
	"github.com/iwvelando/consistency-planner/internal/roadmap"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/session"
	"github.com/iwvelando/consistency-planner/internal/store"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/mathutil"
	"github.com/iwvelando/consistency-planner/pkg/output"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// RateSource supplies the exchange rate shown next to payouts.
type RateSource interface {
	Rate(ctx context.Context) fxrate.Rate
}

// Options configures the handler. Store and Rates are optional; without a
// store the snapshot endpoints answer 503, without rates no conversion is shown.
type Options struct {
	MaxUploadSize int64
	Version       string
	Store         store.Store
	Rates         RateSource
	Locale        string
	Goals         roadmap.Goals
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	store         store.Store
	rates         RateSource
	locale        string
	goals         roadmap.Goals
}

// NewHandler constructs the HTTP handler that serves the web UI and the
// evaluation API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	goals := opts.Goals
	if goals.TargetPayout <= 0 {
		goals.TargetPayout = constants.DefaultTargetPayout
	}
	if goals.PlannedDays == 0 {
		goals.PlannedDays = constants.DefaultPlannedDays
	}

	locale := opts.Locale
	if locale == "" {
		locale = constants.DefaultCurrencyLocale
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: opts.MaxUploadSize,
		version:       trimmedVersion,
		store:         opts.Store,
		rates:         opts.Rates,
		locale:        locale,
		goals:         goals,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/evaluate", h.handleEvaluate)
	mux.HandleFunc("/api/snapshots/{name}", h.handleSnapshot)
	mux.HandleFunc("/api/rules", h.handleRules)
	mux.HandleFunc("/api/rate", h.handleRate)
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return mux
}

// sessionRequest is the editable working set sent by the UI. Days accept
// numbers or text; text goes through the same parsing as config entries.
type sessionRequest struct {
	Name         string        `json:"name"`
	Program      string        `json:"program"`
	AccountSize  float64       `json:"accountSize"`
	Days         []interface{} `json:"days"`
	DayCount     int           `json:"dayCount"`
	TargetPayout float64       `json:"targetPayout"`
	PlannedDays  int           `json:"plannedDays"`
	Save         bool          `json:"save"`
}

type evaluateResponse struct {
	Report   analysis.Report       `json:"report"`
	Currency *output.LocalCurrency `json:"currency,omitempty"`
	CSV      string                `json:"csv"`
	Warnings []string              `json:"warnings,omitempty"`
	Saved    bool                  `json:"saved"`
	Duration string                `json:"duration"`
}

type snapshotResponse struct {
	Snapshot store.Snapshot  `json:"snapshot"`
	Report   analysis.Report `json:"report"`
}

// snapshotEdit changes a stored snapshot in place. DayCount is applied before
// the day edit, so a day added by the resize can be set in the same request.
type snapshotEdit struct {
	DayCount string `json:"dayCount"`
	Day      int    `json:"day"`
	Profit   string `json:"profit"`
}

type programInfo struct {
	rules.Profile
	Tiers []float64 `json:"tiers"`
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	req, ok := h.decodeSession(w, r, op)
	if !ok {
		return
	}

	s, warnings, err := h.buildSession(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	report := analysis.Analyze(s)
	response := evaluateResponse{
		Report:   report,
		Currency: h.localCurrency(r.Context()),
		CSV:      output.CsvString([]analysis.Report{report}),
		Warnings: warnings,
	}

	if req.Save {
		if h.store == nil {
			response.Warnings = append(response.Warnings, "snapshot store is not configured, inputs were not saved")
		} else if strings.TrimSpace(s.Name) == "" {
			response.Warnings = append(response.Warnings, "a name is required to save inputs")
		} else if err := h.store.Save(r.Context(), s.Snapshot()); err != nil {
			h.logger.Warn("failed to save snapshot",
				zap.String("op", op),
				zap.String("name", s.Name),
				zap.Error(err),
			)
			response.Warnings = append(response.Warnings, "inputs could not be saved")
		} else {
			response.Saved = true
		}
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("evaluation computed",
		zap.String("op", op),
		zap.String("program", string(report.Profile.Program)),
		zap.Int("days", len(report.Days)),
		zap.String("status", string(report.Consistency.Status)),
		zap.Bool("eligible", report.Eligibility.Eligible),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSnapshot"
	if h.store == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "snapshot store is not configured", op)
		return
	}

	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "snapshot name is required", op)
		return
	}

	switch r.Method {
	case http.MethodGet:
		snapshot, err := h.store.Load(r.Context(), name)
		if err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		s, err := session.FromSnapshot(snapshot)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusUnprocessableEntity, fmt.Sprintf("stored snapshot is invalid: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snapshot, Report: analysis.Analyze(s)})

	case http.MethodPut:
		req, ok := h.decodeSession(w, r, op)
		if !ok {
			return
		}
		req.Name = name
		s, _, err := h.buildSession(req)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		snapshot := s.Snapshot()
		if err := h.store.Save(r.Context(), snapshot); err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		h.logger.Debug("snapshot saved", zap.String("op", op), zap.String("name", name))
		h.writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snapshot, Report: analysis.Analyze(s)})

	case http.MethodPatch:
		var edit snapshotEdit
		if !h.decodeJSON(w, r, op, &edit) {
			return
		}
		snapshot, err := h.store.Load(r.Context(), name)
		if err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		s, err := session.FromSnapshot(snapshot)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusUnprocessableEntity, fmt.Sprintf("stored snapshot is invalid: %v", err), op)
			return
		}
		s, err = applyEdit(s, edit)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		snapshot = s.Snapshot()
		if err := h.store.Save(r.Context(), snapshot); err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		h.logger.Debug("snapshot edited",
			zap.String("op", op),
			zap.String("name", name),
			zap.Int("days", len(s.Log)),
		)
		h.writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snapshot, Report: analysis.Analyze(s)})

	case http.MethodDelete:
		if err := h.store.Delete(r.Context(), name); err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	profiles := rules.Programs()
	programs := make([]programInfo, 0, len(profiles))
	for _, profile := range profiles {
		programs = append(programs, programInfo{Profile: profile, Tiers: rules.Tiers(profile.Program)})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"programs": programs,
		"default":  rules.DefaultProgram,
		"goals":    h.goals,
	})
}

func (h *handler) handleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	local := h.localCurrency(r.Context())
	if local == nil {
		h.writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":  true,
		"currency": local,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) decodeSession(w http.ResponseWriter, r *http.Request, op string) (sessionRequest, bool) {
	var req sessionRequest
	if !h.decodeJSON(w, r, op, &req) {
		return sessionRequest{}, false
	}
	return req, true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// buildSession turns a request into a session. Bad day values and a day count
// outside the accepted range are reported as warnings, never as errors.
func (h *handler) buildSession(req sessionRequest) (session.Session, []string, error) {
	program, err := rules.ParseProgram(req.Program)
	if err != nil {
		return session.Session{}, nil, err
	}
	profile, err := rules.Lookup(program, req.AccountSize)
	if err != nil {
		return session.Session{}, nil, err
	}

	var warnings []string
	if len(req.Days) > constants.MaxDayCount {
		warnings = append(warnings, fmt.Sprintf("only the first %d days are evaluated", constants.MaxDayCount))
	}

	profits := make([]float64, len(req.Days))
	for i, raw := range req.Days {
		profit, ok := coerceProfit(raw)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("day %d value %v is not a number and counts as 0", i+1, raw))
		}
		profits[i] = profit
	}

	log := tradelog.FromProfits(profits)
	if len(log) == 0 {
		log = tradelog.Reset()
	}
	if req.DayCount != 0 {
		if resized, err := log.Resize(req.DayCount); err != nil {
			warnings = append(warnings, fmt.Sprintf("day count ignored: %v", err))
		} else {
			log = resized
		}
	}

	goals := h.goals
	if req.TargetPayout > 0 {
		goals.TargetPayout = req.TargetPayout
	}
	if req.PlannedDays != 0 {
		goals.PlannedDays = req.PlannedDays
	}

	s := session.New(strings.TrimSpace(req.Name)).
		WithProfile(profile).
		WithLog(log).
		WithGoals(goals)
	return s, warnings, nil
}

func applyEdit(s session.Session, edit snapshotEdit) (session.Session, error) {
	log := s.Log
	if strings.TrimSpace(edit.DayCount) != "" {
		n, err := tradelog.ParseDayCount(edit.DayCount)
		if err != nil {
			return s, err
		}
		log, err = log.Resize(n)
		if err != nil {
			return s, err
		}
	}
	if edit.Day != 0 {
		var err error
		log, err = log.WithProfit(edit.Day, tradelog.ParseProfit(edit.Profit))
		if err != nil {
			return s, err
		}
	}
	return s.WithLog(log), nil
}

// coerceProfit accepts JSON numbers and text. The second result is false when
// a non-empty value could not be read and was replaced by 0.
func coerceProfit(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case float64:
		return mathutil.Round(mathutil.Finite(v)), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		if !tradelog.IsNumeric(trimmed) {
			return 0, false
		}
		return tradelog.ParseProfit(trimmed), true
	default:
		return 0, false
	}
}

func (h *handler) localCurrency(ctx context.Context) *output.LocalCurrency {
	if h.rates == nil {
		return nil
	}
	rate := h.rates.Rate(ctx)
	return &output.LocalCurrency{
		Code:   rate.Code,
		Locale: h.locale,
		Rate:   rate.Value,
		Live:   rate.Live,
	}
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("snapshot store failed: %v", err), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
