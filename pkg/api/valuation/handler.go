// Package valuation exposes the DCF engine over HTTP.
package valuation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/engine/loader"
	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/montecarlo"
	"dcf_builder/pkg/core/report"
	"dcf_builder/pkg/core/sensitivity"
	"dcf_builder/pkg/core/store"
	core "dcf_builder/pkg/core/valuation"
)

var (
	errBadRequest = errors.New("bad request")
	// errUnencodable marks results holding NaN or infinite values.
	errUnencodable = errors.New("result is not representable as JSON")
)

// Handler serves the valuation endpoints.
type Handler struct {
	engines *loader.Active
	cases   *store.CaseStore
	memo    *cache.Cache
	workers int
	maxBody int64
	now     func() time.Time
}

type Options struct {
	// Workers bounds Monte Carlo concurrency; 0 means GOMAXPROCS.
	Workers int
	// MaxBodyBytes caps request bodies; 0 means 10 MiB.
	MaxBodyBytes int64
}

// NewHandler wires the handler. memo may be nil to disable memoization.
func NewHandler(engines *loader.Active, cases *store.CaseStore, memo *cache.Cache, opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	return &Handler{
		engines: engines,
		cases:   cases,
		memo:    memo,
		workers: opts.Workers,
		maxBody: opts.MaxBodyBytes,
		now:     time.Now,
	}
}

// Routes registers every endpoint on r. Callers mount it under /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/valuation", h.handleValuation)
	r.Post("/valuation/scenarios", h.handleScenarios)
	r.Post("/sensitivity", h.handleSensitivity)
	r.Post("/sensitivity/grid", h.handleGrid)
	r.Post("/montecarlo", h.handleMonteCarlo)
	r.Post("/engine/npv", h.handleNPV)
	r.Post("/engine/irr", h.handleIRR)
	r.Post("/report", h.handleReport)
	r.Get("/defaults", h.handleDefaults)
	r.Get("/health", h.handleHealth)

	r.Get("/cases", h.handleListCases)
	r.Get("/cases/{id}", h.handleGetCase)
	r.Put("/cases/{id}", h.handlePutCase)
	r.Delete("/cases/{id}", h.handleDeleteCase)
}

// CaseRequest carries a case inline, or names a stored one with CaseID.
type CaseRequest struct {
	model.BuilderState
	CaseID       string   `json:"caseId,omitempty"`
	ScenarioID   string   `json:"scenarioId,omitempty"`
	DiscountRate *float64 `json:"discountRate,omitempty"`
	ExitMultiple *float64 `json:"exitMultiple,omitempty"`
}

type ValuationRequest struct {
	CaseRequest
	// WithEngine also prices the derived cash flows with the NPV/IRR kernel.
	WithEngine bool `json:"withEngine,omitempty"`
}

type EngineResult struct {
	Name   string        `json:"name"`
	Input  engine.Input  `json:"input"`
	Output engine.Output `json:"output"`
}

type ValuationResponse struct {
	Valuation model.ValuationOutputs    `json:"valuation"`
	Scenario  *model.ScenarioDefinition `json:"scenario,omitempty"`
	Engine    *EngineResult             `json:"engine,omitempty"`
}

type GridRequest struct {
	CaseRequest
	Axis model.SweepAxis `json:"axis"`
	// DropBaseCase defaults to true.
	DropBaseCase *bool `json:"dropBaseCase,omitempty"`
}

type ReportRequest struct {
	CaseRequest
	IncludeSensitivity bool `json:"includeSensitivity,omitempty"`
	IncludeMonteCarlo  bool `json:"includeMonteCarlo,omitempty"`
}

type IRRResponse struct {
	IRRBps int `json:"irrBps"`
}

func (h *Handler) computeOptions(req CaseRequest) core.ComputeOptions {
	return core.ComputeOptions{
		DiscountRate: req.DiscountRate,
		ExitMultiple: req.ExitMultiple,
		Now:          h.now,
	}
}

func (h *Handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	if _, err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	state, err := h.resolveState(r.Context(), req.CaseRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.ScenarioID != "" {
		if _, ok := state.ResolveScenario(req.ScenarioID); !ok {
			writeError(w, fmt.Errorf("%w: unknown scenario %q", errBadRequest, req.ScenarioID))
			return
		}
	}
	opts := h.computeOptions(req.CaseRequest)

	if !req.WithEngine {
		out, scenario := core.Evaluate(state, req.ScenarioID, opts)
		writeJSON(w, http.StatusOK, ValuationResponse{Valuation: out, Scenario: scenario})
		return
	}

	payload, err := core.BuildEnginePayload(state, req.ScenarioID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	eng := h.engines.Engine()
	out, err := eng.NPV(r.Context(), payload.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuationResponse{
		Valuation: payload.Valuation,
		Scenario:  payload.Scenario,
		Engine:    &EngineResult{Name: eng.Name(), Input: payload.Input, Output: out},
	})
}

func (h *Handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	if _, err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	state, err := h.resolveState(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, core.RunScenarios(state, h.computeOptions(req)))
}

func (h *Handler) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	body, err := h.decode(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.serveMemoized(w, r, body, req.CaseID, func(ctx context.Context) (interface{}, error) {
		state, err := h.resolveState(ctx, req)
		if err != nil {
			return nil, err
		}
		return sensitivity.Run(ctx, state.Forecast, state.Context)
	})
}

func (h *Handler) handleGrid(w http.ResponseWriter, r *http.Request) {
	var req GridRequest
	body, err := h.decode(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Axis == "" {
		req.Axis = model.AxisGrowth
	}
	if req.Axis != model.AxisGrowth && req.Axis != model.AxisExitMultiple {
		writeError(w, fmt.Errorf("%w: unknown axis %q", errBadRequest, req.Axis))
		return
	}
	opts := sensitivity.DefaultGridOptions(req.Axis)
	if req.DropBaseCase != nil {
		opts.DropBaseCase = *req.DropBaseCase
	}

	h.serveMemoized(w, r, body, req.CaseID, func(ctx context.Context) (interface{}, error) {
		state, err := h.resolveState(ctx, req.CaseRequest)
		if err != nil {
			return nil, err
		}
		results, err := sensitivity.Run(ctx, state.Forecast, state.Context)
		if err != nil {
			return nil, err
		}
		// an empty grid is a valid answer, not an error
		grid, _ := sensitivity.BuildGrid(results, state.Context, opts)
		return grid, nil
	})
}

func (h *Handler) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	body, err := h.decode(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.serveMemoized(w, r, body, req.CaseID, func(ctx context.Context) (interface{}, error) {
		state, err := h.resolveState(ctx, req)
		if err != nil {
			return nil, err
		}
		return montecarlo.Run(ctx, state.Forecast, state.Context, montecarlo.Options{Workers: h.workers})
	})
}

func (h *Handler) handleNPV(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if _, err := h.decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.engines.Engine().NPV(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleIRR(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if _, err := h.decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	bps, err := h.engines.Engine().IRR(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IRRResponse{IRRBps: bps})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if _, err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	state, err := h.resolveState(ctx, req.CaseRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	out, _ := core.Evaluate(state, req.ScenarioID, h.computeOptions(req.CaseRequest))
	in := report.Input{Metadata: state.Context.Metadata, Valuation: out}

	if req.IncludeSensitivity {
		results, err := sensitivity.Run(ctx, state.Forecast, state.Context)
		if err != nil {
			writeError(w, err)
			return
		}
		if grid, ok := sensitivity.BuildGrid(results, state.Context, sensitivity.DefaultGridOptions(model.AxisGrowth)); ok {
			in.Grid = &grid
		}
	}
	if req.IncludeMonteCarlo {
		mc, err := montecarlo.Run(ctx, state.Forecast, state.Context, montecarlo.Options{Workers: h.workers})
		if err != nil {
			writeError(w, err)
			return
		}
		in.MonteCarlo = &mc
	}

	rep, err := report.Build(in)
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, rep.HTML)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 9999 {
			writeError(w, fmt.Errorf("%w: invalid year %q", errBadRequest, v))
			return
		}
		year = y
	}
	writeJSON(w, http.StatusOK, model.DefaultState(year))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status": "ok",
		"engine": h.engines.Engine().Name(),
	}
	if h.cases != nil {
		resp["store"] = h.cases.Backend()
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveState loads the named case or uses the inline one, then checks it.
func (h *Handler) resolveState(ctx context.Context, req CaseRequest) (model.BuilderState, error) {
	state := req.BuilderState
	if req.CaseID != "" {
		if h.cases == nil {
			return model.BuilderState{}, fmt.Errorf("%w: %s", store.ErrCaseNotFound, req.CaseID)
		}
		rec, err := h.cases.Get(ctx, req.CaseID)
		if err != nil {
			return model.BuilderState{}, err
		}
		state = rec.State
	}
	if err := state.Check(); err != nil {
		return model.BuilderState{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return state, nil
}

// serveMemoized answers from the memo when the same route and body were seen
// before. Only successful results are stored. Requests naming a stored case
// bypass the memo since the case can change under an identical body.
func (h *Handler) serveMemoized(w http.ResponseWriter, r *http.Request, body []byte, caseID string, compute func(context.Context) (interface{}, error)) {
	memo := h.memo
	if caseID != "" {
		memo = nil
	}
	key := memoKey(r.URL.Path, body)
	if memo != nil {
		if v, found := memo.Get(key); found {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	v, err := compute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if memo != nil {
		memo.SetDefault(key, v)
		w.Header().Set("X-Cache", "MISS")
	} else {
		w.Header().Set("X-Cache", "BYPASS")
	}
	writeJSON(w, http.StatusOK, v)
}

func memoKey(path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(path))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return body, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrRootNotBracketed), errors.Is(err, errUnencodable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loader.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

// writeJSON encodes before writing so an encoding failure can still be
// reported with a proper status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		if _, isErr := v.(errorResponse); isErr {
			log.Error().Err(err).Msg("failed to encode error response")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		log.Warn().Err(err).Msg("failed to encode response")
		writeError(w, fmt.Errorf("%w: %v", errUnencodable, err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
