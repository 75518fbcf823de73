package config

import (
	"encoding/json"
	"net/http"

	"dcf_builder/pkg/core/engine/loader"
)

type Response struct {
	ActiveEngine string   `json:"active_engine"`
	Available    []string `json:"available"`
	CaseStore    string   `json:"case_store,omitempty"`
}

type SwitchRequest struct {
	Engine string `json:"engine"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Engines   *loader.Active
	CaseStore string
}

// NewHandler creates a new config handler
func NewHandler(engines *loader.Active, caseStore string) *Handler {
	return &Handler{
		Engines:   engines,
		CaseStore: caseStore,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	kinds := h.Engines.Kinds()
	available := make([]string, len(kinds))
	for i, k := range kinds {
		available[i] = string(k)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{
		ActiveEngine: h.Engines.Engine().Name(),
		Available:    available,
		CaseStore:    h.CaseStore,
	})
}

// HandleSwitch loads the requested engine; it must pass its self-check.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind, err := loader.ParseKind(req.Engine)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.Engines.Switch(r.Context(), kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"active_engine": e.Name()})
}
