package valuation

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/store"
)

type CaseList struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	if h.cases == nil {
		writeJSON(w, http.StatusOK, CaseList{IDs: []string{}})
		return
	}
	ids, err := h.cases.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, CaseList{IDs: ids})
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.cases == nil {
		writeError(w, fmt.Errorf("%w: %s", store.ErrCaseNotFound, id))
		return
	}
	rec, err := h.cases.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handlePutCase(w http.ResponseWriter, r *http.Request) {
	if h.cases == nil {
		http.Error(w, "case store not configured", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	if !store.ValidCaseID(id) {
		writeError(w, fmt.Errorf("%w: invalid case id %q", errBadRequest, id))
		return
	}
	var state model.BuilderState
	if _, err := h.decode(w, r, &state); err != nil {
		writeError(w, err)
		return
	}
	if err := state.Check(); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	rec, err := h.cases.Save(r.Context(), id, state)
	if err != nil {
		writeError(w, err)
		return
	}
	// memoized sweeps may reference this case by id
	if h.memo != nil {
		h.memo.Flush()
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.cases == nil {
		writeError(w, fmt.Errorf("%w: %s", store.ErrCaseNotFound, id))
		return
	}
	if err := h.cases.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if h.memo != nil {
		h.memo.Flush()
	}
	w.WriteHeader(http.StatusNoContent)
}
