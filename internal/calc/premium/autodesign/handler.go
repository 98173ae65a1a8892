package autodesign

import (
	"encoding/json"
	"errors"
	"net/http"

	"Conduit/internal/calc/conduit"
)

type Handler struct {
	Selector *conduit.Selector
}

func (h *Handler) Conduit(w http.ResponseWriter, r *http.Request) {
	var input conduit.Request
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	entries, material, err := input.Resolve(h.Selector.Tables())
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}
	plan, err := Split(h.Selector, entries, material)
	switch {
	case errors.Is(err, ErrOversize), errors.Is(err, ErrTooMany):
		conduit.WriteError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		conduit.WriteCalcError(w, err)
		return
	}
	conduit.WriteJSON(w, http.StatusOK, plan)
}
