package recommend

import (
	"encoding/json"
	"net/http"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
)

type Input struct {
	Conductors []conductor.Input `json:"conductors"`
}

type Handler struct {
	Selector *conduit.Selector
}

func (h *Handler) Conduit(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	entries, err := conductor.ParseAll(h.Selector.Tables(), input.Conductors)
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}
	res, err := Materials(h.Selector, entries)
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}
	conduit.WriteJSON(w, http.StatusOK, res)
}
