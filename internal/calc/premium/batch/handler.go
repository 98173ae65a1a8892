package batch

import (
	"encoding/json"
	"net/http"

	"Conduit/internal/calc/conduit"
)

type Handler struct {
	Selector *conduit.Selector
}

func (h *Handler) Conduit(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(h.Selector, input)
	if err != nil {
		conduit.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	conduit.WriteJSON(w, http.StatusOK, res)
}
