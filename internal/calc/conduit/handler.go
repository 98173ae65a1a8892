package conduit

import (
	"encoding/json"
	"errors"
	"net/http"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/tables"

	"github.com/rs/zerolog/log"
)

// Request is the JSON body shared by the conduit tools.
type Request struct {
	Material   string            `json:"material"`
	TradeSize  string            `json:"trade_size,omitempty"`
	Conductors []conductor.Input `json:"conductors"`
}

// Resolve validates the request against the tables.
func (req Request) Resolve(t *tables.Tables) ([]conductor.Entry, tables.Material, error) {
	if req.Material == "" {
		return nil, "", &conductor.ValidationError{Field: "material", Reason: "is required"}
	}
	material, err := t.ParseMaterial(req.Material)
	if err != nil {
		return nil, "", &conductor.ValidationError{Field: "material", Value: req.Material, Reason: "unknown conduit material"}
	}
	entries, err := conductor.ParseAll(t, req.Conductors)
	if err != nil {
		return nil, "", err
	}
	return entries, material, nil
}

type Handler struct {
	Selector *Selector
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	entries, material, err := req.Resolve(h.Selector.Tables())
	if err != nil {
		WriteCalcError(w, err)
		return
	}
	rep, err := h.Selector.Select(entries, material)
	if err != nil {
		WriteCalcError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.TradeSize == "" {
		WriteError(w, "trade_size: is required", http.StatusBadRequest)
		return
	}
	entries, material, err := req.Resolve(h.Selector.Tables())
	if err != nil {
		WriteCalcError(w, err)
		return
	}
	if _, err := h.Selector.Tables().CapacityOf(material, req.TradeSize); err != nil {
		WriteError(w, "trade_size: unknown trade size for "+string(material), http.StatusBadRequest)
		return
	}
	res, err := h.Selector.Check(entries, material, req.TradeSize)
	if err != nil {
		WriteCalcError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Code  int    `json:"code"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, errorBody{Error: message, Code: code})
}

// WriteCalcError maps engine errors to responses: bad input and empty
// conductor sets are the caller's to fix, table misses are internal.
func WriteCalcError(w http.ResponseWriter, err error) {
	var vErr *conductor.ValidationError
	var lErr *tables.LookupError
	switch {
	case errors.As(err, &vErr):
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: vErr.Field, Code: http.StatusBadRequest})
	case errors.Is(err, ErrEmptyInput):
		WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &lErr):
		log.Error().Err(err).Msg("reference table lookup failed")
		WriteError(w, "Calculation error", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Msg("conduit calculation failed")
		WriteError(w, "Calculation error", http.StatusInternalServerError)
	}
}
