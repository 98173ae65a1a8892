package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"Conduit/internal/calc/conduit"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Input is a calculation request plus the document header.
type Input struct {
	conduit.Request
	Meta
}

type Handler struct {
	Selector *conduit.Selector
	Now      func() time.Time
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		conduit.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	entries, material, err := input.Resolve(h.Selector.Tables())
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}
	rep, err := h.Selector.Select(entries, material)
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}

	doc := NewDocument(rep, input.Meta, h.now())
	var buf bytes.Buffer
	if err := Write(&buf, format, doc); err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("report generation failed")
		conduit.WriteError(w, "Report generation error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(doc)))
	w.Write(buf.Bytes())
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
