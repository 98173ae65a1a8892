package importer

import (
	"errors"
	"net/http"

	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/conductor"
)

// maxUpload bounds the multipart body.
const maxUpload = 8 << 20

type Handler struct {
	Selector *conduit.Selector
}

type ConduitImportResult struct {
	Sheet
	Count  int             `json:"count"`
	Report *conduit.Report `json:"report,omitempty"`
}

// Conduit evaluates the conductors of an uploaded workbook ("file") in the
// material given by the "material" form field.
func (h *Handler) Conduit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		conduit.WriteError(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	t := h.Selector.Tables()
	material, err := t.ParseMaterial(r.FormValue("material"))
	if err != nil {
		conduit.WriteCalcError(w, &conductor.ValidationError{Field: "material", Value: r.FormValue("material"), Reason: "unknown conduit material"})
		return
	}

	sheet, err := Read(file, t)
	switch {
	case errors.Is(err, ErrEmptySheet):
		conduit.WriteError(w, "Empty sheet", http.StatusBadRequest)
		return
	case err != nil:
		conduit.WriteError(w, "Invalid file", http.StatusBadRequest)
		return
	}

	res := ConduitImportResult{Sheet: sheet, Count: len(sheet.Entries)}
	if len(sheet.Entries) > 0 {
		rep, err := h.Selector.Select(sheet.Entries, material)
		if err != nil {
			conduit.WriteCalcError(w, err)
			return
		}
		res.Report = &rep
	}
	conduit.WriteJSON(w, http.StatusOK, res)
}
