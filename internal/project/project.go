// Package project serves a user's saved conductor collections and
// calculates them on demand. Reports are never stored.
package project

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"Conduit/internal/auth"
	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/repo"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type ProjectHandler struct {
	Repo     repo.ProjectStore
	Selector *conduit.Selector
}

type CreateRequest struct {
	Name       string            `json:"name"`
	Material   string            `json:"material"`
	Conductors []conductor.Input `json:"conductors"`
}

type CalculateRequest struct {
	Material string `json:"material"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		conduit.WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	projects, err := h.Repo.ListProjects(r.Context(), userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	conduit.WriteJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		conduit.WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		conduit.WriteCalcError(w, &conductor.ValidationError{Field: "name", Reason: "is required"})
		return
	}
	t := h.Selector.Tables()
	material, err := t.ParseMaterial(strings.TrimSpace(req.Material))
	if err != nil {
		conduit.WriteCalcError(w, &conductor.ValidationError{Field: "material", Value: req.Material, Reason: "unknown conduit material"})
		return
	}
	entries, err := conductor.ParseAll(t, req.Conductors)
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}

	conductors := make([]repo.StoredConductor, 0, len(entries))
	for _, e := range entries {
		conductors = append(conductors, stored(e))
	}
	p, err := h.Repo.CreateProject(r.Context(), userID, req.Name, string(material), conductors)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	h.respondProject(w, r, userID, p.ID, http.StatusCreated)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ids(w, r)
	if !ok {
		return
	}
	h.respondProject(w, r, userID, id, http.StatusOK)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ids(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteProject(r.Context(), userID, id); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddConductor validates one conductor and appends it to the project.
func (h *ProjectHandler) AddConductor(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ids(w, r)
	if !ok {
		return
	}
	var in conductor.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	e, err := conductor.Create(h.Selector.Tables(), in.Insulation, in.Gauge, in.Quantity.String())
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}
	if err := h.Repo.AddConductor(r.Context(), userID, id, stored(e)); err != nil {
		writeRepoError(w, err)
		return
	}
	h.respondProject(w, r, userID, id, http.StatusCreated)
}

func (h *ProjectHandler) RemoveConductor(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ids(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		conduit.WriteError(w, "Invalid conductor index", http.StatusBadRequest)
		return
	}
	if err := h.Repo.RemoveConductor(r.Context(), userID, id, index); err != nil {
		writeRepoError(w, err)
		return
	}
	h.respondProject(w, r, userID, id, http.StatusOK)
}

func (h *ProjectHandler) ClearConductors(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ids(w, r)
	if !ok {
		return
	}
	if err := h.Repo.ClearConductors(r.Context(), userID, id); err != nil {
		writeRepoError(w, err)
		return
	}
	h.respondProject(w, r, userID, id, http.StatusOK)
}

// Calculate runs the selector over the saved conductors. The body may name
// another material; an empty body uses the project's own.
func (h *ProjectHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ids(w, r)
	if !ok {
		return
	}
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		conduit.WriteError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	p, err := h.Repo.GetProject(r.Context(), userID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	list, err := Collection(h.Selector, p)
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}

	materialName := p.Material
	if strings.TrimSpace(req.Material) != "" {
		materialName = strings.TrimSpace(req.Material)
	}
	material, err := h.Selector.Tables().ParseMaterial(materialName)
	if err != nil {
		conduit.WriteCalcError(w, &conductor.ValidationError{Field: "material", Value: materialName, Reason: "unknown conduit material"})
		return
	}

	rep, err := h.Selector.Select(list.Entries(), material)
	if err != nil {
		conduit.WriteCalcError(w, err)
		return
	}
	conduit.WriteJSON(w, http.StatusOK, rep)
}

// Collection revalidates a saved project's conductors against the current
// tables and returns them as a working list.
func Collection(sel *conduit.Selector, p repo.Project) (*conductor.List, error) {
	list := conductor.NewList()
	for _, c := range p.Conductors {
		e, err := conductor.Create(sel.Tables(), c.Insulation, c.Gauge, strconv.Itoa(c.Quantity))
		if err != nil {
			return nil, err
		}
		list.Add(e)
	}
	return list, nil
}

func (h *ProjectHandler) respondProject(w http.ResponseWriter, r *http.Request, userID, id, code int) {
	p, err := h.Repo.GetProject(r.Context(), userID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	conduit.WriteJSON(w, code, p)
}

func ids(w http.ResponseWriter, r *http.Request) (userID, id int, ok bool) {
	userID, ok = auth.UserID(r.Context())
	if !ok {
		conduit.WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		conduit.WriteError(w, "Invalid project id", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, id, true
}

func stored(e conductor.Entry) repo.StoredConductor {
	return repo.StoredConductor{Insulation: string(e.Insulation), Gauge: e.Gauge, Quantity: e.Quantity}
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		conduit.WriteError(w, "Project not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("project store")
	conduit.WriteError(w, "DB error", http.StatusInternalServerError)
}
