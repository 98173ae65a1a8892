package project

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"Conduit/internal/auth"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/tables"
	"Conduit/internal/repo"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	nextID   int
	projects map[int]*repo.Project
	err      error
	// rejectGauge makes a conductor insert fail, as a constraint would.
	rejectGauge string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{projects: map[int]*repo.Project{}}
}

func (m *memoryStore) owned(userID, id int) (*repo.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) CreateProject(_ context.Context, userID int, name, material string, conductors []repo.StoredConductor) (repo.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return repo.Project{}, m.err
	}
	for _, c := range conductors {
		if c.Gauge == m.rejectGauge {
			return repo.Project{}, errors.New("insert conductor: constraint violation")
		}
	}
	m.nextID++
	p := &repo.Project{ID: m.nextID, UserID: userID, Name: name, Material: material, CreatedAt: time.Now(),
		Conductors: append([]repo.StoredConductor{}, conductors...)}
	m.projects[p.ID] = p
	return *p, nil
}

func (m *memoryStore) ListProjects(_ context.Context, userID int) ([]repo.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []repo.Project{}
	for id := m.nextID; id > 0; id-- {
		if p, ok := m.projects[id]; ok && p.UserID == userID {
			cp := *p
			cp.Conductors = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *memoryStore) GetProject(_ context.Context, userID, id int) (repo.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.owned(userID, id)
	if err != nil {
		return repo.Project{}, err
	}
	cp := *p
	cp.Conductors = append([]repo.StoredConductor{}, p.Conductors...)
	return cp, nil
}

func (m *memoryStore) DeleteProject(_ context.Context, userID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(userID, id); err != nil {
		return err
	}
	delete(m.projects, id)
	return nil
}

func (m *memoryStore) AddConductor(_ context.Context, userID, projectID int, c repo.StoredConductor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.owned(userID, projectID)
	if err != nil {
		return err
	}
	p.Conductors = append(p.Conductors, c)
	return nil
}

func (m *memoryStore) RemoveConductor(_ context.Context, userID, projectID, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.owned(userID, projectID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(p.Conductors) {
		return repo.ErrNotFound
	}
	p.Conductors = append(p.Conductors[:index], p.Conductors[index+1:]...)
	return nil
}

func (m *memoryStore) ClearConductors(_ context.Context, userID, projectID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.owned(userID, projectID)
	if err != nil {
		return err
	}
	p.Conductors = []repo.StoredConductor{}
	return nil
}

type fixture struct {
	store  *memoryStore
	router *mux.Router
}

func newFixture() *fixture {
	store := newMemoryStore()
	h := &ProjectHandler{Repo: store, Selector: conduit.NewSelector(tables.Default())}
	r := mux.NewRouter()
	r.HandleFunc("/projects", h.List).Methods("GET")
	r.HandleFunc("/projects", h.Create).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}", h.Get).Methods("GET")
	r.HandleFunc("/projects/{id:[0-9]+}", h.Delete).Methods("DELETE")
	r.HandleFunc("/projects/{id:[0-9]+}/conductors", h.AddConductor).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}/conductors", h.ClearConductors).Methods("DELETE")
	r.HandleFunc("/projects/{id:[0-9]+}/conductors/{index:[0-9]+}", h.RemoveConductor).Methods("DELETE")
	r.HandleFunc("/projects/{id:[0-9]+}/calculate", h.Calculate).Methods("POST")
	return &fixture{store: store, router: r}
}

func (f *fixture) do(t *testing.T, userID int, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestCreateIsAllOrNothing(t *testing.T) {
	f := newFixture()
	f.store.rejectGauge = "10"

	w := f.do(t, 1, "POST", "/projects", `{"name":"Panel A","material":"EMT","conductors":[
		{"insulation":"THW","gauge":"12","quantity":3},
		{"insulation":"THHN","gauge":"10","quantity":2}]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = f.do(t, 1, "GET", "/projects", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]repo.Project](t, w))
}

func TestProjectLifecycle(t *testing.T) {
	f := newFixture()

	w := f.do(t, 1, "POST", "/projects", `{"name":"Panel A","material":"EMT","conductors":[{"insulation":"THW","gauge":"12","quantity":3}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[repo.Project](t, w)
	assert.Equal(t, "Panel A", p.Name)
	require.Len(t, p.Conductors, 1)

	w = f.do(t, 1, "POST", "/projects/1/conductors", `{"insulation":"THHN","gauge":"10","quantity":"4"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	p = decode[repo.Project](t, w)
	assert.Equal(t, []repo.StoredConductor{
		{Insulation: "THW", Gauge: "12", Quantity: 3},
		{Insulation: "THHN", Gauge: "10", Quantity: 4},
	}, p.Conductors)

	w = f.do(t, 1, "POST", "/projects/1/calculate", "")
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode[conduit.Report](t, w)
	assert.Equal(t, tables.MaterialEMT, rep.Material)
	assert.Equal(t, 7, rep.ConductorCount)
	assert.InDelta(t, 9.93+16.72, rep.RequiredArea, 1e-9)

	w = f.do(t, 1, "POST", "/projects/1/calculate", `{"material":"IMC"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tables.MaterialIMC, decode[conduit.Report](t, w).Material)

	w = f.do(t, 1, "DELETE", "/projects/1/conductors/0", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []repo.StoredConductor{{Insulation: "THHN", Gauge: "10", Quantity: 4}}, decode[repo.Project](t, w).Conductors)

	w = f.do(t, 1, "DELETE", "/projects/1/conductors/5", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, 1, "DELETE", "/projects/1/conductors", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[repo.Project](t, w).Conductors)

	w = f.do(t, 1, "POST", "/projects/1/calculate", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, 1, "GET", "/projects", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]repo.Project](t, w), 1)

	w = f.do(t, 1, "DELETE", "/projects/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, 1, "GET", "/projects/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectsAreScopedToOwner(t *testing.T) {
	f := newFixture()
	require.Equal(t, http.StatusCreated, f.do(t, 1, "POST", "/projects", `{"name":"mine","material":"PVC"}`).Code)

	assert.Equal(t, http.StatusNotFound, f.do(t, 2, "GET", "/projects/1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, 2, "POST", "/projects/1/conductors", `{"insulation":"THW","gauge":"12","quantity":1}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, 2, "DELETE", "/projects/1", "").Code)
	assert.Empty(t, decode[[]repo.Project](t, f.do(t, 2, "GET", "/projects", "")))
}

func TestProjectValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"material":"EMT"}`},
		{"unknown material", `{"name":"x","material":"FMC"}`},
		{"bad conductor", `{"name":"x","material":"EMT","conductors":[{"insulation":"THW","gauge":"12","quantity":-1}]}`},
		{"malformed", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(t, 1, "POST", "/projects", tt.body).Code)
		})
	}

	require.Equal(t, http.StatusCreated, f.do(t, 1, "POST", "/projects", `{"name":"x","material":"EMT"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, 1, "POST", "/projects/1/conductors", `{"insulation":"THW","gauge":"0","quantity":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, 1, "POST", "/projects/1/calculate", `{"material":"FMC"}`).Code)
}

func TestProjectErrors(t *testing.T) {
	f := newFixture()

	assert.Equal(t, http.StatusUnauthorized, f.do(t, 0, "GET", "/projects", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, 0, "GET", "/projects/1", "").Code)

	f.store.err = errors.New("connection refused")
	assert.Equal(t, http.StatusInternalServerError, f.do(t, 1, "GET", "/projects", "").Code)
}
