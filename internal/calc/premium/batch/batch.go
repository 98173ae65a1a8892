// Package batch evaluates many independent conductor projects in one call.
package batch

import (
	"errors"
	"fmt"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"

	"github.com/rs/zerolog/log"
)

// MaxProjects bounds a single batch request.
const MaxProjects = 200

var ErrNoProjects = errors.New("no projects")

type Project struct {
	Name string `json:"name"`
	conduit.Request
}

type Input struct {
	Projects []Project `json:"projects"`
}

// Item is the outcome of one project: a report or the reason it has none.
type Item struct {
	Name   string          `json:"name"`
	Report *conduit.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
	Field  string          `json:"field,omitempty"`
}

type Result struct {
	Count         int    `json:"count"`
	Compliant     int    `json:"compliant"`
	NoneCompliant int    `json:"none_compliant"`
	Failed        int    `json:"failed"`
	Items         []Item `json:"items"`
}

// Calculate runs each project on its own; one bad project does not stop the
// others.
func Calculate(sel *conduit.Selector, in Input) (Result, error) {
	if len(in.Projects) == 0 {
		return Result{}, ErrNoProjects
	}
	if len(in.Projects) > MaxProjects {
		return Result{}, fmt.Errorf("%d projects exceed the limit of %d", len(in.Projects), MaxProjects)
	}

	out := Result{Count: len(in.Projects), Items: make([]Item, 0, len(in.Projects))}
	for i, p := range in.Projects {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("project %d", i+1)
		}
		item := Item{Name: name}

		rep, err := run(sel, p.Request)
		if err != nil {
			item.Error = err.Error()
			var vErr *conductor.ValidationError
			if errors.As(err, &vErr) {
				item.Field = vErr.Field
			}
			out.Failed++
			out.Items = append(out.Items, item)
			continue
		}

		item.Report = &rep
		if rep.NoneCompliant() {
			out.NoneCompliant++
		} else {
			out.Compliant++
		}
		out.Items = append(out.Items, item)
	}

	log.Debug().Int("projects", out.Count).Int("failed", out.Failed).Msg("batch calculation")
	return out, nil
}

func run(sel *conduit.Selector, req conduit.Request) (conduit.Report, error) {
	entries, material, err := req.Resolve(sel.Tables())
	if err != nil {
		return conduit.Report{}, err
	}
	return sel.Select(entries, material)
}
