package tables

import (
	"encoding/json"
	"net/http"
)

type GaugeRow struct {
	Gauge   string  `json:"gauge"`
	AreaMM2 float64 `json:"area_mm2"`
}

type SizeRow struct {
	TradeSize string  `json:"trade_size"`
	AreaMM2   float64 `json:"area_mm2"`
}

// Catalog is the picker data a client needs to build conductor entries.
type Catalog struct {
	Standard   string                    `json:"standard"`
	Version    string                    `json:"version"`
	Conductors map[Insulation][]GaugeRow `json:"conductors"`
	Conduits   map[Material][]SizeRow    `json:"conduits"`
	Order      struct {
		Insulations []Insulation `json:"insulations"`
		Materials   []Material   `json:"materials"`
	} `json:"order"`
}

func (t *Tables) Catalog() Catalog {
	c := Catalog{
		Standard:   t.standard,
		Version:    t.version,
		Conductors: make(map[Insulation][]GaugeRow, len(t.insulations)),
		Conduits:   make(map[Material][]SizeRow, len(t.materials)),
	}
	c.Order.Insulations = t.Insulations()
	c.Order.Materials = t.Materials()
	for _, ins := range t.insulations {
		rows := make([]GaugeRow, 0, len(t.gauges))
		for _, g := range t.gauges {
			rows = append(rows, GaugeRow{Gauge: g, AreaMM2: t.gaugeArea[ins][g]})
		}
		c.Conductors[ins] = rows
	}
	for _, m := range t.materials {
		rows := make([]SizeRow, 0, len(t.sizes[m]))
		for _, s := range t.sizes[m] {
			rows = append(rows, SizeRow{TradeSize: s, AreaMM2: t.capacity[m][s]})
		}
		c.Conduits[m] = rows
	}
	return c
}

type Handler struct {
	Tables *Tables
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Tables.Catalog())
}
