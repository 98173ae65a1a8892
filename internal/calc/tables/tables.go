// Package tables holds the read-only conductor and conduit reference data of a
// regulatory edition. Tables are built once by Load and never modified, so a
// *Tables is safe for concurrent readers.
package tables

import "fmt"

// Insulation is a conductor insulation type (THW, XHHW, THHN).
type Insulation string

// Material is a conduit material family (EMT, PVC, IMC, RMC).
type Material string

const (
	InsulationTHW  Insulation = "THW"
	InsulationXHHW Insulation = "XHHW"
	InsulationTHHN Insulation = "THHN"

	MaterialEMT Material = "EMT"
	MaterialPVC Material = "PVC"
	MaterialIMC Material = "IMC"
	MaterialRMC Material = "RMC"
)

// LookupError reports a key that is absent from the loaded tables.
type LookupError struct {
	Table string
	Key   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: no entry for %q", e.Table, e.Key)
}

// Tables is one loaded regulatory edition.
type Tables struct {
	standard string
	version  string

	insulations []Insulation
	gauges      []string
	gaugeArea   map[Insulation]map[string]float64

	materials []Material
	sizes     map[Material][]string
	capacity  map[Material]map[string]float64
}

// Standard is the name of the regulation the edition belongs to.
func (t *Tables) Standard() string { return t.standard }

// Version is the edition version as written in the source data.
func (t *Tables) Version() string { return t.version }

// Insulations lists insulation types in table order.
func (t *Tables) Insulations() []Insulation {
	return append([]Insulation(nil), t.insulations...)
}

// Materials lists conduit materials in table order.
func (t *Tables) Materials() []Material {
	return append([]Material(nil), t.materials...)
}

// AreaOf returns the cross-sectional area in mm² of one insulated conductor.
func (t *Tables) AreaOf(ins Insulation, gauge string) (float64, error) {
	areas, ok := t.gaugeArea[ins]
	if !ok {
		return 0, &LookupError{Table: "insulation", Key: string(ins)}
	}
	area, ok := areas[gauge]
	if !ok {
		return 0, &LookupError{Table: "gauge " + string(ins), Key: gauge}
	}
	return area, nil
}

// CapacityOf returns the total internal area in mm² of a conduit trade size.
func (t *Tables) CapacityOf(m Material, size string) (float64, error) {
	areas, ok := t.capacity[m]
	if !ok {
		return 0, &LookupError{Table: "material", Key: string(m)}
	}
	area, ok := areas[size]
	if !ok {
		return 0, &LookupError{Table: "trade size " + string(m), Key: size}
	}
	return area, nil
}

// GaugesFor lists the gauge labels of an insulation type in table order.
func (t *Tables) GaugesFor(ins Insulation) ([]string, error) {
	if _, ok := t.gaugeArea[ins]; !ok {
		return nil, &LookupError{Table: "insulation", Key: string(ins)}
	}
	return append([]string(nil), t.gauges...), nil
}

// TradeSizesFor lists the trade sizes of a material, smallest first.
// Conduit selection relies on this order.
func (t *Tables) TradeSizesFor(m Material) ([]string, error) {
	sizes, ok := t.sizes[m]
	if !ok {
		return nil, &LookupError{Table: "material", Key: string(m)}
	}
	return append([]string(nil), sizes...), nil
}

// ParseInsulation resolves a label against the loaded insulation types.
func (t *Tables) ParseInsulation(s string) (Insulation, error) {
	ins := Insulation(s)
	if _, ok := t.gaugeArea[ins]; !ok {
		return "", &LookupError{Table: "insulation", Key: s}
	}
	return ins, nil
}

// ParseMaterial resolves a label against the loaded conduit materials.
func (t *Tables) ParseMaterial(s string) (Material, error) {
	m := Material(s)
	if _, ok := t.capacity[m]; !ok {
		return "", &LookupError{Table: "material", Key: s}
	}
	return m, nil
}
