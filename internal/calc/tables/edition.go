package tables

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

//go:embed editions/*.yaml
var editionFiles embed.FS

type editionDoc struct {
	Standard   string         `yaml:"standard"`
	Version    string         `yaml:"version"`
	Conductors []conductorDoc `yaml:"conductors"`
	Conduits   []conduitDoc   `yaml:"conduits"`
}

type conductorDoc struct {
	Insulation string     `yaml:"insulation"`
	Gauges     []gaugeDoc `yaml:"gauges"`
}

type gaugeDoc struct {
	Gauge   string  `yaml:"gauge"`
	AreaMM2 float64 `yaml:"area_mm2"`
}

type conduitDoc struct {
	Material string    `yaml:"material"`
	Sizes    []sizeDoc `yaml:"sizes"`
}

type sizeDoc struct {
	TradeSize string  `yaml:"trade_size"`
	AreaMM2   float64 `yaml:"area_mm2"`
}

// Load parses an edition document and checks the table invariants: every
// insulation carries the same ordered gauge set, areas are positive and
// conduit areas strictly increase with trade size.
func Load(data []byte) (*Tables, error) {
	var doc editionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing edition YAML: %w", err)
	}
	if doc.Standard == "" {
		return nil, fmt.Errorf("edition: standard is required")
	}
	if _, err := semver.NewVersion(doc.Version); err != nil {
		return nil, fmt.Errorf("edition %s: invalid version %q: %w", doc.Standard, doc.Version, err)
	}
	if len(doc.Conductors) == 0 || len(doc.Conduits) == 0 {
		return nil, fmt.Errorf("edition %s: conductor and conduit tables are required", doc.Standard)
	}

	t := &Tables{
		standard:  doc.Standard,
		version:   doc.Version,
		gaugeArea: make(map[Insulation]map[string]float64, len(doc.Conductors)),
		sizes:     make(map[Material][]string, len(doc.Conduits)),
		capacity:  make(map[Material]map[string]float64, len(doc.Conduits)),
	}

	for i, c := range doc.Conductors {
		ins := Insulation(c.Insulation)
		if ins == "" {
			return nil, fmt.Errorf("conductor table %d: insulation is required", i)
		}
		if _, dup := t.gaugeArea[ins]; dup {
			return nil, fmt.Errorf("conductor table %s: duplicated", ins)
		}
		if len(c.Gauges) == 0 {
			return nil, fmt.Errorf("conductor table %s: no gauges", ins)
		}
		if i > 0 && len(c.Gauges) != len(t.gauges) {
			return nil, fmt.Errorf("conductor table %s: has %d gauges, want %d", ins, len(c.Gauges), len(t.gauges))
		}
		areas := make(map[string]float64, len(c.Gauges))
		for j, g := range c.Gauges {
			if g.Gauge == "" {
				return nil, fmt.Errorf("conductor table %s: row %d has no gauge", ins, j)
			}
			if _, dup := areas[g.Gauge]; dup {
				return nil, fmt.Errorf("conductor table %s: gauge %s duplicated", ins, g.Gauge)
			}
			if g.AreaMM2 <= 0 {
				return nil, fmt.Errorf("conductor table %s: gauge %s area must be positive", ins, g.Gauge)
			}
			if i == 0 {
				t.gauges = append(t.gauges, g.Gauge)
			} else if t.gauges[j] != g.Gauge {
				return nil, fmt.Errorf("conductor table %s: gauge %d is %s, want %s", ins, j, g.Gauge, t.gauges[j])
			}
			areas[g.Gauge] = g.AreaMM2
		}
		t.insulations = append(t.insulations, ins)
		t.gaugeArea[ins] = areas
	}

	for _, c := range doc.Conduits {
		m := Material(c.Material)
		if m == "" {
			return nil, fmt.Errorf("conduit table: material is required")
		}
		if _, dup := t.capacity[m]; dup {
			return nil, fmt.Errorf("conduit table %s: duplicated", m)
		}
		if len(c.Sizes) == 0 {
			return nil, fmt.Errorf("conduit table %s: no trade sizes", m)
		}
		areas := make(map[string]float64, len(c.Sizes))
		sizes := make([]string, 0, len(c.Sizes))
		prev := 0.0
		for _, s := range c.Sizes {
			if s.TradeSize == "" {
				return nil, fmt.Errorf("conduit table %s: trade size label is required", m)
			}
			if _, dup := areas[s.TradeSize]; dup {
				return nil, fmt.Errorf("conduit table %s: trade size %s duplicated", m, s.TradeSize)
			}
			if s.AreaMM2 <= prev {
				return nil, fmt.Errorf("conduit table %s: area of %s must be positive and larger than the previous size", m, s.TradeSize)
			}
			prev = s.AreaMM2
			areas[s.TradeSize] = s.AreaMM2
			sizes = append(sizes, s.TradeSize)
		}
		t.materials = append(t.materials, m)
		t.sizes[m] = sizes
		t.capacity[m] = areas
	}

	return t, nil
}

// LoadFile reads an edition from disk.
func LoadFile(name string) (*Tables, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading edition file: %w", err)
	}
	return Load(data)
}

var (
	embeddedOnce sync.Once
	embedded     []*Tables
	embeddedErr  error
)

// Editions returns the bundled editions ordered by version, newest first.
func Editions() ([]*Tables, error) {
	embeddedOnce.Do(func() {
		entries, err := editionFiles.ReadDir("editions")
		if err != nil {
			embeddedErr = err
			return
		}
		for _, e := range entries {
			data, err := editionFiles.ReadFile(path.Join("editions", e.Name()))
			if err != nil {
				embeddedErr = err
				return
			}
			t, err := Load(data)
			if err != nil {
				embeddedErr = fmt.Errorf("%s: %w", e.Name(), err)
				return
			}
			embedded = append(embedded, t)
		}
		sort.SliceStable(embedded, func(i, j int) bool {
			vi := semver.MustParse(embedded[i].version)
			vj := semver.MustParse(embedded[j].version)
			return vi.GreaterThan(vj)
		})
	})
	if embeddedErr != nil {
		return nil, embeddedErr
	}
	return append([]*Tables(nil), embedded...), nil
}

// Edition returns the newest bundled edition of the named standard.
func Edition(standard string) (*Tables, error) {
	all, err := Editions()
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.standard == standard {
			return t, nil
		}
	}
	return nil, &LookupError{Table: "edition", Key: standard}
}

// Default returns the newest bundled edition. Bundled data is validated by
// tests, so a failure here is a build defect.
func Default() *Tables {
	all, err := Editions()
	if err != nil {
		panic(fmt.Sprintf("tables: bundled editions: %v", err))
	}
	return all[0]
}
