package store

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/taxonomy"
)

// DefaultParameterLimit caps parameter queries that do not ask for a limit.
const DefaultParameterLimit = 200

type catalogFile struct {
	Makes []struct {
		Name   string `yaml:"name"`
		Models []struct {
			Name        string `yaml:"name"`
			Generations []struct {
				ID    int    `yaml:"id"`
				Label string `yaml:"label"`
			} `yaml:"generations"`
		} `yaml:"models"`
	} `yaml:"makes"`
	Parameters []catalog.Entry     `yaml:"parameters"`
	BusTypes   []catalog.BusType   `yaml:"bus_types"`
	CanBuses   []catalog.CanBus    `yaml:"can_buses"`
	Dimensions []catalog.Dimension `yaml:"dimensions"`
}

type modelKey struct {
	makeName  string
	modelName string
}

// Catalog is the read-only vehicle and parameter catalog the daemon serves
// from, loaded once from a YAML data file.
type Catalog struct {
	makes       []string
	models      map[string][]string
	generations map[modelKey][]taxonomy.Generation
	params      []catalog.Entry
	paramNames  map[int]string
	busTypes    []catalog.BusType
	canBuses    []catalog.CanBus
	dimensions  []catalog.Dimension
}

// LoadCatalog parses the catalog data file. Blank names are dropped;
// duplicate generation identifiers are an error.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var file catalogFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return buildCatalog(file)
}

func buildCatalog(file catalogFile) (*Catalog, error) {
	c := &Catalog{
		models:      make(map[string][]string),
		generations: make(map[modelKey][]taxonomy.Generation),
		paramNames:  make(map[int]string),
		busTypes:    file.BusTypes,
		canBuses:    file.CanBuses,
		dimensions:  file.Dimensions,
	}
	seenGen := make(map[int]struct{})
	for _, mk := range file.Makes {
		makeName := strings.TrimSpace(mk.Name)
		if makeName == "" {
			continue
		}
		if _, ok := c.models[makeName]; ok {
			return nil, fmt.Errorf("duplicate make %q", makeName)
		}
		c.makes = append(c.makes, makeName)
		for _, mdl := range mk.Models {
			modelName := strings.TrimSpace(mdl.Name)
			if modelName == "" {
				continue
			}
			c.models[makeName] = append(c.models[makeName], modelName)
			key := modelKey{makeName: makeName, modelName: modelName}
			for _, gen := range mdl.Generations {
				if _, ok := seenGen[gen.ID]; ok {
					return nil, fmt.Errorf("duplicate generation id %d", gen.ID)
				}
				seenGen[gen.ID] = struct{}{}
				label := strings.TrimSpace(gen.Label)
				if label == "" {
					label = fmt.Sprintf("generation %d", gen.ID)
				}
				c.generations[key] = append(c.generations[key], taxonomy.Generation{ID: gen.ID, Label: label})
			}
		}
		sort.Strings(c.models[makeName])
	}
	sort.Strings(c.makes)

	for _, p := range file.Parameters {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if _, ok := c.paramNames[p.ID]; ok {
			return nil, fmt.Errorf("duplicate parameter id %d", p.ID)
		}
		c.paramNames[p.ID] = name
		c.params = append(c.params, catalog.Entry{ID: p.ID, Name: name})
	}
	sort.Slice(c.params, func(i, j int) bool { return c.params[i].Name < c.params[j].Name })
	return c, nil
}

// Makes returns the distinct make names, sorted.
func (c *Catalog) Makes() []string {
	return c.makes
}

// Models returns the models of one make, sorted.
func (c *Catalog) Models(makeName string) []string {
	return c.models[strings.TrimSpace(makeName)]
}

// Generations returns the generations of one make and model in catalog
// order. Labels are never blank; blank labels were replaced at load time.
func (c *Catalog) Generations(makeName, modelName string) []taxonomy.Generation {
	key := modelKey{
		makeName:  strings.TrimSpace(makeName),
		modelName: strings.TrimSpace(modelName),
	}
	return c.generations[key]
}

// Parameters returns catalog entries sorted by name, optionally narrowed to
// names containing query, capped at limit (DefaultParameterLimit when limit
// is not positive).
func (c *Catalog) Parameters(query string, limit int) []catalog.Entry {
	if limit <= 0 {
		limit = DefaultParameterLimit
	}
	query = strings.TrimSpace(query)
	out := make([]catalog.Entry, 0, limit)
	for _, p := range c.params {
		if query != "" && !strings.Contains(p.Name, query) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ParameterName resolves a catalog identifier back to its display name.
func (c *Catalog) ParameterName(id int) (string, bool) {
	name, ok := c.paramNames[id]
	return name, ok
}

// BusTypes returns the bus-type metadata rows.
func (c *Catalog) BusTypes() []catalog.BusType { return c.busTypes }

// CanBuses returns the bus-speed metadata rows.
func (c *Catalog) CanBuses() []catalog.CanBus { return c.canBuses }

// Dimensions returns the physical-unit metadata rows.
func (c *Catalog) Dimensions() []catalog.Dimension { return c.dimensions }
