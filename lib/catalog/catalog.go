package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog maps a category name to the ordered search queries run for it.
// The category also decides which outreach template a discovered address
// gets later, so catalog keys and template keys share a namespace.
type Catalog map[string][]string

func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Catalog
	err = yaml.Unmarshal(raw, &c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("%s: catalog has no categories", path)
	}
	for category, queries := range c {
		if category == "" {
			return nil, fmt.Errorf("%s: empty category name", path)
		}
		if len(queries) == 0 {
			return nil, fmt.Errorf("%s: category %q has no queries", path, category)
		}
		for _, q := range queries {
			if q == "" {
				return nil, fmt.Errorf("%s: category %q has an empty query", path, category)
			}
		}
	}
	return c, nil
}

// Categories returns the category names in a stable order.
func (c Catalog) Categories() []string {
	out := make([]string, 0, len(c))
	for category := range c {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Filter restricts the catalog to the named categories. Naming a
// category the catalog doesn't have is a configuration mistake, not a
// skippable item, so it errors.
func (c Catalog) Filter(categories []string) (Catalog, error) {
	if len(categories) == 0 {
		return c, nil
	}
	out := Catalog{}
	for _, category := range categories {
		queries, ok := c[category]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", category)
		}
		out[category] = queries
	}
	return out, nil
}
