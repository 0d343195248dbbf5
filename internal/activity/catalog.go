// Package activity provides the ordered activity lists offered for each mode.
package activity

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/satindergrewal/calmwave/internal/mode"
)

//go:embed activities.yaml
var defaultCatalog []byte

// Activity is a named sub-purpose within a mode.
type Activity struct {
	ID          string    `yaml:"id" json:"id"`
	Label       string    `yaml:"label" json:"label"`
	Description string    `yaml:"description" json:"description"`
	Mode        mode.Mode `yaml:"-" json:"mode"`
}

// Catalog is a read-mostly lookup of activities per mode. Safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	byMode map[mode.Mode][]Activity
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	byMode, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded activity catalog: %v", err))
	}
	return &Catalog{byMode: byMode}
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	byMode, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Catalog{byMode: byMode}, nil
}

func readFile(path string) (map[mode.Mode][]Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity catalog: %w", err)
	}
	byMode, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return byMode, nil
}

// Parse decodes a YAML catalog keyed by mode id. Modes may be omitted; an
// omitted mode simply has no activities.
func Parse(data []byte) (map[mode.Mode][]Activity, error) {
	var raw map[string][]Activity
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse activity catalog: %w", err)
	}

	out := make(map[mode.Mode][]Activity, len(raw))
	for key, list := range raw {
		m, err := mode.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("activity catalog: %w", err)
		}
		seen := make(map[string]bool, len(list))
		for i := range list {
			a := &list[i]
			if a.ID == "" || a.Label == "" {
				return nil, fmt.Errorf("activity catalog: %s entry %d needs id and label", m, i)
			}
			if seen[a.ID] {
				return nil, fmt.Errorf("activity catalog: duplicate id %q under %s", a.ID, m)
			}
			seen[a.ID] = true
			a.Mode = m
		}
		out[m] = list
	}
	return out, nil
}

// ActivitiesFor returns the ordered activities for m. The first element is the
// default selection. The result is a copy.
func (c *Catalog) ActivitiesFor(m mode.Mode) []Activity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.byMode[m]
	out := make([]Activity, len(list))
	copy(out, list)
	return out
}

// Find returns the activity with the given id under m.
func (c *Catalog) Find(m mode.Mode, id string) (Activity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.byMode[m] {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

// Replace swaps the whole catalog.
func (c *Catalog) Replace(byMode map[mode.Mode][]Activity) {
	c.mu.Lock()
	c.byMode = byMode
	c.mu.Unlock()
}
