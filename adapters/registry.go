package adapters

import (
	"fmt"
	"sort"
	"strings"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

// Probe is one named strategy chain of an adapter.
type Probe struct {
	Name       string
	Strategies []utils.Strategy
}

// Prober is implemented by adapters that expose their strategy chains for
// selector drift diagnosis.
type Prober interface {
	Probes() []Probe
}

type constructor func(driver utils.Driver, config types.Config, logger types.Logger) types.SiteAdapter

var registry = map[string]constructor{
	"chemistwarehouse": func(d utils.Driver, c types.Config, l types.Logger) types.SiteAdapter {
		return NewChemistWarehouseAdapter(d, c, l)
	},
	"mecca": func(d utils.Driver, c types.Config, l types.Logger) types.SiteAdapter {
		return NewMeccaAdapter(d, c, l)
	},
	"myer": func(d utils.Driver, c types.Config, l types.Logger) types.SiteAdapter {
		return NewMyerAdapter(d, c, l)
	},
}

// Names returns the registered retailer keys in order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize maps "Chemist Warehouse", "chemist-warehouse" and similar to the
// registry key
func Normalize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// New selects the adapter for a retailer once at startup
func New(name string, driver utils.Driver, config types.Config, logger types.Logger) (types.SiteAdapter, error) {
	build, ok := registry[Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", types.ErrUnknownRetailer, name, strings.Join(Names(), ", "))
	}
	return build(driver, config, logger), nil
}
