package llm

import (
	"fmt"

	"github.com/samber/lo"
)

// Catalog is the set of models a caller can ask for by name.
// It is read-only after construction and safe to share between goroutines.
type Catalog struct {
	models []Model
}

// NewCatalog creates a catalog. Model names must be unique.
func NewCatalog(models []Model) (*Catalog, error) {
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if m.Name == "" {
			return nil, fmt.Errorf("model with api name %q has no name", m.APIName)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("duplicate model name: %s", m.Name)
		}
		seen[m.Name] = true
	}
	return &Catalog{models: append([]Model(nil), models...)}, nil
}

// Models returns a copy of the catalog entries in order.
func (c *Catalog) Models() []Model {
	return append([]Model(nil), c.models...)
}

// Names returns the model names in catalog order.
func (c *Catalog) Names() []string {
	return lo.Map(c.models, func(m Model, _ int) string { return m.Name })
}

// Resolve finds a model by name. An exact match wins. Otherwise a single
// partial match (see PartialMatch) is accepted. "dummy" and "stdin" always
// resolve to the built-in test models when nothing else does. Anything else
// fails with an unknown-model error listing the partial-match candidates.
func (c *Catalog) Resolve(query string) (Model, error) {
	return Resolve(c.models, query)
}

// Resolve is Catalog.Resolve over a plain slice.
func Resolve(models []Model, query string) (Model, error) {
	if exact, ok := lo.Find(models, func(m Model) bool { return m.Name == query }); ok {
		return exact, nil
	}

	partial := lo.Filter(models, func(m Model, _ int) bool {
		return PartialMatch(m.Name, query)
	})

	switch {
	case len(partial) == 1:
		return partial[0], nil
	case query == "dummy":
		return DummyModel(), nil
	case query == "stdin":
		return StdinModel(), nil
	default:
		return Model{}, NewUnknownModelError(query, lo.Map(partial, func(m Model, _ int) string { return m.Name }))
	}
}

// PartialMatch reports whether needle's bytes appear in haystack in order,
// not necessarily contiguously. Matching is case-sensitive.
func PartialMatch(haystack, needle string) bool {
	n := 0
	for h := 0; h < len(haystack) && n < len(needle); h++ {
		if haystack[h] == needle[n] {
			n++
		}
	}
	return n == len(needle)
}
