package modules

import (
	"slices"

	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// All returns the built-in modules in their fixed execution order.
// Result order in reports follows this order, so it must stay stable.
func All() []pipeline.Module {
	return []pipeline.Module{
		NewSecurity(),
		NewPerformance(),
		NewSEO(),
		NewAccessibility(),
		NewAPI(),
		NewFunctional(),
		NewMetadata(),
	}
}

// Filter selects modules by name. When enabled is non-empty only those
// modules run; disabled removes modules afterwards, so it wins on conflict.
// Unknown names are ignored. Relative order is preserved.
func Filter(mods []pipeline.Module, enabled, disabled []string) []pipeline.Module {
	out := make([]pipeline.Module, 0, len(mods))
	for _, m := range mods {
		if len(enabled) > 0 && !slices.Contains(enabled, m.Name()) {
			continue
		}
		if slices.Contains(disabled, m.Name()) {
			continue
		}
		out = append(out, m)
	}
	return out
}
