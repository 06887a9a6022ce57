package engine

import "github.com/nathoo/storyloom/types"

// resolveNarrative flattens a narrative value into the final display
// string. Plain text passes through; localized arrays pick the configured
// locale (first entry when none is configured or none matches); variant
// arrays are condition-filtered and then drawn by weight. When every
// variant's condition fails, the first raw variant's text is used anyway
// so the scene never goes blank.
func (r *Runtime) resolveNarrative(text types.NarrativeText, s *types.GameState) string {
	if text.Localized != nil {
		return r.resolveLocalized(text.Localized)
	}
	if text.Variants != nil {
		return r.resolveVariants(text.Variants, s)
	}
	return text.Plain
}

func (r *Runtime) resolveLocalized(entries []types.LocalizedText) string {
	if len(entries) == 0 {
		return ""
	}
	if r.locale == "" {
		return entries[0].Text
	}
	for _, entry := range entries {
		if entry.Locale == r.locale {
			return entry.Text
		}
	}
	return entries[0].Text
}

func (r *Runtime) resolveVariants(variants []types.TextVariant, s *types.GameState) string {
	var filtered []types.TextVariant
	for _, variant := range variants {
		if variant.Condition == nil || r.EvalCondition(s, *variant.Condition) {
			filtered = append(filtered, variant)
		}
	}
	if len(filtered) == 0 {
		if len(variants) == 0 {
			return ""
		}
		return variants[0].Text
	}

	totalWeight := 0.0
	for _, variant := range filtered {
		totalWeight += variantWeight(variant)
	}

	pick := r.rng.Next() * totalWeight
	for _, variant := range filtered {
		pick -= variantWeight(variant)
		if pick <= 0 {
			return variant.Text
		}
	}
	return filtered[len(filtered)-1].Text
}

func variantWeight(v types.TextVariant) float64 {
	if v.Weight == 0 {
		return 1
	}
	return v.Weight
}
