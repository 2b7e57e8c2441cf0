package tokens

import (
	"math"

	"compliance-audit-be/pkg/evidence"
)

// Budget carries the per-category token ceilings and the overall ceiling
// for one context build.
type Budget struct {
	// CategoryLimits maps evidence category to its token ceiling.
	// A missing entry means unlimited; a ceiling <= 0 empties the category.
	CategoryLimits map[string]int
	// TotalLimit caps the whole bundle including the focus chunk.
	// Zero means unlimited.
	TotalLimit int
}

// Scale returns a copy of the budget with every ceiling multiplied by the
// given factor. A factor of zero leaves the budget unchanged.
func (b Budget) Scale(factor float64) Budget {
	if factor == 0 || factor == 1 {
		return b
	}
	scaled := Budget{
		CategoryLimits: make(map[string]int, len(b.CategoryLimits)),
		TotalLimit:     int(math.Round(float64(b.TotalLimit) * factor)),
	}
	for category, limit := range b.CategoryLimits {
		scaled.CategoryLimits[category] = int(math.Round(float64(limit) * factor))
	}
	return scaled
}

// Trim drops slices from the bundle until every category fits its ceiling
// and the bundle fits the total ceiling. Within a category the lowest
// similarity goes first; slices without a score drop after all scored ones,
// and pinned slices drop only when nothing unpinned is left. Surviving
// slices keep their original order. The focus chunk is never dropped.
//
// Trim fills in TokenBreakdown, TotalTokens, and Truncated on the bundle.
func Trim(bundle *evidence.Bundle, budget Budget) {
	truncated := false

	for _, category := range evidence.Categories {
		limit, capped := budget.CategoryLimits[category]
		if !capped {
			continue
		}
		slices := bundle.ByCategory(category)
		kept, dropped := trimCategory(slices, limit)
		if dropped {
			truncated = true
		}
		bundle.SetCategory(category, kept)
	}

	// Global pass: overflow against the total ceiling sheds from the last
	// category backwards so siblings and regulations survive the longest.
	if budget.TotalLimit > 0 {
		for total := bundleTokens(bundle); total > budget.TotalLimit; total = bundleTokens(bundle) {
			overflow := total - budget.TotalLimit
			dropped := false
			for i := len(evidence.Categories) - 1; i >= 0; i-- {
				category := evidence.Categories[i]
				slices := bundle.ByCategory(category)
				if len(slices) == 0 {
					continue
				}
				current := sliceTokens(slices)
				target := current - overflow
				if target < 0 {
					target = 0
				}
				kept, didDrop := trimCategory(slices, target)
				bundle.SetCategory(category, kept)
				if didDrop {
					dropped = true
					truncated = true
				}
				break
			}
			if !dropped {
				break
			}
		}
	}

	breakdown := make(map[string]int, len(evidence.Categories))
	total := Estimate(bundle.Focus)
	for _, category := range evidence.Categories {
		t := sliceTokens(bundle.ByCategory(category))
		breakdown[category] = t
		total += t
	}
	bundle.TokenBreakdown = breakdown
	bundle.TotalTokens = total
	bundle.Truncated = bundle.Truncated || truncated
}

// trimCategory drops slices until the category total is at or under the
// limit, returning the survivors in their original order.
func trimCategory(slices []evidence.Slice, limit int) ([]evidence.Slice, bool) {
	if len(slices) == 0 {
		return slices, false
	}
	if limit <= 0 {
		return nil, true
	}

	total := sliceTokens(slices)
	if total <= limit {
		return slices, false
	}

	keep := make([]bool, len(slices))
	for i := range keep {
		keep[i] = true
	}
	for total > limit {
		victim := pickVictim(slices, keep)
		if victim < 0 {
			break
		}
		keep[victim] = false
		total -= slices[victim].TokenCount
	}

	kept := make([]evidence.Slice, 0, len(slices))
	for i, s := range slices {
		if keep[i] {
			kept = append(kept, s)
		}
	}
	return kept, true
}

// pickVictim selects the next slice to drop: unpinned before pinned,
// lowest score first, unscored last, worst retrieval rank breaking ties.
func pickVictim(slices []evidence.Slice, keep []bool) int {
	victim := -1
	for i := range slices {
		if !keep[i] {
			continue
		}
		if victim < 0 || dropsBefore(slices[i], slices[victim]) {
			victim = i
		}
	}
	return victim
}

func dropsBefore(a, b evidence.Slice) bool {
	if a.Pinned != b.Pinned {
		return !a.Pinned
	}
	as, bs := scoreOf(a), scoreOf(b)
	if as != bs {
		return as < bs
	}
	return a.Rank > b.Rank
}

func scoreOf(s evidence.Slice) float64 {
	if s.Score == nil {
		return math.Inf(1)
	}
	return *s.Score
}

func sliceTokens(slices []evidence.Slice) int {
	total := 0
	for _, s := range slices {
		total += s.TokenCount
	}
	return total
}

func bundleTokens(bundle *evidence.Bundle) int {
	total := Estimate(bundle.Focus)
	for _, category := range evidence.Categories {
		total += sliceTokens(bundle.ByCategory(category))
	}
	return total
}
