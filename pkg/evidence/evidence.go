// Package evidence holds the data shapes that flow between retrieval,
// budgeting, and analysis. It has no dependencies on the database or the
// retrieval machinery so that every layer can share it.
package evidence

// Categories a context slice can belong to. Budget trimming and bundle
// assembly both walk them in this fixed order.
const (
	CategorySibling    = "sibling"
	CategoryRegulation = "regulation"
	CategoryGuidance   = "guidance"
	CategoryPrecedent  = "precedent"
)

// Categories lists every slice category in assembly order.
var Categories = []string{CategorySibling, CategoryRegulation, CategoryGuidance, CategoryPrecedent}

// Slice is one retrieved passage of supporting context.
type Slice struct {
	Category string
	// Label identifies the passage to the analyst, e.g. a section path
	// or a regulation reference.
	Label   string
	Source  string
	Content string
	// TokenCount is the estimated token cost of Content.
	TokenCount int
	// Score is the retrieval similarity. Nil for slices that were not
	// fetched by similarity search (ordinal neighbors, pinned roots).
	Score *float64
	// Rank is the position the slice held in its retrieval result set.
	Rank int
	// Pinned slices survive trimming until everything unpinned in their
	// category is gone.
	Pinned   bool
	Metadata map[string]interface{}
}

// Bundle is the assembled context for one chunk, ready to be rendered
// into an analysis prompt.
type Bundle struct {
	// Focus is the chunk under audit.
	Focus       string
	FocusLabel  string
	Siblings    []Slice
	Regulations []Slice
	Guidance    []Slice
	Precedent   []Slice
	// TokenBreakdown maps category name to the token total that survived
	// trimming. TotalTokens includes the focus chunk.
	TokenBreakdown map[string]int
	TotalTokens    int
	// Truncated reports whether any slice was dropped to fit the budget.
	Truncated bool
}

// ByCategory returns the slices of one category. Unknown categories
// return nil.
func (b *Bundle) ByCategory(category string) []Slice {
	switch category {
	case CategorySibling:
		return b.Siblings
	case CategoryRegulation:
		return b.Regulations
	case CategoryGuidance:
		return b.Guidance
	case CategoryPrecedent:
		return b.Precedent
	}
	return nil
}

// SetCategory replaces the slices of one category.
func (b *Bundle) SetCategory(category string, slices []Slice) {
	switch category {
	case CategorySibling:
		b.Siblings = slices
	case CategoryRegulation:
		b.Regulations = slices
	case CategoryGuidance:
		b.Guidance = slices
	case CategoryPrecedent:
		b.Precedent = slices
	}
}

// All returns every slice in assembly order.
func (b *Bundle) All() []Slice {
	out := make([]Slice, 0, len(b.Siblings)+len(b.Regulations)+len(b.Guidance)+len(b.Precedent))
	out = append(out, b.Siblings...)
	out = append(out, b.Regulations...)
	out = append(out, b.Guidance...)
	out = append(out, b.Precedent...)
	return out
}

// BuildOptions tunes one context build without touching global config.
// The runner uses it for refinement passes and draft mode.
type BuildOptions struct {
	// NeighborWindow overrides the configured ordinal window when set.
	NeighborWindow *int
	// BudgetMultiplier scales every token ceiling. Zero means 1.0.
	BudgetMultiplier float64
	// IncludeEvidence pulls the precedent corpus into the bundle.
	// Draft runs leave it off.
	IncludeEvidence bool
	// ExtraQuery adds a targeted retrieval query on top of the chunk
	// content. Refinement passes put the analyst's follow-up here.
	ExtraQuery string
}
