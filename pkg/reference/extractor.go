// Package reference finds cross references to other sections, chapters,
// and regulation clauses inside chunk text. Recursive context expansion
// resolves the extracted references into retrieval queries.
package reference

import (
	"regexp"
	"strings"
)

// Reference is one detected cross reference.
type Reference struct {
	// Text is the reference as it appeared, e.g. "Section 4.2".
	Text string
	// SectionNumber is the numeric part when the pattern captured one.
	SectionNumber string
}

// Key returns the normalized identity of the reference, used for
// deduplication and visited tracking. The keyword prefix is stripped so
// "Section 4.2" and a bare "4.2" resolve to the same key.
func (r Reference) Key() string {
	return Normalize(r.Text)
}

var keywordPrefix = regexp.MustCompile(`^(?:section|sect\.?|chapter|ch\.?|part|osa|kohdassa)[\s-]*`)

// Normalize lowercases a reference text and strips its keyword prefix
// into the canonical key.
func Normalize(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimSpace(keywordPrefix.ReplaceAllString(key, ""))
}

// sectionPatterns in matching priority order. The final bare-number
// pattern is the loosest and gets an extra context check.
var sectionPatterns = []*regexp.Regexp{
	// "Section 4.2", "sect. 4.2.1"
	regexp.MustCompile(`(?i)(?:section|sect\.?)\s+(\d+(?:\.\d+)*)`),
	// "Chapter 3", "ch. 3"
	regexp.MustCompile(`(?i)(?:chapter|ch\.?)\s+(\d+)`),
	// "Part 145.A.30", "Part-145.A.30"
	regexp.MustCompile(`(?i)part[-\s]?(\d+)[.\s]?([A-Za-z])?[.\s]?(\d+)`),
	// "OSA 5", "OSA 5.2"
	regexp.MustCompile(`(?i)osa\s+(\d+(?:\.\d+)?)`),
	// "Kohdassa 3.4"
	regexp.MustCompile(`(?i)kohdassa\s+(\d+(?:\.\d+)?)`),
	// Bare "4.2" or "4.2.1", only when nearby text says it is a section.
	regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)?)\b`),
}

// excludePatterns reject matches that are dates, organization ids,
// years, or IP addresses rather than section references.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`),
	regexp.MustCompile(`FI\.\d+\.\d+`),
	regexp.MustCompile(`^\d{4}$`),
	regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`),
}

var (
	yearLike    = regexp.MustCompile(`\d{4}`)
	versionLike = regexp.MustCompile(`v?\d+\.\d+\.\d+`)
)

// contextKeywords mark a bare number as a plausible section reference
// when one appears within 20 characters of the match.
var contextKeywords = []string{"section", "chapter", "part", "osa", "kohdassa", "kohta", "appendix"}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the unique references found in the text, in pattern
// priority order. References with the same canonical key collapse to the
// first occurrence, so an explicit "Section 4.2" shadows a later bare "4.2".
func (e *Extractor) Extract(text string) []Reference {
	var references []Reference
	seen := make(map[string]struct{})

	for patternIdx, pattern := range sectionPatterns {
		bare := patternIdx == len(sectionPatterns)-1
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			refText := strings.TrimSpace(text[loc[0]:loc[1]])
			if len(refText) < 3 {
				continue
			}
			if isExcluded(refText) {
				continue
			}
			if bare && !hasSectionContext(text, loc[0], loc[1]) {
				// Without surrounding context, year-like and version-like
				// numbers are noise.
				if yearLike.MatchString(refText) || versionLike.MatchString(refText) {
					continue
				}
			}

			key := Normalize(refText)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			references = append(references, Reference{
				Text:          refText,
				SectionNumber: captureGroup(text, loc, 1),
			})
		}
	}
	return references
}

func isExcluded(refText string) bool {
	for _, pattern := range excludePatterns {
		if pattern.MatchString(refText) {
			return true
		}
	}
	return false
}

func hasSectionContext(text string, start, end int) bool {
	from := start - 20
	if from < 0 {
		from = 0
	}
	to := end + 20
	if to > len(text) {
		to = len(text)
	}
	window := strings.ToLower(text[from:start] + text[end:to])
	for _, keyword := range contextKeywords {
		if strings.Contains(window, keyword) {
			return true
		}
	}
	return false
}

func captureGroup(text string, loc []int, group int) string {
	i := 2 * group
	if i+1 >= len(loc) || loc[i] < 0 {
		return ""
	}
	return text[loc[i]:loc[i+1]]
}
