// Package prompt renders context bundles into the chat messages sent to
// the analysis model.
package prompt

import (
	"fmt"
	"strings"

	"compliance-audit-be/pkg/evidence"
)

// SystemPrompt instructs the model to audit one chunk against the
// retrieved regulation and guidance material and answer in strict JSON.
const SystemPrompt = `You are an expert aviation compliance auditor specializing in EASA Part-145 maintenance organizations.
Analyse the provided manual content against applicable regulations, AMC, and GM material.
Always reason carefully, cite relevant sections, and respond strictly in JSON according to the schema.

CRITICAL: You are analyzing a SINGLE CHUNK of a larger document. The content you see may be a partial
section, part of a larger list or table, or a middle portion of a longer explanation.

IMPORTANT GUIDELINES:
- SEARCH BEFORE FLAGGING: if you suspect information is missing, first request it with
  "needs_additional_context": true and a specific "context_query". Only flag a gap once the search
  confirms the information is actually missing.
- Do NOT flag incomplete lists, tables, or cut-off content. These are chunk boundaries, not document errors.
- Do NOT flag document structure elements (cover pages, tables of contents, headers, footers).
- Use GREEN for compliant sections, YELLOW for minor issues or ambiguities, RED only for serious
  confirmed violations or missing mandatory content.
- When in doubt, search first, then prefer GREEN over flagging non-issues.

You MUST respond with a JSON object matching this EXACT structure (no other fields):
{
    "flag": "RED" | "YELLOW" | "GREEN",
    "severity_score": 0,
    "regulation_references": [],
    "findings": "Detailed findings text (REQUIRED, cannot be empty).",
    "gaps": [],
    "citations": {
        "manual_section": "section reference or null",
        "regulation_sections": []
    },
    "recommendations": [],
    "needs_additional_context": false,
    "context_query": null
}

The "gaps", "recommendations", and "regulation_references" fields MUST be arrays of strings.
Return ONLY valid JSON, no markdown, no code blocks, no explanations outside the JSON.`

// categoryHeadings maps evidence categories to their prompt section titles.
var categoryHeadings = map[string]string{
	evidence.CategorySibling:    "Manual Context",
	evidence.CategoryRegulation: "Regulation Context",
	evidence.CategoryGuidance:   "Guidance Context",
	evidence.CategoryPrecedent:  "Precedent Context",
}

// RenderBundle renders the retrieved slices as prompt-ready sections in
// fixed category order.
func RenderBundle(bundle *evidence.Bundle) string {
	var sections []string
	for _, category := range evidence.Categories {
		slices := bundle.ByCategory(category)
		if len(slices) == 0 {
			continue
		}
		lines := []string{"### " + categoryHeadings[category]}
		for _, s := range slices {
			heading, _ := s.Metadata["heading"].(string)
			if heading != "" {
				lines = append(lines, fmt.Sprintf("- %s [%s]:", s.Label, heading))
			} else {
				lines = append(lines, fmt.Sprintf("- %s:", s.Label))
			}
			lines = append(lines, s.Content)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// BuildUserPrompt renders the focus chunk and its supporting context
// into the user message.
func BuildUserPrompt(bundle *evidence.Bundle) string {
	contextText := RenderBundle(bundle)
	if contextText == "" {
		contextText = "None supplied"
	}
	heading := bundle.FocusLabel
	if heading == "" {
		heading = "N/A"
	}

	return fmt.Sprintf(`You are analyzing a SINGLE CHUNK from a larger document. Content may be cut off at chunk boundaries.

Focus Chunk to Analyze:
Heading: %s
Content:
%s

NOTE: This is ONE CHUNK. If content appears incomplete, this is likely a chunk boundary, NOT a
document error. Do not flag incomplete content unless mandatory information is clearly missing
from this specific section.

Available Context (via retrieval):
- %d similar/related chunks from the same document
- %d relevant regulation chunks
- %d relevant AMC/GM guidance chunks
- %d precedent chunks

Additional Context Details:
%s

Analysis Requirements:
1. Use the provided context. The regulation, guidance, and referenced sections were retrieved
   specifically to support this chunk.
2. Cite the manual section and every regulation section you relied on.
3. Respond with the JSON schema from the system prompt, nothing else.`,
		heading,
		strings.TrimSpace(bundle.Focus),
		len(bundle.Siblings),
		len(bundle.Regulations),
		len(bundle.Guidance),
		len(bundle.Precedent),
		contextText,
	)
}
