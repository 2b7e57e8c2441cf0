package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CitationBlock carries the citations the analyst attached to a finding.
type CitationBlock struct {
	ManualSection      string   `json:"manual_section"`
	RegulationSections []string `json:"regulation_sections"`
}

// StringList unmarshals either plain strings or objects. Models sometimes
// return gaps as objects with a description field instead of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err == nil {
			out = append(out, objectText(obj))
			continue
		}
		out = append(out, strings.Trim(string(item), `"`))
	}
	*l = out
	return nil
}

func objectText(obj map[string]interface{}) string {
	for _, key := range []string{"gap_name", "gap_item", "gap_description", "description"} {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", obj)
}

// Result is the structured verdict for one chunk.
type Result struct {
	Flag                   string        `json:"flag" validate:"required,oneof=RED YELLOW GREEN"`
	SeverityScore          int           `json:"severity_score" validate:"gte=0,lte=100"`
	RegulationReferences   []string      `json:"regulation_references"`
	Findings               string        `json:"findings" validate:"required"`
	Gaps                   StringList    `json:"gaps"`
	Citations              CitationBlock `json:"citations"`
	Recommendations        StringList    `json:"recommendations"`
	NeedsAdditionalContext bool          `json:"needs_additional_context"`
	ContextQuery           string        `json:"context_query"`
}

// ParseResult decodes and validates a model response. Markdown code
// fences around the JSON are tolerated.
func ParseResult(content string) (*Result, error) {
	content = stripFences(content)

	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}

	result.Flag = strings.ToUpper(strings.TrimSpace(result.Flag))
	result.Findings = strings.TrimSpace(result.Findings)
	result.ContextQuery = strings.TrimSpace(result.ContextQuery)
	result.RegulationReferences = stripEntries(result.RegulationReferences)
	result.Gaps = stripEntries(result.Gaps)
	result.Recommendations = stripEntries(result.Recommendations)
	result.Citations.ManualSection = strings.TrimSpace(result.Citations.ManualSection)
	result.Citations.RegulationSections = stripEntries(result.Citations.RegulationSections)

	if err := validate.Struct(&result); err != nil {
		return nil, &MalformedResponseError{Reason: "schema validation failed", Err: err}
	}
	return &result, nil
}

func stripEntries(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// stripFences removes a surrounding markdown code block if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
