package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResultValid(t *testing.T) {
	content := `{
		"flag": "yellow",
		"severity_score": 45,
		"regulation_references": [" 145.A.30 ", ""],
		"findings": " Training records incomplete. ",
		"gaps": ["No recurrent training interval defined"],
		"citations": {"manual_section": "Section 3.4", "regulation_sections": ["145.A.35"]},
		"recommendations": ["Define a 24 month recurrent interval"],
		"needs_additional_context": false,
		"context_query": null
	}`

	result, err := ParseResult(content)
	require.NoError(t, err)

	assert.Equal(t, "YELLOW", result.Flag)
	assert.Equal(t, 45, result.SeverityScore)
	assert.Equal(t, []string{"145.A.30"}, result.RegulationReferences)
	assert.Equal(t, "Training records incomplete.", result.Findings)
	assert.Equal(t, "Section 3.4", result.Citations.ManualSection)
	assert.False(t, result.NeedsAdditionalContext)
}

func TestParseResultStripsMarkdownFences(t *testing.T) {
	content := "```json\n{\"flag\": \"GREEN\", \"severity_score\": 0, \"findings\": \"ok\", \"citations\": {}}\n```"

	result, err := ParseResult(content)
	require.NoError(t, err)
	assert.Equal(t, "GREEN", result.Flag)
}

func TestParseResultGapObjects(t *testing.T) {
	content := `{
		"flag": "RED",
		"severity_score": 85,
		"findings": "Mandatory duty time limits missing.",
		"gaps": [
			{"gap_description": "No duty time limitation procedure"},
			"No fatigue reporting channel"
		],
		"citations": {"manual_section": null, "regulation_sections": []}
	}`

	result, err := ParseResult(content)
	require.NoError(t, err)
	assert.Equal(t, StringList{
		"No duty time limitation procedure",
		"No fatigue reporting channel",
	}, result.Gaps)
}

func TestParseResultRejectsUnknownFlag(t *testing.T) {
	content := `{"flag": "ORANGE", "severity_score": 10, "findings": "x", "citations": {}}`

	_, err := ParseResult(content)
	require.Error(t, err)
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseResultRejectsEmptyFindings(t *testing.T) {
	content := `{"flag": "GREEN", "severity_score": 0, "findings": "  ", "citations": {}}`

	_, err := ParseResult(content)
	require.Error(t, err)
}

func TestParseResultRejectsScoreOutOfRange(t *testing.T) {
	content := `{"flag": "GREEN", "severity_score": 120, "findings": "x", "citations": {}}`

	_, err := ParseResult(content)
	require.Error(t, err)
}

func TestParseResultRejectsInvalidJSON(t *testing.T) {
	_, err := ParseResult("not json at all")
	require.Error(t, err)
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseResultContextQuery(t *testing.T) {
	content := `{
		"flag": "YELLOW",
		"severity_score": 40,
		"findings": "Cannot confirm critical part handling.",
		"citations": {},
		"needs_additional_context": true,
		"context_query": " definition of critical part "
	}`

	result, err := ParseResult(content)
	require.NoError(t, err)
	assert.True(t, result.NeedsAdditionalContext)
	assert.Equal(t, "definition of critical part", result.ContextQuery)
}
