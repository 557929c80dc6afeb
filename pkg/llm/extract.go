package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports that a completion could not be decoded as JSON. The
// original raw text is preserved so callers can surface it for diagnosis.
type ParseError struct {
	Reason  string
	RawText string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Invalid JSON response: %s", e.Reason)
}

// ExtractJSON pulls a JSON object out of a completion. Models frequently
// wrap their output in Markdown code fences, so a fenced "json" block is
// preferred, then any fenced block, then the raw text. A leading "json"
// language tag line is stripped before parsing. Extraction is idempotent:
// fenced and bare renditions of the same object decode identically.
func ExtractJSON(raw string) (map[string]interface{}, *ParseError) {
	jsonStr := stripFences(raw)
	jsonStr = strings.TrimPrefix(jsonStr, "json\n")

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, &ParseError{Reason: err.Error(), RawText: raw}
	}

	return parsed, nil
}

func stripFences(raw string) string {
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		start := idx + len("```json")
		rest := raw[start:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	// A lone fence with no closer collapses to the empty string and the
	// parse fails; nothing is guessed about where the block ends.
	if idx := strings.Index(raw, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.LastIndex(raw, "```"); end >= start {
			return strings.TrimSpace(raw[start:end])
		}
		return ""
	}

	return strings.TrimSpace(raw)
}
