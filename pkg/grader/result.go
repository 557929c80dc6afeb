// Package grader orchestrates prompt generation, provider calls, and
// response parsing into structured grading results.
package grader

import "time"

// Submission is one student solution queued for grading.
type Submission struct {
	StudentID string
	Problem   string
	Code      string
	// Reference optionally carries a known-good solution the model can
	// compare against.
	Reference string
}

// Issue is a single problem the model found in the submission. The rubric
// format fills Description/Severity/Suggestion; the simple format carries
// line-level hints in CodeLine/Hint instead.
type Issue struct {
	LineNumber  int    `json:"line_number,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
	CodeLine    string `json:"code_line,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

// Result is the complete outcome of grading one submission.
//
// When Success is false, Grade and Feedback are absent and ErrorMessage
// explains the failure. When Success is true, Grade and Percentage are
// set (possibly zero); Grade stays nil only when the comprehensive format
// finds no score line in the text.
type Result struct {
	StudentID       string
	Problem         string
	Code            string
	Success         bool
	Grade           *float64
	Percentage      float64
	Feedback        map[string]interface{}
	Issues          []Issue
	Recommendations []string
	Strengths       []string
	ProcessingTime  time.Duration
	ErrorMessage    string
}

func failedResult(sub Submission, elapsed time.Duration, message string) Result {
	return Result{
		StudentID:      sub.StudentID,
		Problem:        sub.Problem,
		Code:           sub.Code,
		ProcessingTime: elapsed,
		ErrorMessage:   message,
	}
}

// The parsed completion arrives as map[string]interface{}; these helpers
// pull typed values out with the lenient defaults the formats require.

func numberField(parsed map[string]interface{}, key string) (float64, bool) {
	value, ok := parsed[key]
	if !ok {
		return 0, false
	}
	number, ok := value.(float64)
	return number, ok
}

func boolField(parsed map[string]interface{}, key string) bool {
	value, ok := parsed[key].(bool)
	return ok && value
}

func stringSliceField(parsed map[string]interface{}, key string) []string {
	items, ok := parsed[key].([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func issuesField(parsed map[string]interface{}, key string) []Issue {
	items, ok := parsed[key].([]interface{})
	if !ok {
		return []Issue{}
	}
	out := make([]Issue, 0, len(items))
	for _, item := range items {
		switch entry := item.(type) {
		case map[string]interface{}:
			issue := Issue{
				Description: stringValue(entry, "description"),
				Severity:    stringValue(entry, "severity"),
				Suggestion:  stringValue(entry, "suggestion"),
				CodeLine:    stringValue(entry, "code_line"),
				Hint:        stringValue(entry, "hint"),
			}
			if line, ok := entry["line_number"].(float64); ok {
				issue.LineNumber = int(line)
			}
			out = append(out, issue)
		case string:
			out = append(out, Issue{Hint: entry})
		}
	}
	return out
}

func stringValue(entry map[string]interface{}, key string) string {
	s, _ := entry[key].(string)
	return s
}
