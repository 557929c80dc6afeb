package grader

import (
	"context"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/edugrade/grader-api/pkg/llm"
	"github.com/edugrade/grader-api/pkg/prompt"
)

// Score-line patterns for the comprehensive format. Order matters: the
// first matching pattern wins, so keep the list as-is.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`TOTAL:\s*(\d+)/100`),
	regexp.MustCompile(`Total:\s*(\d+)/100`),
	regexp.MustCompile(`Score:\s*(\d+)/100`),
	regexp.MustCompile(`Grade:\s*(\d+)/100`),
}

var percentPattern = regexp.MustCompile(`(\d+\.?\d*)%`)

// Engine runs the grading pipeline for single submissions and batches:
// select a template, call the provider, parse the completion by format.
type Engine struct {
	client  llm.Client
	prompts *prompt.Generator
	logger  zerolog.Logger
}

// NewEngine constructs an engine on top of a provider client.
func NewEngine(client llm.Client, logger zerolog.Logger) *Engine {
	return &Engine{
		client:  client,
		prompts: prompt.NewGenerator(),
		logger:  logger.With().Str("component", "grading_engine").Logger(),
	}
}

// Prompts exposes the engine's prompt generator for prompt-only use.
func (e *Engine) Prompts() *prompt.Generator {
	return e.prompts
}

// Grade evaluates a single submission. Provider and parsing failures are
// reported inside the Result; Grade itself never fails.
func (e *Engine) Grade(ctx context.Context, sub Submission, format string) Result {
	text := e.prompts.ForFormat(format, sub.Problem, sub.Code, sub.Reference)

	response := e.client.Complete(ctx, text)
	if !response.Success {
		e.logger.Warn().
			Str("student_id", sub.StudentID).
			Str("provider", e.client.Provider()).
			Msg("provider call failed")
		return failedResult(sub, response.Elapsed, response.ErrorMessage)
	}

	switch format {
	case prompt.FormatJSON:
		return e.parseJSONResult(sub, response)
	case prompt.FormatSimple:
		return e.parseSimpleResult(sub, response)
	default:
		return e.parseTextResult(sub, response)
	}
}

// GradeBatch grades submissions strictly in order. A failed item yields a
// failed Result in its slot and does not disturb the rest of the batch.
func (e *Engine) GradeBatch(ctx context.Context, subs []Submission, format string) []Result {
	results := make([]Result, 0, len(subs))
	for _, sub := range subs {
		results = append(results, e.Grade(ctx, sub, format))
	}
	return results
}

// TestConnection reports whether the provider answers the probe prompt.
func (e *Engine) TestConnection(ctx context.Context) bool {
	return e.client.Ping(ctx) == nil
}

func (e *Engine) parseJSONResult(sub Submission, response llm.Response) Result {
	parsed, perr := llm.ExtractJSON(response.RawText)
	if perr != nil {
		return failedResult(sub, response.Elapsed, "JSON parsing error: "+perr.Error())
	}

	grade, _ := numberField(parsed, "total_score")

	// The rubric totals 100, so a missing percentage falls back to the
	// score itself.
	percentage, ok := numberField(parsed, "percentage")
	if !ok {
		percentage = grade
	}

	return Result{
		StudentID:       sub.StudentID,
		Problem:         sub.Problem,
		Code:            sub.Code,
		Success:         true,
		Grade:           &grade,
		Percentage:      percentage,
		Feedback:        parsed,
		Issues:          issuesField(parsed, "issues"),
		Recommendations: stringSliceField(parsed, "recommendations"),
		Strengths:       stringSliceField(parsed, "strengths"),
		ProcessingTime:  response.Elapsed,
	}
}

func (e *Engine) parseSimpleResult(sub Submission, response llm.Response) Result {
	parsed, perr := llm.ExtractJSON(response.RawText)
	if perr != nil {
		return failedResult(sub, response.Elapsed, "JSON parsing error: "+perr.Error())
	}

	// Hint presence is judged on the raw array, whatever its element
	// types; issuesField only keeps entries it can shape.
	rawHints, _ := parsed["hints"].([]interface{})
	hints := issuesField(parsed, "hints")

	// Fixed heuristic: correct means full marks, a bare "incorrect" with
	// no hints means half, incorrect with hints means quarter.
	grade := 25.0
	switch {
	case boolField(parsed, "is_correct"):
		grade = 100.0
	case len(rawHints) == 0:
		grade = 50.0
	}

	return Result{
		StudentID:      sub.StudentID,
		Problem:        sub.Problem,
		Code:           sub.Code,
		Success:        true,
		Grade:          &grade,
		Percentage:     grade,
		Feedback:       parsed,
		Issues:         hints,
		ProcessingTime: response.Elapsed,
	}
}

func (e *Engine) parseTextResult(sub Submission, response llm.Response) Result {
	text := response.RawText

	var grade *float64
	for _, pattern := range scorePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			if value, err := strconv.ParseFloat(match[1], 64); err == nil {
				grade = &value
				break
			}
		}
	}

	if grade == nil {
		if match := percentPattern.FindStringSubmatch(text); match != nil {
			if value, err := strconv.ParseFloat(match[1], 64); err == nil {
				grade = &value
			}
		}
	}

	percentage := 0.0
	if grade != nil {
		percentage = *grade
	}

	return Result{
		StudentID:      sub.StudentID,
		Problem:        sub.Problem,
		Code:           sub.Code,
		Success:        true,
		Grade:          grade,
		Percentage:     percentage,
		Feedback:       map[string]interface{}{"raw_text": text},
		ProcessingTime: response.Elapsed,
	}
}
