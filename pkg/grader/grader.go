package grader

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edugrade/grader-api/pkg/llm"
	"github.com/edugrade/grader-api/pkg/prompt"
)

// ErrConnectionFailed indicates the construction-time connectivity check
// against the provider did not succeed.
var ErrConnectionFailed = errors.New("provider connection failed")

// DefaultStudentID is used when a request does not identify a student.
const DefaultStudentID = "student"

// GradeRequest describes one facade-level grading call.
type GradeRequest struct {
	Problem   string
	Code      string
	StudentID string
	Format    string
	Reference string
}

// Report is the flat result shape handed to external callers. Slice
// fields are always present, never null.
type Report struct {
	StudentID       string                 `json:"student_id"`
	Success         bool                   `json:"success"`
	Grade           *float64               `json:"grade"`
	Percentage      float64                `json:"percentage"`
	Feedback        map[string]interface{} `json:"feedback"`
	Issues          []Issue                `json:"issues"`
	Recommendations []string               `json:"recommendations"`
	Strengths       []string               `json:"strengths"`
	ProcessingTime  float64                `json:"processing_time"`
	Error           string                 `json:"error,omitempty"`
}

// Grader is the single entry point for external callers. It validates
// provider connectivity once at construction; after that every call is a
// single-shot request/response with no retained state.
type Grader struct {
	engine *Engine
	logger zerolog.Logger
}

// New builds a grader for the configured provider and verifies the
// connection before returning.
func New(cfg llm.Config, logger zerolog.Logger) (*Grader, error) {
	client, err := llm.New(cfg)
	if err != nil {
		return nil, err
	}

	g := NewWithClient(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	if cfg.Timeout <= 0 {
		cancel()
		ctx, cancel = context.WithTimeout(context.Background(), llm.DefaultTimeout)
	}
	defer cancel()

	if !g.engine.TestConnection(ctx) {
		return nil, fmt.Errorf("%w: check the %s API key and connectivity", ErrConnectionFailed, client.Provider())
	}

	return g, nil
}

// NewWithClient wraps an already-constructed client without running the
// connectivity check. Intended for callers that verified the client
// themselves or deliberately run offline.
func NewWithClient(client llm.Client, logger zerolog.Logger) *Grader {
	return &Grader{
		engine: NewEngine(client, logger),
		logger: logger.With().Str("component", "grader").Logger(),
	}
}

// GradeCode grades a single submission and shapes the result for
// external consumption.
func (g *Grader) GradeCode(ctx context.Context, req GradeRequest) Report {
	studentID := req.StudentID
	if studentID == "" {
		studentID = DefaultStudentID
	}

	result := g.engine.Grade(ctx, Submission{
		StudentID: studentID,
		Problem:   req.Problem,
		Code:      req.Code,
		Reference: req.Reference,
	}, normalizeFormat(req.Format))

	return reportFrom(result)
}

// GradeMultiple grades submissions sequentially, producing one report per
// submission in input order. Individual failures do not stop the batch.
func (g *Grader) GradeMultiple(ctx context.Context, subs []Submission, format string) []Report {
	results := g.engine.GradeBatch(ctx, subs, normalizeFormat(format))
	reports := make([]Report, 0, len(results))
	for _, result := range results {
		reports = append(reports, reportFrom(result))
	}
	return reports
}

// PromptOnly returns the prompt that would be sent for the given inputs
// without calling the provider. Useful for manual runs and debugging.
func (g *Grader) PromptOnly(problem, code, format, reference string) string {
	return g.engine.Prompts().ForFormat(normalizeFormat(format), problem, code, reference)
}

func normalizeFormat(format string) string {
	if format == "" {
		return prompt.FormatJSON
	}
	return format
}

func reportFrom(result Result) Report {
	report := Report{
		StudentID:       result.StudentID,
		Success:         result.Success,
		Grade:           result.Grade,
		Percentage:      result.Percentage,
		Feedback:        result.Feedback,
		Issues:          result.Issues,
		Recommendations: result.Recommendations,
		Strengths:       result.Strengths,
		ProcessingTime:  result.ProcessingTime.Seconds(),
		Error:           result.ErrorMessage,
	}

	if report.Issues == nil {
		report.Issues = []Issue{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	if report.Strengths == nil {
		report.Strengths = []string{}
	}

	return report
}
