package grader_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edugrade/grader-api/pkg/grader"
	"github.com/edugrade/grader-api/pkg/llm"
	"github.com/edugrade/grader-api/pkg/prompt"
)

// scriptedClient returns canned responses in order, repeating the last
// one when the script runs out.
type scriptedClient struct {
	responses []llm.Response
	calls     int
	pingErr   error
}

func (s *scriptedClient) Provider() string { return "scripted" }

func (s *scriptedClient) Complete(_ context.Context, _ string) llm.Response {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx]
}

func (s *scriptedClient) Ping(_ context.Context) error { return s.pingErr }

func successResponse(raw string) llm.Response {
	return llm.Response{Success: true, RawText: raw, Elapsed: 120 * time.Millisecond}
}

func newEngine(responses ...llm.Response) *grader.Engine {
	return grader.NewEngine(&scriptedClient{responses: responses}, zerolog.Nop())
}

var sampleSubmission = grader.Submission{
	StudentID: "s-42",
	Problem:   "find the maximum element",
	Code:      "def find_max(n): return max(n)",
}

func TestGradeProviderFailureShortCircuits(t *testing.T) {
	engine := newEngine(llm.Response{
		ErrorMessage: "OpenAI API error: 500 - upstream exploded",
		Elapsed:      80 * time.Millisecond,
	})

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatJSON)

	require.False(t, result.Success)
	require.Nil(t, result.Grade)
	require.Nil(t, result.Feedback)
	require.Equal(t, "OpenAI API error: 500 - upstream exploded", result.ErrorMessage)
	require.Equal(t, 80*time.Millisecond, result.ProcessingTime)
}

func TestGradeJSONFormat(t *testing.T) {
	engine := newEngine(successResponse("```json\n" + `{
		"total_score": 82,
		"percentage": 82,
		"is_correct": true,
		"issues": [{"line_number": 3, "description": "off by one", "severity": "major", "suggestion": "start at 0"}],
		"strengths": ["readable"],
		"recommendations": ["add tests"]
	}` + "\n```"))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatJSON)

	require.True(t, result.Success)
	require.NotNil(t, result.Grade)
	require.Equal(t, 82.0, *result.Grade)
	require.Equal(t, 82.0, result.Percentage)
	require.Len(t, result.Issues, 1)
	require.Equal(t, 3, result.Issues[0].LineNumber)
	require.Equal(t, "major", result.Issues[0].Severity)
	require.Equal(t, []string{"readable"}, result.Strengths)
	require.Equal(t, []string{"add tests"}, result.Recommendations)
	require.Equal(t, true, result.Feedback["is_correct"])
}

func TestGradeJSONPercentageFallsBackToScore(t *testing.T) {
	// The rubric max is assumed to be 100, so a missing percentage is
	// filled with the score itself rather than being rescaled.
	engine := newEngine(successResponse(`{"total_score": 82}`))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatJSON)

	require.True(t, result.Success)
	require.Equal(t, 82.0, *result.Grade)
	require.Equal(t, 82.0, result.Percentage)
}

func TestGradeJSONMissingListsDefaultToEmpty(t *testing.T) {
	engine := newEngine(successResponse(`{"total_score": 50, "percentage": 50}`))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatJSON)

	require.True(t, result.Success)
	require.NotNil(t, result.Issues)
	require.Empty(t, result.Issues)
	require.NotNil(t, result.Recommendations)
	require.Empty(t, result.Recommendations)
	require.NotNil(t, result.Strengths)
	require.Empty(t, result.Strengths)
}

func TestGradeJSONParseFailure(t *testing.T) {
	engine := newEngine(successResponse("I would give this submission a solid B."))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatJSON)

	require.False(t, result.Success)
	require.Nil(t, result.Grade)
	require.Contains(t, result.ErrorMessage, "JSON parsing error:")
}

func TestGradeSimpleFormatHeuristic(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "correct", raw: `{"is_correct": true, "hints": []}`, want: 100},
		{name: "incorrect without hints", raw: `{"is_correct": false, "hints": []}`, want: 50},
		{name: "incorrect with hints", raw: `{"is_correct": false, "hints": [{"line_number": 3, "code_line": "x = x + 2", "hint": "x is not initialized"}]}`, want: 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newEngine(successResponse(tc.raw))
			result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatSimple)

			require.True(t, result.Success)
			require.NotNil(t, result.Grade)
			require.Equal(t, tc.want, *result.Grade)
			require.Equal(t, tc.want, result.Percentage)
		})
	}
}

func TestGradeSimpleFormatHintsBecomeIssues(t *testing.T) {
	engine := newEngine(successResponse(`{"is_correct": false, "hints": [{"line_number": 3, "code_line": "x = x + 2", "hint": "x is not initialized"}]}`))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatSimple)

	require.Len(t, result.Issues, 1)
	require.Equal(t, 3, result.Issues[0].LineNumber)
	require.Equal(t, "x = x + 2", result.Issues[0].CodeLine)
	require.Equal(t, "x is not initialized", result.Issues[0].Hint)
}

func TestGradeSimpleFormatStringHintsStillCountAsHints(t *testing.T) {
	// Models sometimes return bare strings instead of hint objects; they
	// still mean "incorrect with hints" and still surface as issues.
	engine := newEngine(successResponse(`{"is_correct": false, "hints": ["use a loop instead"]}`))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatSimple)

	require.True(t, result.Success)
	require.NotNil(t, result.Grade)
	require.Equal(t, 25.0, *result.Grade)
	require.Equal(t, 25.0, result.Percentage)
	require.Len(t, result.Issues, 1)
	require.Equal(t, "use a loop instead", result.Issues[0].Hint)
}

func TestGradeComprehensiveExtractsScoreLine(t *testing.T) {
	engine := newEngine(successResponse("The submission is solid overall.\n\nScore: 87/100\n\nKeep going."))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatComprehensive)

	require.True(t, result.Success)
	require.NotNil(t, result.Grade)
	require.Equal(t, 87.0, *result.Grade)
	require.Equal(t, 87.0, result.Percentage)
	require.Contains(t, result.Feedback["raw_text"], "Score: 87/100")
}

func TestGradeComprehensivePatternOrderWins(t *testing.T) {
	// TOTAL: outranks Score: regardless of position in the text.
	engine := newEngine(successResponse("Score: 60/100\nsome analysis\nTOTAL: 90/100"))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatComprehensive)

	require.NotNil(t, result.Grade)
	require.Equal(t, 90.0, *result.Grade)
}

func TestGradeComprehensiveFallsBackToPercent(t *testing.T) {
	engine := newEngine(successResponse("Overall this earns about 72.5% of the available marks."))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatComprehensive)

	require.NotNil(t, result.Grade)
	require.Equal(t, 72.5, *result.Grade)
	require.Equal(t, 72.5, result.Percentage)
}

func TestGradeComprehensiveNoScoreDegradesSilently(t *testing.T) {
	engine := newEngine(successResponse("A thoughtful attempt with room to grow."))

	result := engine.Grade(context.Background(), sampleSubmission, prompt.FormatComprehensive)

	require.True(t, result.Success)
	require.Nil(t, result.Grade)
	require.Equal(t, 0.0, result.Percentage)
	require.Empty(t, result.ErrorMessage)
}

func TestGradeUnknownFormatUsesComprehensiveParsing(t *testing.T) {
	engine := newEngine(successResponse("Grade: 44/100"))

	result := engine.Grade(context.Background(), sampleSubmission, "freeform")

	require.True(t, result.Success)
	require.Equal(t, 44.0, *result.Grade)
}

func TestGradeBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	engine := newEngine(
		successResponse(`{"total_score": 70}`),
		llm.Response{ErrorMessage: "Gemini API error: 503 - overloaded"},
		successResponse(`{"total_score": 95}`),
	)

	subs := []grader.Submission{
		{StudentID: "a", Problem: "p", Code: "c"},
		{StudentID: "b", Problem: "p", Code: "c"},
		{StudentID: "c", Problem: "p", Code: "c"},
	}

	results := engine.GradeBatch(context.Background(), subs, prompt.FormatJSON)

	require.Len(t, results, 3)
	require.Equal(t, "a", results[0].StudentID)
	require.Equal(t, "b", results[1].StudentID)
	require.Equal(t, "c", results[2].StudentID)

	require.True(t, results[0].Success)
	require.Equal(t, 70.0, *results[0].Grade)
	require.False(t, results[1].Success)
	require.Contains(t, results[1].ErrorMessage, "503")
	require.True(t, results[2].Success)
	require.Equal(t, 95.0, *results[2].Grade)
}

func TestTestConnection(t *testing.T) {
	ok := grader.NewEngine(&scriptedClient{responses: []llm.Response{{}}}, zerolog.Nop())
	require.True(t, ok.TestConnection(context.Background()))

	failing := grader.NewEngine(&scriptedClient{responses: []llm.Response{{}}, pingErr: context.DeadlineExceeded}, zerolog.Nop())
	require.False(t, failing.TestConnection(context.Background()))
}
