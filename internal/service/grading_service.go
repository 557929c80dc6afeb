package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/edugrade/grader-api/internal/dto"
	"github.com/edugrade/grader-api/pkg/grader"
)

// GradingService exposes the grading operations consumed by the HTTP
// handlers.
type GradingService interface {
	Grade(ctx context.Context, payload dto.GradeRequest) (grader.Report, error)
	GradeBatch(ctx context.Context, payload dto.BatchGradeRequest) ([]grader.Report, error)
	Prompt(payload dto.PromptRequest) (dto.PromptResponse, error)
}

// codeGrader is the slice of the grader facade this service depends on.
type codeGrader interface {
	GradeCode(ctx context.Context, req grader.GradeRequest) grader.Report
	GradeMultiple(ctx context.Context, subs []grader.Submission, format string) []grader.Report
	PromptOnly(problem, code, format, reference string) string
}

type gradingService struct {
	grader    codeGrader
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingService constructs the grading service.
func NewGradingService(g codeGrader, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		grader:    g,
		validator: validate,
		logger:    logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Grade(ctx context.Context, payload dto.GradeRequest) (grader.Report, error) {
	if err := s.validator.Struct(payload); err != nil {
		return grader.Report{}, err
	}

	report := s.grader.GradeCode(ctx, payload.ToGradeRequest())
	if !report.Success {
		s.logger.Warn().
			Str("student_id", report.StudentID).
			Str("error", report.Error).
			Msg("grading finished with failure result")
	}

	return report, nil
}

func (s *gradingService) GradeBatch(ctx context.Context, payload dto.BatchGradeRequest) ([]grader.Report, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	return s.grader.GradeMultiple(ctx, payload.ToSubmissions(), payload.Format), nil
}

func (s *gradingService) Prompt(payload dto.PromptRequest) (dto.PromptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PromptResponse{}, err
	}

	format := payload.Format
	if format == "" {
		format = "json"
	}

	return dto.PromptResponse{
		Format: format,
		Prompt: s.grader.PromptOnly(payload.Problem, payload.Code, payload.Format, payload.ModelSolution),
	}, nil
}
