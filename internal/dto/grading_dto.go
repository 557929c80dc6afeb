package dto

import "github.com/edugrade/grader-api/pkg/grader"

// GradeRequest is the payload for grading a single submission.
type GradeRequest struct {
	Problem       string `json:"problem" validate:"required,min=1"`
	Code          string `json:"code" validate:"required,min=1"`
	StudentID     string `json:"student_id"`
	Format        string `json:"format"`
	ModelSolution string `json:"model_solution"`
}

// BatchItem is one submission inside a batch grading request.
type BatchItem struct {
	Problem       string `json:"problem" validate:"required,min=1"`
	Code          string `json:"code" validate:"required,min=1"`
	StudentID     string `json:"student_id"`
	ModelSolution string `json:"model_solution"`
}

// BatchGradeRequest is the payload for grading several submissions in one
// call. Results come back in submission order.
type BatchGradeRequest struct {
	Format      string      `json:"format"`
	Submissions []BatchItem `json:"submissions" validate:"required,min=1,dive"`
}

// PromptRequest asks for the prompt text that would be sent to the
// provider, without making a provider call.
type PromptRequest struct {
	Problem       string `json:"problem" validate:"required,min=1"`
	Code          string `json:"code" validate:"required,min=1"`
	Format        string `json:"format"`
	ModelSolution string `json:"model_solution"`
}

// PromptResponse carries a generated prompt back to the caller.
type PromptResponse struct {
	Format string `json:"format"`
	Prompt string `json:"prompt"`
}

// ToGradeRequest maps the HTTP payload onto the facade request.
func (r GradeRequest) ToGradeRequest() grader.GradeRequest {
	return grader.GradeRequest{
		Problem:   r.Problem,
		Code:      r.Code,
		StudentID: r.StudentID,
		Format:    r.Format,
		Reference: r.ModelSolution,
	}
}

// ToSubmissions maps the batch payload onto engine submissions.
func (r BatchGradeRequest) ToSubmissions() []grader.Submission {
	subs := make([]grader.Submission, 0, len(r.Submissions))
	for _, item := range r.Submissions {
		studentID := item.StudentID
		if studentID == "" {
			studentID = grader.DefaultStudentID
		}
		subs = append(subs, grader.Submission{
			StudentID: studentID,
			Problem:   item.Problem,
			Code:      item.Code,
			Reference: item.ModelSolution,
		})
	}
	return subs
}
