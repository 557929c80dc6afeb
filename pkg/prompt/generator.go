// Package prompt builds the evaluation prompts sent to LLM providers.
// Generation is pure string construction: identical inputs always yield
// byte-identical prompts.
package prompt

import (
	"fmt"
	"strings"
)

// Format selects which prompt template (and later, which response parser)
// a grading run uses.
const (
	FormatJSON          = "json"
	FormatSimple        = "simple"
	FormatComprehensive = "comprehensive"
)

const systemPrompt = `You are an expert computer science professor evaluating student code submissions.

Your evaluation approach:
- Thorough analysis across multiple dimensions
- Fair and consistent scoring
- Constructive feedback for learning
- Clear justification for scores

Evaluate code on:
1. Correctness (40 pts): Functionality, edge cases, syntax, logic
2. Efficiency (27 pts): Time/space complexity, optimal algorithms
3. Data Structures (15 pts): Appropriate selection and usage
4. Code Quality (10 pts): Readability, documentation, structure
5. Testing (8 pts): Test design, debugging, error handling

Total: 100 points`

const rubric = `
GRADING RUBRIC (100 points total):

CORRECTNESS (40 points):
- Test Case Coverage (20 pts): Passes basic tests (10) + edge cases (10)
- Edge Case Handling (10 pts): Boundary conditions, empty inputs, etc.
- No Syntax Errors (5 pts): Code compiles and runs without errors
- Logical Accuracy (5 pts): Algorithm correctly implements requirements

EFFICIENCY (27 points):
- Time Complexity (11 pts): Meets requirements (6) + analysis in comments (5)
- Optimal Algorithm (10 pts): Best approach (5) + considers optimizations (5)
- Space Complexity (6 pts): Efficient memory usage (3) + avoids waste (3)

DATA STRUCTURES (15 points):
- Structure Selection (8 pts): Appropriate choice (4) + explains rationale (4)
- Usage Efficiency (7 pts): Optimal utilization (4) + performance impact (3)

CODE QUALITY (10 points):
- Documentation (4 pts): Clear comments (2) + function descriptions (2)
- Modularity (3 pts): Functions/modules (2) + single responsibility (1)
- Naming (3 pts): Descriptive names (2) + follows conventions (1)

TESTING (8 points):
- Test Design (4 pts): Creates tests (2) + covers scenarios (2)
- Debugging (2 pts): Systematic approach (1) + documents process (1)
- Error Handling (2 pts): Validates inputs and handles errors
`

// Generator produces evaluation prompts for code grading.
type Generator struct{}

// NewGenerator constructs a prompt generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// ForFormat builds the prompt matching the requested format. Unrecognised
// formats fall back to the JSON template.
func (g *Generator) ForFormat(format, problem, code, reference string) string {
	switch format {
	case FormatSimple:
		return g.SimplePrompt(problem, code)
	case FormatComprehensive:
		return g.ComprehensivePrompt(problem, code, reference)
	default:
		return g.JSONPrompt(problem, code, reference)
	}
}

// JSONPrompt builds the structured evaluation prompt that instructs the
// model to reply with a single JSON object matching the rubric schema.
func (g *Generator) JSONPrompt(problem, code, reference string) string {
	builder := strings.Builder{}
	builder.WriteString(systemPrompt)
	builder.WriteString("\n\n## PROBLEM:\n")
	builder.WriteString(problem)
	builder.WriteString("\n")
	writeReferenceSection(&builder, "REFERENCE SOLUTION", reference)
	builder.WriteString("## STUDENT CODE:\n```\n")
	builder.WriteString(code)
	builder.WriteString("\n```\n\n")
	builder.WriteString(rubric)
	builder.WriteString(`
## REQUIRED OUTPUT:
Respond with ONLY a valid JSON object in this exact format:

` + "```json" + `
{
    "total_score": number,
    "percentage": number,
    "is_correct": boolean,
    "category_scores": {
        "correctness": {"score": number, "max": 40, "feedback": "string"},
        "efficiency": {"score": number, "max": 27, "feedback": "string"},
        "data_structures": {"score": number, "max": 15, "feedback": "string"},
        "code_quality": {"score": number, "max": 10, "feedback": "string"},
        "testing": {"score": number, "max": 8, "feedback": "string"}
    },
    "issues": [
        {
            "line_number": number,
            "description": "string",
            "severity": "critical|major|minor",
            "suggestion": "string"
        }
    ],
    "strengths": ["string"],
    "recommendations": ["string"],
    "complexity_analysis": {
        "time_complexity": "string",
        "space_complexity": "string"
    }
}
` + "```" + `

Evaluate the code now and respond with only the JSON object.`)

	return builder.String()
}

// SimplePrompt builds the teaching-assistant style prompt that asks for a
// minimal correctness verdict plus line-level hints, with no numeric grade.
func (g *Generator) SimplePrompt(problem, code string) string {
	return fmt.Sprintf(`I want you to act as a programming teacher that helps students solve programming assignments.

Review the student's code for the following problem:

Problem: %s

Student Code: %s

Identify if the code executes correctly and fulfills the problem's requirements. If not, provide a JSON object with:
- "is_correct": A boolean indicating whether the code is correct.
- "hints": An array of objects, each with:
  - "line_number": The line number of the issue.
  - "code_line": The code line with the issue.
  - "hint": A short explanation of what is wrong.

Example output:
{
    "is_correct": false,
    "hints": [
        {
            "line_number": 3,
            "code_line": "x = x + 2",
            "hint": "The variable 'x' is used before being initialized."
        }
    ]
}

If the code is correct, return:
{
    "is_correct": true,
    "hints": []
}`, problem, code)
}

// ComprehensivePrompt builds the free-form prose evaluation prompt. The
// model is asked to close the scoring section with a "TOTAL: _/100" line,
// which the engine later extracts.
func (g *Generator) ComprehensivePrompt(problem, code, reference string) string {
	builder := strings.Builder{}
	builder.WriteString(systemPrompt)
	builder.WriteString("\n\n## PROBLEM DESCRIPTION:\n")
	builder.WriteString(problem)
	builder.WriteString("\n")
	writeReferenceSection(&builder, "MODEL SOLUTION", reference)
	builder.WriteString("## STUDENT SUBMISSION:\n```\n")
	builder.WriteString(code)
	builder.WriteString("\n```\n\n")
	builder.WriteString(rubric)
	builder.WriteString(`
## EVALUATION INSTRUCTIONS:
Provide a comprehensive evaluation including:

1. **FUNCTIONALITY ANALYSIS**
   - Does the code solve the problem correctly?
   - What test cases would it pass/fail?
   - Are there logical errors or bugs?

2. **EFFICIENCY EVALUATION**
   - Time and space complexity analysis
   - Is this optimal for the problem?
   - Suggestions for optimization

3. **CODE QUALITY ASSESSMENT**
   - Readability and maintainability
   - Best practices adherence
   - Areas for improvement

4. **SCORING BREAKDOWN**
   - Correctness: ___/40 points
   - Efficiency: ___/27 points
   - Data Structures: ___/15 points
   - Code Quality: ___/10 points
   - Testing: ___/8 points

   **TOTAL: ___/100 points**

5. **RECOMMENDATIONS**
   - Top 3 strengths
   - Top 3 areas for improvement
   - Specific suggestions for enhancement`)

	return builder.String()
}

// Student code and reference solutions are interpolated verbatim; fenced
// blocks inside them are not escaped.
func writeReferenceSection(builder *strings.Builder, heading, reference string) {
	if reference == "" {
		return
	}
	builder.WriteString(fmt.Sprintf("\n## %s:\n```\n%s\n```\n", heading, reference))
}
