// Package roster reads batch submissions from CSV files and writes the
// resulting gradebook. A roster file carries one submission per row with
// header columns student_id, problem, code, and model_solution; only
// problem and code are required.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/edugrade/grader-api/pkg/grader"
)

// ErrMissingColumn indicates the roster header lacks a required column.
var ErrMissingColumn = errors.New("missing roster column")

var gradebookHeader = []string{"student_id", "success", "grade", "percentage", "error"}

// Load parses a roster CSV into submissions, preserving row order.
func Load(r io.Reader) ([]grader.Submission, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"problem", "code"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var subs []grader.Submission
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}

		sub := grader.Submission{
			StudentID: field(record, columns, "student_id"),
			Problem:   field(record, columns, "problem"),
			Code:      field(record, columns, "code"),
			Reference: field(record, columns, "model_solution"),
		}
		if sub.StudentID == "" {
			sub.StudentID = grader.DefaultStudentID
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

// WriteGradebook writes one row per report, in report order. Failed items
// leave the grade cell empty and carry the error message instead.
func WriteGradebook(w io.Writer, reports []grader.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(gradebookHeader); err != nil {
		return fmt.Errorf("write gradebook header: %w", err)
	}

	for _, report := range reports {
		grade := ""
		if report.Grade != nil {
			grade = strconv.FormatFloat(*report.Grade, 'f', -1, 64)
		}

		row := []string{
			report.StudentID,
			strconv.FormatBool(report.Success),
			grade,
			strconv.FormatFloat(report.Percentage, 'f', -1, 64),
			report.Error,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write gradebook row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
