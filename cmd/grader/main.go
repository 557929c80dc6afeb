// Command grader grades a single submission or a CSV roster from the
// terminal. Without a configured API key it degrades to printing the
// generated prompt, which can be pasted into any LLM by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/edugrade/grader-api/internal/config"
	"github.com/edugrade/grader-api/internal/roster"
	"github.com/edugrade/grader-api/pkg/grader"
	"github.com/edugrade/grader-api/pkg/llm"
	"github.com/edugrade/grader-api/pkg/prompt"
)

func main() {
	problem := flag.String("problem", "", "problem description")
	codeFile := flag.String("code-file", "", "path to the student's solution")
	referenceFile := flag.String("reference-file", "", "optional path to a reference solution")
	studentID := flag.String("student", "", "student identifier")
	format := flag.String("format", prompt.FormatJSON, "response format: json, simple, or comprehensive")
	batchFile := flag.String("batch", "", "path to a roster CSV for batch grading")
	gradebookFile := flag.String("gradebook", "gradebook.csv", "output path for the batch gradebook")
	promptOnly := flag.Bool("prompt-only", false, "print the prompt without calling the provider")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *batchFile != "" {
		runBatch(cfg, logger, *batchFile, *gradebookFile, *format)
		return
	}

	if *problem == "" || *codeFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	code := mustReadFile(*codeFile)
	reference := ""
	if *referenceFile != "" {
		reference = mustReadFile(*referenceFile)
	}

	if *promptOnly || !cfg.HasAPIKey() {
		if !cfg.HasAPIKey() {
			logger.Warn().Msg("no API key configured; printing the prompt instead of grading")
		}
		generator := prompt.NewGenerator()
		fmt.Println(generator.ForFormat(*format, *problem, code, reference))
		return
	}

	g := mustBuildGrader(cfg, logger)
	report := g.GradeCode(context.Background(), grader.GradeRequest{
		Problem:   *problem,
		Code:      code,
		StudentID: *studentID,
		Format:    *format,
		Reference: reference,
	})

	printReport(report)
	if !report.Success {
		os.Exit(1)
	}
}

func runBatch(cfg config.Config, logger zerolog.Logger, rosterPath, gradebookPath, format string) {
	if !cfg.HasAPIKey() {
		log.Fatalf("batch grading requires an API key; set GRADER_API_KEY")
	}

	rosterFile, err := os.Open(rosterPath)
	if err != nil {
		log.Fatalf("failed to open roster: %v", err)
	}
	defer rosterFile.Close()

	subs, err := roster.Load(rosterFile)
	if err != nil {
		log.Fatalf("failed to read roster: %v", err)
	}

	g := mustBuildGrader(cfg, logger)
	reports := g.GradeMultiple(context.Background(), subs, format)

	gradebook, err := os.Create(gradebookPath)
	if err != nil {
		log.Fatalf("failed to create gradebook: %v", err)
	}
	defer gradebook.Close()

	if err := roster.WriteGradebook(gradebook, reports); err != nil {
		log.Fatalf("failed to write gradebook: %v", err)
	}

	graded := 0
	for _, report := range reports {
		if report.Success {
			graded++
		}
	}
	logger.Info().
		Int("submissions", len(reports)).
		Int("graded", graded).
		Str("gradebook", gradebookPath).
		Msg("batch complete")
}

func mustBuildGrader(cfg config.Config, logger zerolog.Logger) *grader.Grader {
	g, err := grader.New(llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.RequestTimeout,
		Logger:   logger,
	}, logger)
	if err != nil {
		log.Fatalf("failed to initialise grader: %v", err)
	}
	return g
}

func mustReadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func printReport(report grader.Report) {
	fmt.Printf("student:    %s\n", report.StudentID)
	fmt.Printf("success:    %t\n", report.Success)
	if report.Grade != nil {
		fmt.Printf("grade:      %.1f/100\n", *report.Grade)
	} else {
		fmt.Printf("grade:      n/a\n")
	}
	fmt.Printf("percentage: %.1f%%\n", report.Percentage)
	fmt.Printf("time:       %.2fs\n", report.ProcessingTime)

	if report.Error != "" {
		fmt.Printf("error:      %s\n", report.Error)
		return
	}

	if len(report.Issues) > 0 {
		fmt.Println("issues:")
		for _, issue := range report.Issues {
			description := issue.Description
			if description == "" {
				description = issue.Hint
			}
			fmt.Printf("  - line %d: %s\n", issue.LineNumber, description)
		}
	}
	if len(report.Strengths) > 0 {
		fmt.Println("strengths:")
		for _, strength := range report.Strengths {
			fmt.Printf("  - %s\n", strength)
		}
	}
	if len(report.Recommendations) > 0 {
		fmt.Println("recommendations:")
		for _, recommendation := range report.Recommendations {
			fmt.Printf("  - %s\n", recommendation)
		}
	}
}
