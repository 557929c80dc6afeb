package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edugrade/grader-api/internal/config"
	"github.com/edugrade/grader-api/internal/handler"
	"github.com/edugrade/grader-api/internal/middleware"
	"github.com/edugrade/grader-api/internal/router"
	"github.com/edugrade/grader-api/internal/service"
	"github.com/edugrade/grader-api/pkg/grader"
	"github.com/edugrade/grader-api/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.HasAPIKey() {
		log.Fatalf("no provider API key configured; set GRADER_API_KEY")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	llmConfig := llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.RequestTimeout,
		Logger:   logger,
	}

	codeGrader, err := buildGrader(cfg, llmConfig, logger)
	if err != nil {
		log.Fatalf("failed to initialise grader: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	gradingService := service.NewGradingService(codeGrader, validate, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler: gradingHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, llmConfig llm.Config, logger zerolog.Logger) (*grader.Grader, error) {
	if cfg.SkipConnectionCheck {
		client, err := llm.New(llmConfig)
		if err != nil {
			return nil, err
		}
		logger.Warn().Str("provider", cfg.Provider).Msg("skipping provider connection check")
		return grader.NewWithClient(client, logger), nil
	}

	return grader.New(llmConfig, logger)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
