package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// PlaceholderAPIKey is the default key value; it must be overridden
// before any provider call is made.
const PlaceholderAPIKey = "YOUR_API_KEY_HERE"

// Config holds runtime configuration values for the grading service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	Provider            string
	Model               string
	APIKey              string
	RequestTimeout      time.Duration
	SkipConnectionCheck bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// HasAPIKey reports whether a usable provider key is configured.
func (c Config) HasAPIKey() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Grader API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "gpt-3.5-turbo")
	v.SetDefault("api.key", PlaceholderAPIKey)
	v.SetDefault("request_timeout_s", 60)
	v.SetDefault("skip_connection_check", false)

	timeoutSeconds := v.GetInt("request_timeout_s")
	if timeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("invalid request timeout: %d", timeoutSeconds)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		Provider:            strings.ToLower(v.GetString("provider")),
		Model:               v.GetString("model"),
		APIKey:              v.GetString("api.key"),
		RequestTimeout:      time.Duration(timeoutSeconds) * time.Second,
		SkipConnectionCheck: v.GetBool("skip_connection_check"),
	}

	return cfg, nil
}
