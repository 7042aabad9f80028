package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	ExportDir       string
	PersonaDir      string
	Concurrency     int
}

func Load() Config {
	return Config{
		Port:            envInt("CAUCUS_PORT", 8760),
		NatsURL:         envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("CAUCUS_MODEL", "claude-sonnet-4-20250514"),
		ExportDir:       envStr("CAUCUS_EXPORT_DIR", "data/exports"),
		PersonaDir:      envStr("CAUCUS_PERSONA_DIR", "data/personas"),
		Concurrency:     envInt("CAUCUS_ROUND_CONCURRENCY", 1),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
