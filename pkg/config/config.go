package config

import (
	"os"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string
	UploadDir   string
}

// New sets up the global logger and reads config from the environment.
func New() *Config {
	// setup zap logger and replace default logger
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        os.Getenv("PORT"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		UploadDir:   os.Getenv("UPLOAD_DIR"),
	}
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	return cfg
}
