package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const DEV_ENV_FILENAME = ".env.development"
const PROD_ENV_FILENAME = ".env.production"

// InitEnvironmentVariables loads the .env file matching goEnv from dir. A
// missing file is not an error: every setting has a default.
func InitEnvironmentVariables(dir string, goEnv string) error {
	if os.Getenv("ENV") == "production" {
		log.Info("Running in production environment")
		return nil
	}

	envFile := filepath.Join(dir, DEV_ENV_FILENAME)
	if goEnv == "production" {
		envFile = filepath.Join(dir, PROD_ENV_FILENAME)
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		log.Debugf("InitEnvironmentVariables: %s not found, skipping", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("InitEnvironmentVariables: failed to load %s file: %w", envFile, err)
	}

	return nil
}

func GetEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("GetEnv: missing %s environment variable", key)
	}

	return value, nil
}
