package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadTestConfig reads TEST_DB_* for integration tests, from the environment or a .env
// file at the repository root. Database settings stay empty unless host, port, user
// and name are all set, so DSN() returns "" and callers fall back to their default.
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{Environment: "test"}

	host := os.Getenv("TEST_DB_HOST")
	user := os.Getenv("TEST_DB_USER")
	name := os.Getenv("TEST_DB_NAME")
	if host == "" || user == "" || name == "" || os.Getenv("TEST_DB_PORT") == "" {
		return cfg, nil
	}

	port, err := requireIntEnv("TEST_DB_PORT")
	if err != nil {
		return nil, err
	}

	cfg.Database = DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   name,
	}
	return cfg, nil
}
