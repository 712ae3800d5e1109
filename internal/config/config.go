package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	Environment string

	// MongoURI takes precedence when set; otherwise the discrete
	// host/port/credential fields below are assembled into a URI.
	MongoURI  string
	MongoHost string
	MongoPort int
	MongoUser string
	MongoPass string

	Database   string
	Collection string

	// ApplyValidator controls whether the $jsonSchema collection validator
	// is (re)applied on startup.
	ApplyValidator bool
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI:  getEnv("MONGO_URI", ""),
		MongoHost: getEnv("MONGO_HOST", "127.0.0.1"),
		MongoPort: getIntEnv("MONGO_PORT", 27017),
		MongoUser: getEnv("MONGO_USER", "aacuser"),
		MongoPass: getEnv("MONGO_PASS", ""),

		Database:   getEnv("MONGO_DB", "aac"),
		Collection: getEnv("MONGO_COLL", "animals"),

		ApplyValidator: getBoolEnv("MONGO_APPLY_VALIDATOR", false),
	}
}

// URI returns the connection string to use: MONGO_URI verbatim when set,
// otherwise one assembled from the discrete fields with the database as
// authSource.
func (c *Config) URI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=%s",
		c.MongoUser, c.MongoPass, c.MongoHost, c.MongoPort, c.Database, c.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
