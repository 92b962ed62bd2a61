package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dsierp/itemcodes/itemcode"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	PostgresDSN     string

	// Item code allocation
	RootItemGroup        string // ends the prefix walk, e.g. "All Item Groups"
	PrefixMaxDepth       int
	SerializeAllocations bool // per-prefix lock around allocate and commit
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if it exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getenvDefault("SERVER_ADDRESS", ":8484"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RootItemGroup: getenvDefault("ROOT_ITEM_GROUP", itemcode.DefaultRoot),
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PrefixMaxDepth, err = getInt("PREFIX_MAX_DEPTH", itemcode.DefaultMaxDepth); err != nil {
		return nil, err
	}
	if cfg.PrefixMaxDepth < 1 {
		return nil, fmt.Errorf("config: PREFIX_MAX_DEPTH must be positive, got %d", cfg.PrefixMaxDepth)
	}
	if cfg.SerializeAllocations, err = getBool("SERIALIZE_ALLOCATIONS", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireDSN fails when no database is configured.
func (c *Config) RequireDSN() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("config: required environment variable POSTGRES_DSN is not set")
	}
	return nil
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}

func getInt(k string, fallback int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid integer: %w", k, v, err)
	}
	return n, nil
}

func getBool(k string, fallback bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a valid boolean: %w", k, v, err)
	}
	return b, nil
}
