package config

import (
	"os"
	"strconv"
	"time"
)

// ClientConfig holds settings for the todo client (CLI and TUI).
type ClientConfig struct {
	Endpoint string
	Timeout  time.Duration
	Theme    string
	Debug    bool
	LogFile  string
}

// DevServerConfig holds settings for the local development endpoint.
type DevServerConfig struct {
	Addr     string
	DataFile string
	Debug    bool
}

// Config is populated from environment variables.
// A .env file is picked up when the binary imports _ "github.com/joho/godotenv/autoload".
type Config struct {
	Client    ClientConfig
	DevServer DevServerConfig
}

const DefaultEndpoint = "http://localhost:5500/graphql"

// Load reads configuration from environment variables; real environment
// variables take precedence over a .env file.
func Load() *Config {
	debug := getEnvBool("TODO_DEBUG", false)
	return &Config{
		Client: ClientConfig{
			Endpoint: getEnv("TODO_ENDPOINT", DefaultEndpoint),
			Timeout:  time.Duration(getEnvInt("TODO_TIMEOUT_SEC", 10)) * time.Second,
			Theme:    getEnv("TODO_THEME", "classic"),
			Debug:    debug,
			LogFile:  getEnv("TODO_LOG_FILE", ""),
		},
		DevServer: DevServerConfig{
			Addr:     getEnv("TODO_DEV_ADDR", ":5500"),
			DataFile: getEnv("TODO_DEV_DATA", "todos.json"),
			Debug:    debug,
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}
