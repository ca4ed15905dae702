package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by SENTINEL_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("SENTINEL_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// GatewayURL is the safety gateway endpoint crisis alerts are forwarded to.
// Empty means local-log-only delivery.
func GatewayURL() string {
	return os.Getenv("GATEWAY_URL")
}

// GatewayLogPath is the local fallback audit log for alert packages.
func GatewayLogPath() string {
	p := os.Getenv("GATEWAY_LOG_PATH")
	if p == "" {
		return "safety_alerts.log"
	}
	return p
}

// APIKey protects the /v1 surface. Empty disables auth (local development).
func APIKey() string {
	return os.Getenv("API_KEY")
}

// PolicyPath points at the YAML policy file holding thresholds and the
// crisis resource list. Empty means built-in defaults.
func PolicyPath() string {
	return os.Getenv("POLICY_PATH")
}

// SessionIdleTTL is how long a session may sit without a turn before the
// archiver closes it. Defaults to 30 minutes.
func SessionIdleTTL() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SESSION_IDLE_TTL"))
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
