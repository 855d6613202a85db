package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/delivery"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/pkg/jwtx"
)

// Store drivers selectable through LOCKER_STORE.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	SecretKey      string        // HMAC signing secret. Empty in dev means an ephemeral one
	Algorithm      string        // HS256, HS384 or HS512 (default: HS256)
	Issuer         string        // iss claim (default: locker)
	AccessTokenTTL time.Duration // Session token lifetime (default: 30m)
	ResetTokenTTL  time.Duration // Reset token lifetime, must be shorter (default: 15m)

	Store        string // sqlite, postgres or memory (default: sqlite)
	DatabaseFile string // SQLite file (default: locker.db)
	DatabaseURL  string // Postgres connection string
	PepperFile   string // Pepper for password hashing (default: ./pepper)

	ResetURL        string   // Frontend page that accepts ?token=
	CORSOrigins     []string // Allowed browser origins
	OwnershipDenial string   // forbidden or not_found (default: forbidden)
	MetricsEnabled  bool     // Expose /metrics (default: true)

	Bootstrap BootstrapConfig
	SMTP      delivery.SMTPConfig // Empty host means reset links go to stdout
}

// BootstrapConfig describes the default identity created on first start.
type BootstrapConfig struct {
	Enabled  bool
	Username string
	Email    string
	Password string // Optional: generated and printed once when empty
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	cfg := Config{
		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		// SECRET_KEY, ALGORITHM and ACCESS_TOKEN_EXPIRE_MINUTES are the names
		// older deployments used.
		SecretKey: getEnvOrDefault("LOCKER_SECRET_KEY", os.Getenv("SECRET_KEY")),
		Algorithm: getEnvOrDefault("LOCKER_ALGORITHM", getEnvOrDefault("ALGORITHM", jwtx.DefaultAlgorithm)),
		Issuer:    getEnvOrDefault("LOCKER_ISSUER", "locker"),
		AccessTokenTTL: getEnvDurationOrDefault("LOCKER_ACCESS_TOKEN_TTL",
			getEnvDurationOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", jwtx.DefaultSessionTTL)),
		ResetTokenTTL: getEnvDurationOrDefault("LOCKER_RESET_TOKEN_TTL", jwtx.DefaultResetTTL),

		Store:        strings.ToLower(getEnvOrDefault("LOCKER_STORE", StoreSQLite)),
		DatabaseFile: getEnvOrDefault("LOCKER_DATABASE_FILE", "locker.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		PepperFile:   getEnvOrDefault("LOCKER_PEPPER_FILE", "pepper"),

		ResetURL:        getEnvOrDefault("LOCKER_RESET_URL", "http://localhost:5175/reset-password"),
		CORSOrigins:     getEnvListOrDefault("LOCKER_CORS_ORIGINS", defaultCORSOrigins(env)),
		OwnershipDenial: getEnvOrDefault("LOCKER_OWNERSHIP_DENIAL", "forbidden"),
		MetricsEnabled:  getEnvBoolOrDefault("LOCKER_METRICS_ENABLED", true),

		Bootstrap: BootstrapConfig{
			Enabled:  getEnvBoolOrDefault("LOCKER_BOOTSTRAP_ENABLED", env == "dev"),
			Username: getEnvOrDefault("LOCKER_BOOTSTRAP_USERNAME", "admin"),
			Email:    getEnvOrDefault("LOCKER_BOOTSTRAP_EMAIL", "admin@example.com"),
			Password: os.Getenv("LOCKER_BOOTSTRAP_PASSWORD"),
		},

		SMTP: delivery.SMTPConfig{
			Host:     os.Getenv("LOCKER_SMTP_HOST"),
			Port:     getEnvIntOrDefault("LOCKER_SMTP_PORT", 587),
			Username: os.Getenv("LOCKER_SMTP_USERNAME"),
			Password: os.Getenv("LOCKER_SMTP_PASSWORD"),
			From:     os.Getenv("LOCKER_SMTP_FROM"),
		},
	}

	return cfg
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.ShutdownGracePeriod <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_GRACE_PERIOD must be positive"))
	}

	switch c.Algorithm {
	case "", "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("LOCKER_ALGORITHM %q not supported (HS256, HS384, HS512)", c.Algorithm))
	}

	switch {
	case c.SecretKey == "" && !c.IsDev():
		errs = append(errs, errors.New("LOCKER_SECRET_KEY is required outside dev"))
	case c.SecretKey != "" && len(c.SecretKey) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("LOCKER_SECRET_KEY must be at least %d bytes", jwtx.MinSecretLength))
	}

	if c.AccessTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("token ttls must be positive"))
	} else if c.ResetTokenTTL >= c.AccessTokenTTL {
		errs = append(errs, fmt.Errorf("LOCKER_RESET_TOKEN_TTL (%s) must be shorter than LOCKER_ACCESS_TOKEN_TTL (%s)",
			c.ResetTokenTTL, c.AccessTokenTTL))
	}

	switch c.Store {
	case StoreSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("LOCKER_DATABASE_FILE is required for the sqlite store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("LOCKER_STORE %q unknown (sqlite, postgres, memory)", c.Store))
	}

	if _, err := service.ParseDenialPolicy(c.OwnershipDenial); err != nil {
		errs = append(errs, err)
	}

	if c.Bootstrap.Enabled && (c.Bootstrap.Username == "" || c.Bootstrap.Email == "") {
		errs = append(errs, errors.New("bootstrap needs LOCKER_BOOTSTRAP_USERNAME and LOCKER_BOOTSTRAP_EMAIL"))
	}

	if c.SMTP.Host != "" && c.SMTP.From == "" && c.SMTP.Username == "" {
		errs = append(errs, errors.New("LOCKER_SMTP_FROM or LOCKER_SMTP_USERNAME is required with LOCKER_SMTP_HOST"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDev() bool { return c.Env == "dev" }

// The Vite dev server lands on 5173 and walks up when the port is busy.
func defaultCORSOrigins(env string) []string {
	if env != "dev" {
		return nil
	}
	return []string{
		"http://localhost:5173",
		"http://localhost:5174",
		"http://localhost:5175",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value. Setting the variable
// to "-" yields an empty list.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "-" {
		return nil
	}

	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
