package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DisbursementMode selects the payout implementation.
type DisbursementMode string

const (
	DisbursementLive DisbursementMode = "live"
	DisbursementStub DisbursementMode = "stub"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	RedisURL        string
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
	LogLevel        slog.Level

	HookWorkers   int
	HookQueueSize int

	MpesaEnvironment        string
	MpesaBaseURL            string
	MpesaConsumerKey        string
	MpesaConsumerSecret     string
	MpesaShortCode          string
	MpesaPassKey            string
	MpesaB2CShortCode       string
	MpesaInitiatorName      string
	MpesaSecurityCredential string
	MpesaCallbackBaseURL    string
	MpesaTimeout            time.Duration
	DisbursementMode        DisbursementMode

	RiderSearchRadiusKm float64
}

const (
	defaultRunAddress       = ":8080"
	defaultJWTSecret        = "change-me-in-production"
	defaultTokenTTL         = 24 * time.Hour
	defaultShutdownTimeout  = 10 * time.Second
	defaultHookWorkers      = 4
	defaultHookQueueSize    = 256
	defaultMpesaEnvironment = "sandbox"
	defaultMpesaTimeout     = 30 * time.Second
	defaultRiderRadiusKm    = 10.0

	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

// Load reads an optional .env file, then parses configuration from flags
// and environment variables. Variables already set in the environment win
// over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:      getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:     getString(lookup, "DATABASE_URI", ""),
		RedisURL:        getString(lookup, "REDIS_URL", ""),
		JWTSecret:       getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:        getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout: getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		HookWorkers:     getInt(lookup, "HOOK_WORKERS", defaultHookWorkers),
		HookQueueSize:   getInt(lookup, "HOOK_QUEUE_SIZE", defaultHookQueueSize),

		MpesaEnvironment:        getString(lookup, "MPESA_ENV", defaultMpesaEnvironment),
		MpesaBaseURL:            getString(lookup, "MPESA_BASE_URL", ""),
		MpesaConsumerKey:        getString(lookup, "MPESA_CONSUMER_KEY", ""),
		MpesaConsumerSecret:     getString(lookup, "MPESA_CONSUMER_SECRET", ""),
		MpesaShortCode:          getString(lookup, "MPESA_SHORTCODE", ""),
		MpesaPassKey:            getString(lookup, "MPESA_PASSKEY", ""),
		MpesaB2CShortCode:       getString(lookup, "MPESA_B2C_SHORTCODE", ""),
		MpesaInitiatorName:      getString(lookup, "MPESA_INITIATOR_NAME", ""),
		MpesaSecurityCredential: getString(lookup, "MPESA_SECURITY_CREDENTIAL", ""),
		MpesaCallbackBaseURL:    getString(lookup, "MPESA_CALLBACK_URL", ""),
		MpesaTimeout:            getDuration(lookup, "MPESA_TIMEOUT", defaultMpesaTimeout),
		DisbursementMode:        DisbursementMode(getString(lookup, "MPESA_DISBURSEMENT_MODE", "")),

		RiderSearchRadiusKm: getFloat(lookup, "RIDER_SEARCH_RADIUS_KM", defaultRiderRadiusKm),
	}
	logLevel := getString(lookup, "LOG_LEVEL", "info")

	fs := flag.NewFlagSet("agristar", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		mpesaTimeoutStr    = cfg.MpesaTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for shared gateway token cache")
	fs.StringVar(&cfg.MpesaCallbackBaseURL, "callback-url", cfg.MpesaCallbackBaseURL, "Public base URL for M-Pesa callbacks")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.IntVar(&cfg.HookWorkers, "hook-workers", cfg.HookWorkers, "Number of post-transition hook workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&mpesaTimeoutStr, "mpesa-timeout", mpesaTimeoutStr, "Timeout for M-Pesa API calls")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.MpesaTimeout, err = time.ParseDuration(mpesaTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid mpesa timeout: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.HookWorkers <= 0 {
		cfg.HookWorkers = defaultHookWorkers
	}

	if cfg.HookQueueSize <= 0 {
		cfg.HookQueueSize = defaultHookQueueSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.MpesaTimeout <= 0 {
		cfg.MpesaTimeout = defaultMpesaTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.RiderSearchRadiusKm <= 0 {
		cfg.RiderSearchRadiusKm = defaultRiderRadiusKm
	}

	if cfg.MpesaBaseURL == "" {
		switch cfg.MpesaEnvironment {
		case "sandbox":
			cfg.MpesaBaseURL = sandboxBaseURL
		case "production":
			cfg.MpesaBaseURL = productionBaseURL
		default:
			return nil, fmt.Errorf("unknown mpesa environment %q", cfg.MpesaEnvironment)
		}
	}

	switch cfg.DisbursementMode {
	case "":
		cfg.DisbursementMode = DisbursementLive
		if cfg.MpesaSecurityCredential == "" {
			cfg.DisbursementMode = DisbursementStub
		}
	case DisbursementLive, DisbursementStub:
	default:
		return nil, fmt.Errorf("unknown disbursement mode %q", cfg.DisbursementMode)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.MpesaCallbackBaseURL == "" {
		return nil, fmt.Errorf("mpesa callback url must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
