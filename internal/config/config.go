package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

type Config struct {
	AdapterID string

	ReceiptPrivateKeyPEM []byte
	ReceiptPublicKeyPEM  []byte
	ReceiptTTLSeconds    int
	ClockSkewSeconds     int

	CoreBaseURL   string
	CoreTimeoutMS int
	CoreHeaders   map[string]string

	ForwardTimeoutMS int

	Targets map[string]domain.ForwardTarget

	HTTPAddr string

	AuditPostgresDSN string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
}

type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "config: missing or invalid required fields: " + strings.Join(e.Missing, ", ")
}

func FromEnv() (Config, error) {
	cfg := Config{
		AdapterID:              os.Getenv("ADAPTER_ID"),
		ReceiptTTLSeconds:      envIntDefault("RECEIPT_TTL_SECONDS", 30),
		ClockSkewSeconds:       envIntDefault("CLOCK_SKEW_SECONDS", 10),
		CoreBaseURL:            os.Getenv("CORE_BASE_URL"),
		CoreTimeoutMS:          envIntDefault("CORE_TIMEOUT_MS", 8000),
		HTTPAddr:               envDefault("HTTP_ADDR", ":8080"),
		AuditPostgresDSN:       os.Getenv("AUDIT_POSTGRES_DSN"),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
	cfg.ForwardTimeoutMS = envIntDefault("FORWARD_TIMEOUT_MS", cfg.CoreTimeoutMS)

	if path := os.Getenv("RECEIPT_PRIVATE_KEY_PEM_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read receipt private key: %w", err)
		}
		cfg.ReceiptPrivateKeyPEM = raw
	} else if pem := os.Getenv("RECEIPT_PRIVATE_KEY_PEM"); pem != "" {
		cfg.ReceiptPrivateKeyPEM = []byte(pem)
	}

	if path := os.Getenv("RECEIPT_PUBLIC_KEY_PEM_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read receipt public key: %w", err)
		}
		cfg.ReceiptPublicKeyPEM = raw
	} else if pem := os.Getenv("RECEIPT_PUBLIC_KEY_PEM"); pem != "" {
		cfg.ReceiptPublicKeyPEM = []byte(pem)
	}

	if path := os.Getenv("TARGETS_FILE"); path != "" {
		targets, err := loadTargetsFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Targets = targets
	}

	if path := os.Getenv("CORE_HEADERS_FILE"); path != "" {
		headers, err := loadHeadersFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.CoreHeaders = headers
	}

	return cfg, nil
}

func loadTargetsFile(path string) (map[string]domain.ForwardTarget, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read targets file: %w", err)
	}
	var targets map[string]domain.ForwardTarget
	if err := yaml.Unmarshal(raw, &targets); err != nil {
		return nil, fmt.Errorf("config: parse targets file: %w", err)
	}
	return targets, nil
}

func loadHeadersFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read core headers file: %w", err)
	}
	var headers map[string]string
	if err := yaml.Unmarshal(raw, &headers); err != nil {
		return nil, fmt.Errorf("config: parse core headers file: %w", err)
	}
	return headers, nil
}

func (c Config) Validate() error {
	var missing []string
	if c.AdapterID == "" {
		missing = append(missing, "adapterId")
	}
	if len(c.ReceiptPrivateKeyPEM) == 0 {
		missing = append(missing, "receiptPrivateKeyPem")
	}
	if len(c.ReceiptPublicKeyPEM) == 0 {
		missing = append(missing, "receiptPublicKeyPem")
	}
	if c.CoreBaseURL == "" {
		missing = append(missing, "core.coreBaseUrl")
	}
	if len(c.Targets) == 0 {
		missing = append(missing, "targets")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
