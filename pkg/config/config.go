package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the batch
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// AuthID is the partner (tenant) identifier partitioning portfolios
	AuthID string

	// Database
	Database DatabaseConfig

	// Mirror is the optional qbt_api database receiving a copy of the universe
	Mirror DatabaseConfig

	// SFTP
	SFTP SFTPConfig

	// StagingDir is where outbound files are written before upload
	StagingDir string

	// Redis
	Redis RedisConfig

	// Holiday feed (공공데이터포털 특일정보)
	Holiday HolidayConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a connection string was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// SFTPConfig holds the partner SFTP endpoint and its two accounts
type SFTPConfig struct {
	Host string
	Port int

	// Send account (outbound files)
	User     string
	Password string

	// Receive account (inbound partner files)
	ReceiveUser     string
	ReceivePassword string

	// Remote dirs are relative to the login directory. Sessions never chdir,
	// so the partner's ../robo_data (seen from foss_data) is robo_data here.
	InboundDir  string
	OutboundDir string
	Timeout     time.Duration

	// KnownHosts is an OpenSSH known_hosts file; empty disables host key checks
	KnownHosts string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	LockTTL  time.Duration
}

// HolidayConfig holds the public holiday API configuration
type HolidayConfig struct {
	APIKey  string
	BaseURL string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	user := getEnv("SFTP_USER", "")
	password := getEnv("SFTP_PASSWORD", "")

	port, err := strconv.Atoi(getEnv("SFTP_PORT", "22"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: SFTP_PORT must be numeric: %w", err)
	}

	cfg := &Config{
		Env:    getEnv("ENV", "development"),
		AuthID: getEnv("AUTH_ID", "foss"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Mirror: DatabaseConfig{
			URL:             getEnv("QBT_API_DATABASE_URL", ""),
			MaxConns:        2,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},

		SFTP: SFTPConfig{
			Host:            getEnv("SFTP_HOST", ""),
			Port:            port,
			User:            user,
			Password:        password,
			ReceiveUser:     getEnv("SFTP_RECEIVE_USER", user),
			ReceivePassword: getEnv("SFTP_RECEIVE_PASSWORD", password),
			InboundDir:      getEnv("SFTP_INBOUND_DIR", "foss_data"),
			OutboundDir:     getEnv("SFTP_OUTBOUND_DIR", "robo_data"),
			Timeout:         getEnvAsDuration("SFTP_TIMEOUT", "30s"),
			KnownHosts:      getEnv("SFTP_KNOWN_HOSTS", ""),
		},

		StagingDir: getEnv("STAGING_DIR", filepath.Join(os.TempDir(), "foss-sftp")),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", "30m"),
		},

		Holiday: HolidayConfig{
			APIKey:  getEnv("HOLIDAY_API_KEY", ""),
			BaseURL: getEnv("HOLIDAY_API_URL", "https://apis.data.go.kr/B090041/openapi/service/SpcdeInfoService"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.AuthID == "" {
		return fmt.Errorf("AUTH_ID must not be empty")
	}

	return nil
}

// ValidateSFTP checks the settings needed before opening a partner session
func (c *Config) ValidateSFTP() error {
	if c.SFTP.Host == "" {
		return fmt.Errorf("SFTP_HOST is required")
	}
	if c.SFTP.Port <= 0 || c.SFTP.Port > 65535 {
		return fmt.Errorf("SFTP_PORT out of range: %d", c.SFTP.Port)
	}
	if c.SFTP.User == "" && c.SFTP.ReceiveUser == "" {
		return fmt.Errorf("SFTP_USER is required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
