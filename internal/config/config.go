package config

import (
	"errors"
	"fmt"
	"os"

	"karenta/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Mail       MailConfig       `yaml:"mail"`
	Storage    StorageConfig    `yaml:"storage"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Booking    BookingConfig    `yaml:"booking"`
	Exports    ExportConfig     `yaml:"exports"`
	Catalogs   CatalogConfig    `yaml:"catalogs"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// MailConfig points at the transactional-mail HTTP function.
type MailConfig struct {
	Enabled     bool   `yaml:"enabled"`
	FunctionURL string `yaml:"function_url"`
	APIKey      string `yaml:"api_key"`
	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`
}

// StorageConfig controls where refund proof images land and how they are
// addressed publicly.
type StorageConfig struct {
	ProofDir      string `yaml:"proof_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type TelegramConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BotToken     string `yaml:"bot_token"`
	ManagersChat int64  `yaml:"managers_chat"`
	Debug        bool   `yaml:"debug"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	BookingsSpreadsheetID string `yaml:"bookings_spreadsheet_id"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// BookingConfig carries business policy knobs.
type BookingConfig struct {
	MaxAdvanceDays    int    `yaml:"max_advance_days"`
	SessionTTLSeconds int    `yaml:"session_ttl_seconds"`
	ReminderTime      string `yaml:"reminder_time"`
	RateLimitRequests int    `yaml:"rate_limit_requests"`
	RateLimitWindow   int    `yaml:"rate_limit_window"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig points at the static yaml catalogs loaded at startup.
type CatalogConfig struct {
	VehiclesPath     string `yaml:"vehicles_path"`
	PickupPointsPath string `yaml:"pickup_points_path"`
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay in the env.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Mail.Enabled && c.Mail.FunctionURL == "" {
		return errors.New("mail.function_url is required when mail is enabled")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required when telegram is enabled")
	}
	return nil
}

// ValidateVehicles rejects catalogs with missing or duplicate vehicle IDs.
func ValidateVehicles(vehicles []models.Vehicle) error {
	seen := make(map[int64]bool)
	for _, v := range vehicles {
		if v.ID == 0 {
			return fmt.Errorf("vehicle '%s' has invalid ID 0", v.Name)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate vehicle ID found: %d", v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if !c.API.Auth.Enabled && c.API.Enabled {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = 365
	}
	if c.Booking.SessionTTLSeconds == 0 {
		c.Booking.SessionTTLSeconds = models.DefaultSessionTTL
	}
	if c.Booking.ReminderTime == "" {
		c.Booking.ReminderTime = fmt.Sprintf("%02d:00", models.ReminderHour)
	}
	if c.Booking.RateLimitRequests == 0 {
		c.Booking.RateLimitRequests = models.RateLimitRequests
	}
	if c.Booking.RateLimitWindow == 0 {
		c.Booking.RateLimitWindow = models.RateLimitWindow
	}

	if c.Storage.ProofDir == "" {
		c.Storage.ProofDir = "data/proofs"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "data/exports"
	}
}
