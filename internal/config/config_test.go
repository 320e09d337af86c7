package config

import (
	"os"
	"path/filepath"
	"testing"

	"karenta/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "karenta"
database:
  path: "test.db"
mail:
  enabled: true
  function_url: "https://mail.example.test/send"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "karenta" {
		t.Errorf("expected app name karenta, got %s", cfg.App.Name)
	}
	if cfg.Mail.FunctionURL != "https://mail.example.test/send" {
		t.Errorf("unexpected mail function url: %s", cfg.Mail.FunctionURL)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default API port 8080, got %d", cfg.API.Port)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "mail enabled without url",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Mail:     MailConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "telegram enabled without token",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Telegram: TelegramConfig{Enabled: true},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Booking.MaxAdvanceDays != 365 {
		t.Errorf("expected default max advance days 365, got %d", cfg.Booking.MaxAdvanceDays)
	}
	if cfg.Booking.SessionTTLSeconds != models.DefaultSessionTTL {
		t.Errorf("expected default session ttl %d, got %d", models.DefaultSessionTTL, cfg.Booking.SessionTTLSeconds)
	}
	if cfg.Booking.ReminderTime != "09:00" {
		t.Errorf("expected default reminder time 09:00, got %s", cfg.Booking.ReminderTime)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Storage.ProofDir != "data/proofs" {
		t.Errorf("expected default proof dir, got %s", cfg.Storage.ProofDir)
	}
}

func TestValidateVehicles(t *testing.T) {
	tests := []struct {
		name     string
		vehicles []models.Vehicle
		wantErr  bool
	}{
		{
			name: "valid vehicles",
			vehicles: []models.Vehicle{
				{ID: 1, Name: "Vios"},
				{ID: 2, Name: "Innova"},
			},
			wantErr: false,
		},
		{
			name: "duplicate ID",
			vehicles: []models.Vehicle{
				{ID: 1, Name: "Vios"},
				{ID: 1, Name: "Innova"},
			},
			wantErr: true,
		},
		{
			name:     "ID 0",
			vehicles: []models.Vehicle{{ID: 0, Name: "Vios"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVehicles(tt.vehicles)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVehicles() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
