package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesGmailDefaults(t *testing.T) {
	path := writeConfig(t, `
mailbox:
  address: support@example.com
  password: app-password
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mailbox.Server != "imap.gmail.com" || cfg.Mailbox.Port != 993 {
		t.Errorf("IMAP defaults = %s:%d", cfg.Mailbox.Server, cfg.Mailbox.Port)
	}
	if cfg.Mailbox.Folder != "INBOX" {
		t.Errorf("Folder = %q, want INBOX", cfg.Mailbox.Folder)
	}
	if cfg.Email.Provider != "smtp" {
		t.Errorf("Email.Provider = %q, want smtp", cfg.Email.Provider)
	}
	if cfg.Email.SMTP.Host != "smtp.gmail.com" || cfg.Email.SMTP.Port != 465 || !cfg.Email.SMTP.UseTLS {
		t.Errorf("SMTP defaults = %+v", cfg.Email.SMTP)
	}
	if cfg.Email.From != "support@example.com" {
		t.Errorf("From = %q, want the mailbox address", cfg.Email.From)
	}
	if cfg.Email.SMTP.Username != "support@example.com" || cfg.Email.SMTP.Password != "app-password" {
		t.Errorf("SMTP credentials not inherited from the mailbox")
	}
	if cfg.Generator.Model != "open-mixtral-8x22b" || cfg.Generator.MaxTokens != 2000 {
		t.Errorf("generator defaults = %+v", cfg.Generator)
	}
	if cfg.Storage.LedgerPath != "customer_data.csv" {
		t.Errorf("LedgerPath = %q", cfg.Storage.LedgerPath)
	}
	if cfg.Storage.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Storage.MaxRetries)
	}
	if cfg.Poll.IntervalSec != 20 || cfg.Poll.ErrorPauseSec != 60 {
		t.Errorf("poll defaults = %+v", cfg.Poll)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TATA_MOTORS_EMAIL", "env@example.com")
	t.Setenv("TATA_MOTORS_EMAIL_PASSWORD", "env-password")
	t.Setenv("MISTRAL_API_KEY", "env-key")

	path := writeConfig(t, `
mailbox:
  address: file@example.com
  password: file-password
generator:
  api_key: file-key
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mailbox.Address != "env@example.com" {
		t.Errorf("Address = %q, want env override", cfg.Mailbox.Address)
	}
	if cfg.Mailbox.Password != "env-password" {
		t.Errorf("Password = %q, want env override", cfg.Mailbox.Password)
	}
	if cfg.Generator.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.Generator.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil for missing file")
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := &Config{}
	cfg.Mailbox.Address = "support@example.com"
	cfg.Mailbox.Password = "secret"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config saved with permissions %04o, want 0600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Mailbox.Address != "support@example.com" {
		t.Errorf("Address = %q after roundtrip", loaded.Mailbox.Address)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Mailbox.Address = "support@example.com"
		cfg.Mailbox.Password = "secret"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"complete smtp config", func(c *Config) {}, false},
		{"missing address", func(c *Config) { c.Mailbox.Address = "" }, true},
		{"missing password", func(c *Config) { c.Mailbox.Password = "" }, true},
		{"missing imap server", func(c *Config) { c.Mailbox.Server = "" }, true},
		{"resend without key", func(c *Config) { c.Email.Provider = "resend" }, true},
		{"resend with key", func(c *Config) { c.Email.Provider = "resend"; c.Email.APIKey = "k" }, false},
		{"unknown provider", func(c *Config) { c.Email.Provider = "pigeon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
