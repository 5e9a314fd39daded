package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	defaultModel       = "open-mixtral-8x22b"
	defaultMaxTokens   = 2000
	defaultPollSec     = 20
	defaultErrPauseSec = 60
	defaultMaxRetries  = 5
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Mailbox   MailboxConfig   `yaml:"mailbox"`
	Email     EmailConfig     `yaml:"email"`
	Generator GeneratorConfig `yaml:"generator"`
	Storage   StorageConfig   `yaml:"storage"`
	Poll      PollConfig      `yaml:"poll,omitempty"`
}

// MailboxConfig holds IMAP settings for the support inbox
type MailboxConfig struct {
	Provider string `yaml:"provider"` // "gmail", "outlook", "imap"
	Server   string `yaml:"server"`   // e.g., "imap.gmail.com"
	Port     int    `yaml:"port"`     // e.g., 993
	Address  string `yaml:"address"`  // Mailbox address to monitor
	Password string `yaml:"password"` // App password (not main password)
	Folder   string `yaml:"folder"`   // Folder to monitor (default: "INBOX")
}

type EmailConfig struct {
	Provider string     `yaml:"provider"` // "smtp", "resend", "sendgrid"
	From     string     `yaml:"from"`
	APIKey   string     `yaml:"api_key,omitempty"` // for resend/sendgrid
	SMTP     SMTPConfig `yaml:"smtp,omitempty"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

// GeneratorConfig holds settings for the reply-generation service
type GeneratorConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// StorageConfig holds paths for the customer ledger and audit history
type StorageConfig struct {
	LedgerPath  string `yaml:"ledger_path"`  // customer CSV table
	HistoryPath string `yaml:"history_path"` // sqlite audit log
	MaxRetries  int    `yaml:"max_retries"`  // ledger save attempts before fallback
}

type PollConfig struct {
	IntervalSec   int `yaml:"interval_sec"`    // delay between cycles
	ErrorPauseSec int `yaml:"error_pause_sec"` // delay after a cycle-level error
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".automail", "config.yaml")
}

func Load(path string) (*Config, error) {
	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mailbox.Folder == "" {
		c.Mailbox.Folder = "INBOX"
	}
	if c.Mailbox.Provider == "" {
		c.Mailbox.Provider = "gmail"
	}
	if c.Mailbox.Provider == "gmail" && c.Mailbox.Server == "" {
		c.Mailbox.Server = "imap.gmail.com"
		c.Mailbox.Port = 993
	}
	if c.Mailbox.Provider == "outlook" && c.Mailbox.Server == "" {
		c.Mailbox.Server = "outlook.office365.com"
		c.Mailbox.Port = 993
	}

	if c.Email.Provider == "" {
		c.Email.Provider = "smtp"
	}
	if c.Email.From == "" {
		c.Email.From = c.Mailbox.Address
	}
	if c.Email.Provider == "smtp" {
		if c.Email.SMTP.Host == "" {
			c.Email.SMTP.Host = "smtp.gmail.com"
			c.Email.SMTP.Port = 465
			c.Email.SMTP.UseTLS = true
		}
		if c.Email.SMTP.Username == "" {
			c.Email.SMTP.Username = c.Mailbox.Address
		}
		if c.Email.SMTP.Password == "" {
			c.Email.SMTP.Password = c.Mailbox.Password
		}
	}

	if c.Generator.Model == "" {
		c.Generator.Model = defaultModel
	}
	if c.Generator.MaxTokens == 0 {
		c.Generator.MaxTokens = defaultMaxTokens
	}

	if c.Storage.LedgerPath == "" {
		c.Storage.LedgerPath = "customer_data.csv"
	}
	if c.Storage.HistoryPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.Storage.HistoryPath = filepath.Join(home, ".automail", "history.db")
		} else {
			c.Storage.HistoryPath = "history.db"
		}
	}
	if c.Storage.MaxRetries == 0 {
		c.Storage.MaxRetries = defaultMaxRetries
	}

	if c.Poll.IntervalSec == 0 {
		c.Poll.IntervalSec = defaultPollSec
	}
	if c.Poll.ErrorPauseSec == 0 {
		c.Poll.ErrorPauseSec = defaultErrPauseSec
	}
}

// ApplyEnv overrides secrets from the environment. The variable names match
// the ones the support team already provisions for the mailbox.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TATA_MOTORS_EMAIL"); v != "" {
		c.Mailbox.Address = v
	}
	if v := os.Getenv("TATA_MOTORS_EMAIL_PASSWORD"); v != "" {
		c.Mailbox.Password = v
	}
	if v := os.Getenv("MISTRAL_API_KEY"); v != "" {
		c.Generator.APIKey = v
	}
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Mailbox.Address == "" {
		return fmt.Errorf("mailbox: address is required")
	}
	if c.Mailbox.Password == "" {
		return fmt.Errorf("mailbox: password (app password) is required")
	}
	if c.Mailbox.Server == "" {
		return fmt.Errorf("mailbox: IMAP server is required")
	}
	if c.Mailbox.Port == 0 {
		return fmt.Errorf("mailbox: IMAP port is required")
	}

	if c.Email.From == "" {
		return fmt.Errorf("email: from address is required")
	}
	switch c.Email.Provider {
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("email.smtp: host is required")
		}
		if c.Email.SMTP.Port == 0 {
			return fmt.Errorf("email.smtp: port is required")
		}
	case "resend", "sendgrid":
		if c.Email.APIKey == "" {
			return fmt.Errorf("email: api_key is required for provider %q", c.Email.Provider)
		}
	default:
		return fmt.Errorf("email: unknown provider %q (smtp, resend, sendgrid)", c.Email.Provider)
	}

	return nil
}
