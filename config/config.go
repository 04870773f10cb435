package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	Org      string `yaml:"org"`
	DeviceID string `yaml:"device_id"`

	Database  DatabaseConfig  `yaml:"database"`
	Paths     PathsConfig     `yaml:"paths"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Notify    NotifyConfig    `yaml:"notify"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig selects the storage driver.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig defines the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines the Postgres connection.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// PathsConfig defines where binary artifacts live on disk.
type PathsConfig struct {
	PhotoDir  string `yaml:"photo_dir"`
	ExportDir string `yaml:"export_dir"`
	BackupDir string `yaml:"backup_dir"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
	AutoComplete  bool   `yaml:"auto_complete"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
}

// MessagingConfig defines the back-office messaging link.
type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	ReportTopic         string        `yaml:"report_topic"`
	InboundTopic        string        `yaml:"inbound_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	ProgressInterval    time.Duration `yaml:"progress_interval"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// NotifyConfig defines the optional completion webhook.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoggingConfig defines logger output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "console" or "json"
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Org:      "qreport",
		DeviceID: "field-1",
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "qreport.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "qreport",
				User:     "qreport",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Paths: PathsConfig{
			PhotoDir:  "data/photos",
			ExportDir: "data/exports",
			BackupDir: "data/backups",
		},
		Web: WebConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			AutoComplete: false,
			MaxUploadMB:  20,
		},
		Messaging: MessagingConfig{
			Backend:             "mqtt",
			ReportTopic:         "qreport/field",
			InboundTopic:        "qreport/office",
			OutboxDrainInterval: 5 * time.Second,
			ProgressInterval:    60 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "qreport",
			},
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FieldID returns the org-scoped identity of this installation.
func (c *Config) FieldID() string {
	return c.Org + "." + c.DeviceID
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
