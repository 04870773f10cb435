package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Web.Port != 8090 {
		t.Errorf("Port = %d, want 8090", cfg.Web.Port)
	}
	if cfg.Web.MaxUploadMB != 20 {
		t.Errorf("MaxUploadMB = %d, want 20", cfg.Web.MaxUploadMB)
	}
	if cfg.Messaging.Backend != "mqtt" {
		t.Errorf("Backend = %q, want mqtt", cfg.Messaging.Backend)
	}
	if cfg.Messaging.OutboxDrainInterval != 5*time.Second {
		t.Errorf("OutboxDrainInterval = %v, want 5s", cfg.Messaging.OutboxDrainInterval)
	}
	if cfg.FieldID() != "qreport.field-1" {
		t.Errorf("FieldID = %q, want qreport.field-1", cfg.FieldID())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Web.Port != 8090 {
		t.Errorf("Port = %d, want default 8090", cfg.Web.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
org: robopack
device_id: van-3
web:
  port: 9000
database:
  driver: postgres
  postgres:
    host: db.example.com
messaging:
  backend: kafka
  kafka:
    brokers: ["k1:9092", "k2:9092"]
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FieldID() != "robopack.van-3" {
		t.Errorf("FieldID = %q, want robopack.van-3", cfg.FieldID())
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Web.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Postgres.Host != "db.example.com" {
		t.Errorf("Host = %q, want db.example.com", cfg.Database.Postgres.Host)
	}
	// Untouched defaults survive a partial file
	if cfg.Database.Postgres.Port != 5432 {
		t.Errorf("Postgres port = %d, want default 5432", cfg.Database.Postgres.Port)
	}
	if len(cfg.Messaging.Kafka.Brokers) != 2 {
		t.Errorf("Brokers = %v, want two", cfg.Messaging.Kafka.Brokers)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("web: [not a map"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Defaults()
	cfg.Org = "robopack"
	cfg.Web.AutoComplete = true
	cfg.Notify.WebhookURL = "https://office.example.com/hooks/qreport"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Org != "robopack" {
		t.Errorf("Org = %q, want robopack", got.Org)
	}
	if !got.Web.AutoComplete {
		t.Error("AutoComplete should survive the round trip")
	}
	if got.Notify.WebhookURL != cfg.Notify.WebhookURL {
		t.Errorf("WebhookURL = %q, want %q", got.Notify.WebhookURL, cfg.Notify.WebhookURL)
	}
	if got.Notify.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", got.Notify.Timeout)
	}
}
