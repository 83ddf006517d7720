package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Backend: BackendConfig{BaseURL: "http://localhost:5000"},
		Storage: StorageConfig{Driver: "sqlite"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingBackendURL(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing backend.base_url")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Storage = StorageConfig{Driver: "redis"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg.Storage.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `storage.driver must be "redis" or "sqlite", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.KeyPrefix != "lexspace:" {
		t.Errorf("expected KeyPrefix='lexspace:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Backend.RequestsPerSecond != 5 {
		t.Errorf("expected RequestsPerSecond=5, got %v", cfg.Backend.RequestsPerSecond)
	}
	if cfg.AnnexSwitch.MaxMainArticles != 5 {
		t.Errorf("expected MaxMainArticles=5, got %d", cfg.AnnexSwitch.MaxMainArticles)
	}
	if cfg.AnnexSwitch.MinAnnexArticles != 2 {
		t.Errorf("expected MinAnnexArticles=2, got %d", cfg.AnnexSwitch.MinAnnexArticles)
	}
	if cfg.AnnexSwitch.ToastDurationMS != 4000 {
		t.Errorf("expected ToastDurationMS=4000, got %d", cfg.AnnexSwitch.ToastDurationMS)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Backend:     BackendConfig{TimeoutSec: 20, RequestsPerSecond: 1, Burst: 2},
		Storage:     StorageConfig{KeyPrefix: "custom:", Driver: "redis"},
		AnnexSwitch: AnnexSwitchConfig{MaxMainArticles: 10, MinAnnexArticles: 1},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.Driver != "redis" {
		t.Errorf("expected redis driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.AnnexSwitch.MaxMainArticles != 10 {
		t.Errorf("expected MaxMainArticles=10, got %d", cfg.AnnexSwitch.MaxMainArticles)
	}
}

func TestAnnexSwitch_EnabledDefault(t *testing.T) {
	if !(AnnexSwitchConfig{}).EnabledOrDefault() {
		t.Error("annex switch should default to enabled")
	}
	off := false
	if (AnnexSwitchConfig{Enabled: &off}).EnabledOrDefault() {
		t.Error("explicit false should disable")
	}
}
