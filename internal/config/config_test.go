package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScanWindowSeconds != 4 || cfg.SessionHours != 12 || cfg.Port != 8090 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("gateway_url: http://backoffice:9000\nscan_window_seconds: 6\nport: 9090\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayURL != "http://backoffice:9000" || cfg.ScanWindowSeconds != 6 || cfg.Port != 9090 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Unset fields keep their defaults.
	if cfg.SessionHours != 12 {
		t.Errorf("session_hours should default to 12, got %d", cfg.SessionHours)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STORESCAN_GATEWAY_URL", "http://override:9000")
	t.Setenv("STORESCAN_PORT", "7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayURL != "http://override:9000" || cfg.Port != 7070 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestInvalidWindowFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("scan_window_seconds: 0\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScanWindowSeconds != 4 {
		t.Errorf("zero scan window should fall back to 4, got %d", cfg.ScanWindowSeconds)
	}
}
