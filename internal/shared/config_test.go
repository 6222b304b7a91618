package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./calchart.db" {
			t.Errorf("expected database path ./calchart.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Server.StaticURL != "/static/" {
			t.Errorf("expected static URL /static/, got %s", config.Server.StaticURL)
		}

		if config.MembersOnly.AppName != "calchart" {
			t.Errorf("expected members only app name calchart, got %s", config.MembersOnly.AppName)
		}
	})

	t.Run("StaticPath", func(t *testing.T) {
		cfg := ServerConfig{StaticURL: "/static/"}
		if cfg.StaticPath() != "/static" {
			t.Errorf("expected /static, got %s", cfg.StaticPath())
		}

		cfg.StaticURL = "https://cdn.example.com/assets"
		if cfg.StaticPath() != "https://cdn.example.com/assets" {
			t.Errorf("trailing-slash-free URL should pass through, got %s", cfg.StaticPath())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 8080
static_url = "https://cdn.example.com/calchart/"
is_local = false
cookie_name = "calchart_session"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[members_only]
domain = "http://localhost:8000"
app_name = "calchart"
rate = 2.5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.MembersOnly.Domain != "http://localhost:8000" {
			t.Errorf("expected members only domain http://localhost:8000, got %s", config.MembersOnly.Domain)
		}
	})

	t.Run("LoadConfigMissing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("loading a missing config file should fail")
		}
	})
}
