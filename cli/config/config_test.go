package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ftclient.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTemp(t, `server: flip1.engr.oregonstate.edu
port: 30020
data_port: 30021
identity: flip2
dialect: verb
timeout: 15s
dir: ./downloads
format: json

archive:
  backend: s3
  path: my-bucket/ftclient
  dataset: transfers
  region: us-west-2
  endpoint: http://localhost:9000
  s3_path_style: true

notify:
  type: webhook
  url: https://hooks.example.com/ftclient
  headers:
    Authorization: Bearer token123
  timeout: 5s
  retries: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	checks := []struct {
		name, got, want string
	}{
		{"server", cfg.Server, "flip1.engr.oregonstate.edu"},
		{"identity", cfg.Identity, "flip2"},
		{"dialect", cfg.Dialect, "verb"},
		{"dir", cfg.Dir, "./downloads"},
		{"format", cfg.Format, "json"},
		{"archive.backend", cfg.Archive.Backend, "s3"},
		{"archive.path", cfg.Archive.Path, "my-bucket/ftclient"},
		{"archive.dataset", cfg.Archive.Dataset, "transfers"},
		{"archive.region", cfg.Archive.Region, "us-west-2"},
		{"archive.endpoint", cfg.Archive.Endpoint, "http://localhost:9000"},
		{"notify.type", cfg.Notify.Type, "webhook"},
		{"notify.url", cfg.Notify.URL, "https://hooks.example.com/ftclient"},
		{"notify.headers.Authorization", cfg.Notify.Headers["Authorization"], "Bearer token123"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	if cfg.Port != 30020 || cfg.DataPort != 30021 {
		t.Errorf("ports = %d/%d", cfg.Port, cfg.DataPort)
	}
	if cfg.Timeout.Duration != 15*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout.Duration)
	}
	if !cfg.Archive.S3PathStyle {
		t.Error("expected archive.s3_path_style=true")
	}
	if cfg.Notify.Timeout.Duration != 5*time.Second {
		t.Errorf("notify.timeout = %v", cfg.Notify.Timeout.Duration)
	}
	if cfg.Notify.Retries == nil || *cfg.Notify.Retries != 2 {
		t.Errorf("notify.retries = %v", cfg.Notify.Retries)
	}
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeTemp(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server != "" || cfg.Notify.Retries != nil {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("FT_SERVER", "flip3")
	t.Setenv("FT_WEBHOOK_TOKEN", "secret")

	cfg, err := Load(writeTemp(t, `server: ${FT_SERVER}
identity: ${FT_IDENTITY_UNSET:-localhost}
notify:
  type: webhook
  url: https://hooks.example.com
  headers:
    Authorization: Bearer ${FT_WEBHOOK_TOKEN}
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server != "flip3" {
		t.Errorf("server = %q", cfg.Server)
	}
	if cfg.Identity != "localhost" {
		t.Errorf("identity = %q", cfg.Identity)
	}
	if got := cfg.Notify.Headers["Authorization"]; got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "sever: typo\n", "invalid YAML"},
		{"bad yaml", "server: [unclosed\n", "invalid YAML"},
		{"bad duration", "timeout: soon\n", "invalid duration"},
		{"negative duration", "timeout: -5s\n", "must not be negative"},
		{"bad dialect", "dialect: morse\n", "invalid config"},
		{"bad backend", "archive:\n  backend: ftp\n", "archive.backend"},
		{"bad notify type", "notify:\n  type: kafka\n", "notify.type"},
		{"negative retries", "notify:\n  retries: -1\n", "notify.retries"},
		{"port out of range", "port: 70000\n", "port must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadOptional("")
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if cfg.Server != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}

	if err := os.WriteFile(DefaultPath, []byte("server: flip1\n"), 0o644); err != nil {
		t.Fatalf("write default config: %v", err)
	}
	cfg, err = LoadOptional("")
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if cfg.Server != "flip1" {
		t.Errorf("server = %q, want flip1", cfg.Server)
	}
}
