package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSettings(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/starcat")

	cfg, err := Load(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":8082" {
		t.Fatalf("Addr = %q, want :8082", cfg.Addr)
	}
	if cfg.RequestTimeout != 360*time.Second {
		t.Fatalf("RequestTimeout = %v, want 360s", cfg.RequestTimeout)
	}
	if cfg.DBMaxConns != 9 {
		t.Fatalf("DBMaxConns = %d, want 9", cfg.DBMaxConns)
	}
	if cfg.PageSizeMax != 500 {
		t.Fatalf("PageSizeMax = %d, want 500", cfg.PageSizeMax)
	}
}

func TestLoadMissingDSN(t *testing.T) {
	if _, err := Load(context.Background(), "", ""); err == nil {
		t.Fatal("Load() should fail without DB_DSN")
	}
}

func TestLoadProfileMerging(t *testing.T) {
	path := writeSettings(t, `
default:
  DB_DSN: postgres://localhost/starcat
  RATE_LIMIT_PER_MINUTE: 100
production:
  RATE_LIMIT_PER_MINUTE: 1200
`)

	tests := []struct {
		name     string
		profile  string
		wantRate int
	}{
		{name: "default section only", profile: "default", wantRate: 100},
		{name: "profile overrides default", profile: "production", wantRate: 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(context.Background(), path, tt.profile)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.RatePerMinute != tt.wantRate {
				t.Fatalf("RatePerMinute = %d, want %d", cfg.RatePerMinute, tt.wantRate)
			}
			if cfg.DBDSN != "postgres://localhost/starcat" {
				t.Fatalf("DBDSN = %q", cfg.DBDSN)
			}
		})
	}
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := writeSettings(t, `
default:
  DB_DSN: postgres://localhost/starcat
  ADDR: ":9999"
`)
	t.Setenv("ADDR", ":8082")

	cfg, err := Load(context.Background(), path, "default")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8082" {
		t.Fatalf("Addr = %q, environment should override the profile", cfg.Addr)
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	path := writeSettings(t, `
default:
  DB_DSN: postgres://localhost/starcat
`)

	if _, err := Load(context.Background(), path, "staging"); err == nil {
		t.Fatal("Load() should fail for an unknown profile")
	}
}

func TestLoadMissingSettingsFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), "default"); err == nil {
		t.Fatal("Load() should fail when the settings file does not exist")
	}
}
