package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FromPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "render.yaml")
	content := `render:
  format: svg
  theme: dark
  scale: 2.0
  pages: 3
cache:
  dir: /tmp/diagram-cache
watch:
  debounce: 2s
output:
  defaultDir: out
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Render.Format != "svg" || cfg.Render.Theme != "dark" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Render.Scale != 2.0 || cfg.Render.Pages != 3 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Cache.Dir != "/tmp/diagram-cache" {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Watch.Debounce != "2s" {
		t.Errorf("Watch.Debounce = %q", cfg.Watch.Debounce)
	}
	if cfg.Output.DefaultDir != "out" {
		t.Errorf("Output.DefaultDir = %q", cfg.Output.DefaultDir)
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("render:\n  theme: forest\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Render.Theme != "forest" {
		t.Errorf("Render.Theme = %q", cfg.Render.Theme)
	}
	if cfg.Cache.Dir != ".mmd2img-cache" {
		t.Errorf("Cache.Dir = %q, want default", cfg.Cache.Dir)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("LoadConfig(\"\") = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfig(missing) = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("render:\n  bogus: true\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("LoadConfig(bad) = %v, want ErrConfigParse", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(path, []byte(": : :\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("LoadConfig(broken) = %v, want ErrConfigParse", err)
		}
	})
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"config", false},
		{"./config.yaml", true},
		{"/etc/mmd2img/config.yaml", true},
		{`C:\configs\render.yaml`, true},
	}

	for _, tt := range tests {
		if got := isFilePath(tt.input); got != tt.want {
			t.Errorf("isFilePath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Cache.Dir != ".mmd2img-cache" {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Cache.Disabled {
		t.Error("cache disabled by default")
	}
}
