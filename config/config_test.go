package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

func TestLoadClientConfig_MissingFile(t *testing.T) {
	cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}
	if *cfg != DefaultClientConfig() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.SleepBetweenRetries() != 5*time.Second {
		t.Errorf("Expected 5s default sleep, got %v", cfg.SleepBetweenRetries())
	}
}

func TestLoadClientConfig_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "model: sonnet\nmax_retry: 2\ntimeout: n\nrecord_usage_at: ~/usage.db\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}
	if cfg.Model != "sonnet" || cfg.MaxRetry != 2 || cfg.Timeout != "n" {
		t.Errorf("Expected file values to win, got %+v", cfg)
	}
	if cfg.SchemaMaxTry != 3 || cfg.SleepBetweenRetriesMs != 5000 {
		t.Errorf("Expected unset values to keep defaults, got %+v", cfg)
	}
	if cfg.RecordUsageAt != "~/usage.db" {
		t.Errorf("Expected path to be kept as written, got %q", cfg.RecordUsageAt)
	}
}

func TestLoadClientConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClientConfig(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveClientConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	want := DefaultClientConfig()
	want.Model = "gpt-4o"
	want.DumpJSONAt = "/tmp/dump.jsonl"

	if err := SaveClientConfig(&want, path); err != nil {
		t.Fatalf("SaveClientConfig failed: %v", err)
	}
	got, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}
	if *got != want {
		t.Errorf("Round trip mismatch\nwant %+v\ngot  %+v", want, *got)
	}
}

func TestGetClientConfigPath_Env(t *testing.T) {
	t.Setenv("CHATAPI_CONFIG_PATH", "/etc/chatapi.yaml")
	if got := GetClientConfigPath(); got != "/etc/chatapi.yaml" {
		t.Errorf("Expected env override, got %s", got)
	}
}

func TestModelsFiles_RoundTrip(t *testing.T) {
	models := llm.DefaultModels()

	for _, ext := range []string{".json", ".yaml", ".yml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "models"+ext)
			if err := SaveModels(models, path); err != nil {
				t.Fatalf("SaveModels failed: %v", err)
			}
			loaded, err := LoadModels(path)
			if err != nil {
				t.Fatalf("LoadModels failed: %v", err)
			}
			if len(loaded) != len(models) {
				t.Fatalf("Expected %d models, got %d", len(models), len(loaded))
			}
			for i := range models {
				if loaded[i] != models[i] {
					t.Errorf("Model %d changed\nwant %+v\ngot  %+v", i, models[i], loaded[i])
				}
			}
		})
	}
}

func TestLoadModels_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.ini")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModels(path); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Expected unsupported extension error, got %v", err)
	}
}

func TestLoadModels_InvalidProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	body := `[{"name": "x", "api_name": "x", "api_provider": "gemini", "input_price": 0, "output_price": 0}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModels(path); !llm.IsInvalidProviderError(err) {
		t.Errorf("Expected invalid provider error, got %v", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Setenv(ModelConfigEnv, "")

	// No file configured: built-in catalog.
	catalog, err := LoadCatalog(&ClientConfig{})
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog.Models()) != len(llm.DefaultRawModels()) {
		t.Errorf("Expected built-in catalog, got %d models", len(catalog.Models()))
	}

	// Configured but missing: built-in catalog.
	missing := filepath.Join(t.TempDir(), "none.yaml")
	catalog, err = LoadCatalog(&ClientConfig{ModelsFile: missing})
	if err != nil {
		t.Fatalf("LoadCatalog with missing file failed: %v", err)
	}
	if len(catalog.Models()) != len(llm.DefaultRawModels()) {
		t.Errorf("Expected built-in catalog for missing file, got %d models", len(catalog.Models()))
	}

	// A present file replaces the defaults.
	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := "- name: local\n  api_name: phi4\n  api_provider: openai\n  api_url: http://127.0.0.1:11434/v1/chat/completions\n  input_price: 0\n  output_price: 0\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ModelConfigEnv, path)
	catalog, err = LoadCatalog(&ClientConfig{ModelsFile: missing})
	if err != nil {
		t.Fatalf("LoadCatalog from env failed: %v", err)
	}
	names := catalog.Names()
	if len(names) != 1 || names[0] != "local" {
		t.Errorf("Expected only the file's model, got %v", names)
	}
}

func TestLoadCatalog_DuplicateNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	body := `[
		{"name": "x", "api_name": "a", "api_provider": "openai", "input_price": 0, "output_price": 0},
		{"name": "x", "api_name": "b", "api_provider": "openai", "input_price": 0, "output_price": 0}
	]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ModelConfigEnv, path)
	if _, err := LoadCatalog(nil); err == nil {
		t.Error("Expected error for duplicate model names")
	}
}
