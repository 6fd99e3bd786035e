package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aschepis/backscratcher/chatapi/llm"
	"gopkg.in/yaml.v3"
)

// ModelConfigEnv names the environment variable that points at a model catalog file.
const ModelConfigEnv = "CHATAPI_MODEL_CONFIG"

// tomlCatalog wraps the list because a TOML document cannot be a bare array.
type tomlCatalog struct {
	Models []llm.RawModelConfig `toml:"models"`
}

// ModelsPath returns the catalog path: CHATAPI_MODEL_CONFIG, else cfg.ModelsFile.
// An empty result means the built-in catalog.
func ModelsPath(cfg *ClientConfig) string {
	if envPath := os.Getenv(ModelConfigEnv); envPath != "" {
		return expandPath(envPath)
	}
	if cfg != nil && cfg.ModelsFile != "" {
		return expandPath(cfg.ModelsFile)
	}
	return ""
}

// LoadCatalog loads the model catalog for cfg. A missing file yields the
// built-in models; a present file replaces them entirely.
func LoadCatalog(cfg *ClientConfig) (*llm.Catalog, error) {
	path := ModelsPath(cfg)
	if path == "" {
		return llm.NewCatalog(llm.DefaultModels())
	}
	models, err := LoadModels(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return llm.NewCatalog(llm.DefaultModels())
		}
		return nil, err
	}
	return llm.NewCatalog(models)
}

// LoadModels reads a model catalog file. The format follows the extension:
// .json, .yaml/.yml or .toml.
func LoadModels(path string) ([]llm.Model, error) {
	path = expandPath(path)
	data, err := os.ReadFile(path) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read models file %q: %w", path, err)
	}

	var raws []llm.RawModelConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &raws)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raws)
	case ".toml":
		var doc tomlCatalog
		_, err = toml.Decode(string(data), &doc)
		raws = doc.Models
	default:
		return nil, fmt.Errorf("unsupported models file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse models file %q: %w", path, err)
	}

	models, err := llm.ModelsFromRaw(raws)
	if err != nil {
		return nil, fmt.Errorf("invalid models file %q: %w", path, err)
	}
	return models, nil
}

// SaveModels writes models to path in the format given by its extension.
func SaveModels(models []llm.Model, path string) error {
	path = expandPath(path)
	raws := llm.ModelsToRaw(models)

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(raws, "", "    ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(raws)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(tomlCatalog{Models: raws})
		data = buf.Bytes()
	default:
		return fmt.Errorf("unsupported models file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal models: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write models file: %w", err)
	}
	return nil
}
