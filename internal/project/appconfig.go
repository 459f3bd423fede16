// Package project reads and writes layout configs and scenarios. The file
// format follows the extension: .json, .yaml/.yml or .toml.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/IlotPlan/internal/model"
)

// ErrUnknownFormat is returned for paths whose extension names no supported
// format.
var ErrUnknownFormat = errors.New("unknown file format")

// Scenario is a floor plan together with the config to lay it out with.
type Scenario struct {
	Name   string       `json:"name" yaml:"name" toml:"name"`
	Zones  []model.Zone `json:"zones" yaml:"zones" toml:"zones"`
	Config model.Config `json:"config" yaml:"config" toml:"config"`
}

type format int

const (
	formatJSON format = iota
	formatYAML
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// SaveConfig persists cfg to path, creating missing parent directories.
func SaveConfig(path string, cfg model.Config) error {
	return save(path, cfg)
}

// LoadConfig reads a config from path. Fields absent from the file keep
// their DefaultConfig value. If the file does not exist, it returns
// DefaultConfig with no error. The result is not validated.
func LoadConfig(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultConfig(), nil
		}
		return model.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := overlayBase()
	if err := decode(path, data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("decode config %s: %w", filepath.Base(path), err)
	}
	return restoreDefaults(cfg), nil
}

// SaveScenario persists s to path, creating missing parent directories.
func SaveScenario(path string, s Scenario) error {
	return save(path, s)
}

// LoadScenario reads a scenario from path. Config fields absent from the
// file keep their DefaultConfig value. A missing file is an error.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	s := Scenario{Config: overlayBase()}
	if err := decode(path, data, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario %s: %w", filepath.Base(path), err)
	}
	s.Config = restoreDefaults(s.Config)
	return s, nil
}

// overlayBase returns the defaults a file is decoded over. The category mix
// is cleared so decoders replace it instead of merging keys into it.
func overlayBase() model.Config {
	cfg := model.DefaultConfig()
	cfg.CategoryPercentages = nil
	cfg.Categories = nil
	return cfg
}

func restoreDefaults(cfg model.Config) model.Config {
	defaults := model.DefaultConfig()
	if cfg.CategoryPercentages == nil {
		cfg.CategoryPercentages = defaults.CategoryPercentages
	}
	if cfg.Categories == nil {
		cfg.Categories = defaults.Categories
	}
	return cfg
}

func decode(path string, data []byte, v any) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	switch f {
	case formatYAML:
		return yaml.Unmarshal(data, v)
	case formatTOML:
		_, err := toml.Decode(string(data), v)
		return err
	default:
		return json.Unmarshal(data, v)
	}
}

func save(path string, v any) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatYAML:
		data, err = yaml.Marshal(v)
	case formatTOML:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(v)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
