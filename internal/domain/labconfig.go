package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "labtest.dev/pkg/labtest/internal/model"
)

// LabConfig is the shared configuration object runner scripts receive.
// Keys are the enable/disable flags and settings the scripts consult
// (e.g. InstallDocker: true).
type LabConfig map[string]any

// LoadLabConfig reads the shared lab config next to the scripts. A
// missing file is an empty config, not an error; generated tests make
// the same assumption.
func LoadLabConfig(path m.Path) (LabConfig, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		if os.IsNotExist(err) {
			return LabConfig{}, nil
		}

		return nil, fmt.Errorf("read lab config %s: %w", path, err)
	}

	var config LabConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse lab config %s: %w", path, err)
	}

	if config == nil {
		config = LabConfig{}
	}

	return config, nil
}

// HasProperty reports whether the config declares the given flag.
func (c LabConfig) HasProperty(name string) bool {
	_, ok := c[name]
	return ok
}
