package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "labtest.dev/pkg/labtest/internal/model"
)

func TestLoadLabConfig_ParsesYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("InstallDocker: true\nEnableSsh: false\nTimeZone: UTC\n"), 0o644))

	config, err := LoadLabConfig(m.Path(path))
	require.NoError(t, err)

	assert.Equal(t, true, config["InstallDocker"])
	assert.Equal(t, false, config["EnableSsh"])
	assert.Equal(t, "UTC", config["TimeZone"])
	assert.True(t, config.HasProperty("TimeZone"))
	assert.False(t, config.HasProperty("InstallFoo"))
}

func TestLoadLabConfig_MissingFileIsEmptyConfig(t *testing.T) {
	config, err := LoadLabConfig(m.Path(filepath.Join(t.TempDir(), "absent.yaml")))

	require.NoError(t, err)
	assert.Empty(t, config)
}

func TestLoadLabConfig_InvalidYamlFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0o644))

	_, err := LoadLabConfig(m.Path(path))

	assert.Error(t, err)
}

func TestLoadLabConfig_EmptyFileIsEmptyConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab-config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	config, err := LoadLabConfig(m.Path(path))

	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Empty(t, config)
}
