package cmd

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/configs"
)

func TestConfigInitCmd_CreatesFile(t *testing.T) {
	// Given: an empty working directory
	chdir(t, t.TempDir())

	// When: running config init
	output, err := runCLI(t, "config", "init")

	// Then: the template is written to docsift.yaml
	require.NoError(t, err)
	assert.Contains(t, output, "Created configuration file")

	written, err := os.ReadFile("docsift.yaml")
	require.NoError(t, err)
	assert.Equal(t, configs.ConfigTemplate, string(written), "File should be the embedded template")
}

func TestConfigInitCmd_RefusesOverwrite(t *testing.T) {
	// Given: an existing config file
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("docsift.yaml", []byte("corpus:\n  path: keep.jsonl\n"), 0o644))

	// When: running config init without --force
	output, err := runCLI(t, "config", "init")

	// Then: the existing file is left alone
	require.NoError(t, err)
	assert.Contains(t, output, "already exists")

	kept, err := os.ReadFile("docsift.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(kept), "keep.jsonl", "Existing config should not be overwritten")
}

func TestConfigInitCmd_ForceOverwrites(t *testing.T) {
	// Given: an existing config file
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("docsift.yaml", []byte("stale"), 0o644))

	// When: running config init --force
	output, err := runCLI(t, "config", "init", "--force")

	// Then: the file is replaced with the template
	require.NoError(t, err)
	assert.Contains(t, output, "Created configuration file")

	written, err := os.ReadFile("docsift.yaml")
	require.NoError(t, err)
	assert.Equal(t, configs.ConfigTemplate, string(written))
}

func TestConfigInitCmd_HonorsConfigFlag(t *testing.T) {
	// Given: an empty working directory
	chdir(t, t.TempDir())

	// When: running config init with an explicit path
	_, err := runCLI(t, "config", "init", "--config", "custom.yaml")

	// Then: the template lands at that path
	require.NoError(t, err)
	written, err := os.ReadFile("custom.yaml")
	require.NoError(t, err)
	assert.Equal(t, configs.ConfigTemplate, string(written))
}

func TestConfigShowCmd_YAMLOutput(t *testing.T) {
	// Given: an empty working directory, defaults only
	chdir(t, t.TempDir())

	// When: running config show
	output, err := runCLI(t, "config", "show")

	// Then: the effective configuration is printed as YAML
	require.NoError(t, err)
	assert.Contains(t, output, "fusion_weight: 0.7")
	assert.Contains(t, output, "port: 8080")
	assert.Contains(t, output, "provider: static")
}

func TestConfigShowCmd_JSONOutput(t *testing.T) {
	// Given: an empty working directory, defaults only
	chdir(t, t.TempDir())

	// When: running config show --json
	output, err := runCLI(t, "config", "show", "--json")

	// Then: the output parses and carries the defaults
	require.NoError(t, err)

	var parsed struct {
		Search struct {
			FusionWeight float64 `json:"fusion_weight"`
		} `json:"search"`
		Server struct {
			Port int `json:"port"`
		} `json:"server"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &parsed), "Output should be valid JSON")
	assert.Equal(t, 0.7, parsed.Search.FusionWeight)
	assert.Equal(t, 8080, parsed.Server.Port)
}

func TestConfigShowCmd_ReflectsConfigFile(t *testing.T) {
	// Given: a config file overriding the port
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("docsift.yaml", []byte("server:\n  port: 9090\n"), 0o644))

	// When: running config show
	output, err := runCLI(t, "config", "show")

	// Then: the merged value is shown
	require.NoError(t, err)
	assert.Contains(t, output, "port: 9090")
}
