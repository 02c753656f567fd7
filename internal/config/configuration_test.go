package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationGetDottedPath(t *testing.T) {
	raw := map[string]interface{}{
		"road_network": map[string]interface{}{
			"capacities": map[string]interface{}{
				"mean": 1800.0,
				"std":  200.0,
			},
		},
		"servers": []interface{}{
			map[string]interface{}{"host": "alpha"},
			map[string]interface{}{"host": "beta"},
		},
	}
	cfg := NewFromMap(raw, "/tmp/out")

	v, ok := cfg.Get("road_network.capacities.mean")
	require.True(t, ok)
	assert.Equal(t, 1800.0, v)

	v, ok = cfg.Get("servers[1].host")
	require.True(t, ok)
	assert.Equal(t, "beta", v)

	_, ok = cfg.Get("servers[5].host")
	assert.False(t, ok)

	_, ok = cfg.Get("road_network.missing")
	assert.False(t, ok)

	_, ok = cfg.Get("road_network.capacities.mean.sub")
	assert.False(t, ok)
}

func TestLoadParsesTOMLDocument(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	require.NoError(t, writeFile(path, `
random_seed = 42

[road_network]
remove_duplicates = true

[road_network.capacities]
mean = 1800.0
std = 200.0
distribution = "Normal"
`))

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	seed, ok := cfg.Get("random_seed")
	require.True(t, ok)
	assert.Equal(t, int64(42), seed)

	dup, ok := cfg.Get("road_network.remove_duplicates")
	require.True(t, ok)
	assert.Equal(t, true, dup)
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.toml"
	require.NoError(t, writeFile(path, "this = is not [valid"))

	_, err := Load(path, dir)
	require.Error(t, err)
}

func TestLoadFileResolvesMainDirectory(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	require.NoError(t, writeFile(path, "main_directory = \"run\"\n"))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, dir+"/run", cfg.MainDirectory())
}

func TestLoadFileRequiresMainDirectory(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	require.NoError(t, writeFile(path, "random_seed = 1\n"))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main_directory")
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
