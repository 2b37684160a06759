package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolatedDir changes into a fresh directory that stops config discovery.
func isolatedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	t.Chdir(dir)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolatedDir(t)

	cfg, configPath, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, configPath)
	assert.Equal(t, 1, cfg.MaxExtraDepth)
	assert.Empty(t, cfg.Store)
	assert.Empty(t, cfg.Roots)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := isolatedDir(t)
	content := `
max_extra_depth: 3
store: registries.db
roots: [Song, Person]
scenarios:
  dir: testdata/scenarios
  golden_dir: testdata/golden
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fetchview.yaml"), []byte(content), 0o644))

	cfg, foundPath, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "fetchview.yaml", filepath.Base(foundPath))
	assert.Equal(t, 3, cfg.MaxExtraDepth)
	assert.Equal(t, "registries.db", cfg.Store)
	assert.Equal(t, []string{"Song", "Person"}, cfg.Roots)
	assert.Equal(t, "testdata/scenarios", cfg.Scenarios.Dir)
	assert.Equal(t, "testdata/golden", cfg.Scenarios.GoldenDir)
}

func TestLoadConfig_DiscoversParent(t *testing.T) {
	dir := isolatedDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fetchview.yml"), []byte("max_extra_depth: 2\n"), 0o644))
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	cfg, foundPath, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "fetchview.yml", filepath.Base(foundPath))
	assert.Equal(t, 2, cfg.MaxExtraDepth)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := isolatedDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fetchview.yaml"), []byte("max_extra_depth: 3\nstore: file.db\n"), 0o644))
	t.Setenv("FETCHVIEW_MAX_EXTRA_DEPTH", "0")
	t.Setenv("FETCHVIEW_SCENARIOS_DIR", "env/scenarios")

	cfg, _, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxExtraDepth)
	assert.Equal(t, "file.db", cfg.Store)
	assert.Equal(t, "env/scenarios", cfg.Scenarios.Dir)
}

func TestLoadConfig_Explicit(t *testing.T) {
	isolatedDir(t)
	path := writeFile(t, "custom.yaml", "store: custom.db\n")

	cfg, foundPath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, foundPath)
	assert.Equal(t, "custom.db", cfg.Store)

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadConfig_RejectsNegativeDepth(t *testing.T) {
	isolatedDir(t)
	t.Setenv("FETCHVIEW_MAX_EXTRA_DEPTH", "-2")

	_, _, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_extra_depth must be >= 0, got -2")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := writeFile(t, "fetchview.yaml", "max_extra_depth: [\n")

	_, _, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
