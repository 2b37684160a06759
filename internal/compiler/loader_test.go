package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchemaDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "songs.cue", "package test\n"+songsCUE)

	res, errs := LoadSchemaDir(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 1, res.FileCount)
	assert.Len(t, res.Graph.Entities(), 4)
}

func TestLoadSchemaDirCollectAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package test
entity: A: relations: r: {collection: true}
entity: B: relations: r: {collection: true}
entity: C: columns: ["x"]
`)

	res, errs := LoadSchemaDir(dir, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.NotNil(t, res)
	assert.Len(t, res.Graph.Entities(), 1, "valid entities are still compiled")

	_, errs = LoadSchemaDir(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoadSchemaDirNoFiles(t *testing.T) {
	_, errs := LoadSchemaDir(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadSchemaYAMLFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "composers.yaml", composersYAML)

	res, errs := LoadSchema(path, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Len(t, res.Graph.Entities(), 5)
}

func TestLoadSchemaCUEFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "songs.cue", songsCUE)

	res, errs := LoadSchema(path, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Len(t, res.Graph.Entities(), 4)
}

func TestLoadSchemaErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing", filepath.Join(dir, "nope"), ErrCodeNotFound},
		{"unsupported", writeFile(t, dir, "schema.json", "{}"), ErrCodeNoFiles},
		{"bad yaml", writeFile(t, dir, "bad.yaml", "entities: [\n"), ErrCodeDecode},
		{"no entities", writeFile(t, dir, "empty.yaml", "entities: []\n"), ErrCodeEmpty},
		{"bad cue", writeFile(t, dir, "bad.cue", "entity: {"), ErrCodeBuildFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := LoadSchema(tt.path, LoadModeFailFast)
			require.NotEmpty(t, errs)
			var le *LoadError
			require.ErrorAs(t, errs[0], &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "schema path not found: x"}
	assert.Equal(t, "E005: schema path not found: x", err.Error())
}
