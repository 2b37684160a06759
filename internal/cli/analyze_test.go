package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchview/internal/store"
)

type analyzeResponse struct {
	Status string        `json:"status"`
	Data   AnalyzeResult `json:"data"`
	Error  *CLIError     `json:"error"`
}

func analyzeJSON(t *testing.T, args ...string) analyzeResponse {
	t.Helper()
	out, _, err := execute(t, NewAnalyzeCommand(&RootOptions{Format: "json"}), args...)
	require.NoError(t, err)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestAnalyzeSingleRoot(t *testing.T) {
	schema := writeFile(t, "schema.yaml", songsSchema)

	resp := analyzeJSON(t, schema, "--root", "Song")
	require.Len(t, resp.Data.Registries, 1)

	reg := resp.Data.Registries[0]
	assert.Equal(t, "Song", reg.Root)
	assert.Equal(t, 1, reg.MaxExtraDepth)
	assert.Len(t, reg.Fingerprint, 64)
	require.Len(t, reg.Views, 6)
	assert.Equal(t, "SongView", reg.Views[0].Name)
	assert.Equal(t, 0, reg.Views[0].Level)
	assert.Equal(t, []string{"interpret -> SongPersonView1", "producer -> SongCompanyView2"}, reg.Views[0].Relations)
	assert.Empty(t, reg.RunID, "nothing stored without --store")
	assert.NotEmpty(t, reg.EmbeddedViews)
}

func TestAnalyzeDefaultRoots(t *testing.T) {
	schema := writeFile(t, "schema.yaml", songsSchema)

	resp := analyzeJSON(t, schema)
	var roots []string
	for _, reg := range resp.Data.Registries {
		roots = append(roots, reg.Root)
	}
	assert.Equal(t, []string{"Song", "Person", "CompanyPerson", "Company"}, roots)
}

func TestAnalyzeDeterministic(t *testing.T) {
	schema := writeFile(t, "schema.yaml", songsSchema)

	first := analyzeJSON(t, schema, "--root", "Song", "--max-extra-depth", "2")
	second := analyzeJSON(t, schema, "--root", "music.Song", "--root", "Song", "--max-extra-depth", "2")
	require.Len(t, second.Data.Registries, 1, "qualified and simple names are the same root")
	assert.Equal(t, first.Data.Registries[0].Fingerprint, second.Data.Registries[0].Fingerprint)
}

func TestAnalyzeText(t *testing.T) {
	schema := writeFile(t, "schema.yaml", circularSchema)

	out, _, err := execute(t, NewAnalyzeCommand(&RootOptions{Format: "text"}), schema, "--max-extra-depth", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry Circular (max_extra_depth=2, 3 views)")
	assert.Contains(t, out, "fingerprint: ")
	assert.Contains(t, out, "CircularCircularView2")
	assert.Contains(t, out, "2 (terminal)")
}

func TestAnalyzeSubclassViews(t *testing.T) {
	schema := writeFile(t, "schema.yaml", composersSchema)

	resp := analyzeJSON(t, schema, "--root", "Composer")
	require.Len(t, resp.Data.Registries, 1)

	views := make(map[string]ViewSummary)
	for _, v := range resp.Data.Registries[0].Views {
		views[v.Name] = v
	}
	root := views["ComposerView"]
	assert.False(t, root.Subclass)
	assert.Empty(t, root.SuperView)

	var subs []string
	for _, v := range resp.Data.Registries[0].Views {
		if v.Subclass {
			subs = append(subs, v.Name)
			assert.Equal(t, "ComposerView", v.SuperView)
			assert.False(t, v.Terminal)
		}
	}
	assert.Len(t, subs, 2)
}

func TestAnalyzeStore(t *testing.T) {
	schema := writeFile(t, "schema.yaml", songsSchema)
	dbPath := filepath.Join(t.TempDir(), "registries.db")

	resp := analyzeJSON(t, schema, "--root", "Song", "--root", "Company", "--store", dbPath)
	assert.Equal(t, dbPath, resp.Data.Store)
	require.Len(t, resp.Data.Registries, 2)
	for _, reg := range resp.Data.Registries {
		assert.NotEmpty(t, reg.RunID)
	}

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.ListRegistries(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Company", records[0].Root)
	assert.Equal(t, "Song", records[1].Root)
	assert.Equal(t, resp.Data.Registries[0].Fingerprint, records[1].Fingerprint)
	assert.Equal(t, 6, records[1].Views)
}

func TestAnalyzeErrors(t *testing.T) {
	schema := writeFile(t, "schema.yaml", songsSchema)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"negative depth", []string{schema, "--max-extra-depth", "-1"}, ErrCodeConfig},
		{"unknown root", []string{schema, "--root", "Nope"}, ErrCodeAnalyze},
		{"unopenable store", []string{schema, "--store", filepath.Join(t.TempDir(), "missing", "dir", "x.db")}, ErrCodeStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewAnalyzeCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
