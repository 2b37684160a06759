package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	fp1, err := Fingerprint(buildSongRegistry(t))
	require.NoError(t, err)
	fp2, err := Fingerprint(buildSongRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintChangesWithContent(t *testing.T) {
	song, _ := songEntities()

	b1 := NewRegistryBuilder("Song", 0)
	require.NoError(t, b1.AddView(&ViewDefinition{Name: "SongView", Entity: song}))
	b2 := NewRegistryBuilder("Song", 1)
	require.NoError(t, b2.AddView(&ViewDefinition{Name: "SongView", Entity: song}))

	assert.NotEqual(t, MustFingerprint(b1.Build()), MustFingerprint(b2.Build()),
		"depth bound is part of the identity")
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"root":"Song"}`)
	assert.NotEqual(t, hashWithDomain("a/v1", data), hashWithDomain("b/v1", data))
}

func TestRegistryDocumentShape(t *testing.T) {
	doc := RegistryDocument(buildSongRegistry(t))
	assert.Equal(t, "Song", doc["root"])
	assert.Equal(t, RegistryFormatVersion, doc["format_version"])
	views, ok := doc["views"].([]any)
	require.True(t, ok)
	require.Len(t, views, 4)
	first := views[0].(map[string]any)
	assert.Equal(t, "SongView", first["name"])
}
