package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewName(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		root       string
		occurrence int
		want       string
	}{
		{"root view", "Song", "Song", 0, "SongView"},
		{"first extension", "Person", "Song", 1, "SongPersonView1"},
		{"second extension", "Person", "Song", 2, "SongPersonView2"},
		{"self reference", "Node", "Node", 1, "NodeNodeView1"},
		{"snake case", "company_person", "song", 1, "SongCompanyPersonView1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ViewName(tt.target, tt.root, tt.occurrence))
		})
	}
}

func TestViewNameIsPure(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Equal(t, "SongPersonView3", ViewName("Person", "Song", 3))
	}
}

func TestEmbeddedViewName(t *testing.T) {
	assert.Equal(t, "PersonAddressEmbeddedView1", EmbeddedViewName("Address", "Person", 1))
}
