package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGraphQL(t *testing.T) {
	s, err := ParseGraphQL(`{ interpret { companies { company } } producer }`)
	require.NoError(t, err)
	assert.Equal(t, songSelection().Paths(), s.Paths())
	assert.True(t, s.Contains("interpret/companies/company"))
	assert.False(t, s.Contains("interpret/companies/person"))
}

func TestParseGraphQLFragments(t *testing.T) {
	s, err := ParseGraphQL(`
		query Composers {
			composer {
				__typename
				name
				... on AiComposer { aiData { model } }
				...Human
			}
		}
		fragment Human on HumanComposer { humanData }
	`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"composer",
		"composer/AiComposer.aiData",
		"composer/AiComposer.aiData/model",
		"composer/HumanComposer.humanData",
		"composer/aiData",
		"composer/aiData/model",
		"composer/humanData",
		"composer/name",
	}, s.Paths())
	assert.False(t, s.Contains("composer/__typename"))
}

func TestParseGraphQLUntypedInlineFragment(t *testing.T) {
	s := MustParseGraphQL(`{ a { ... { b } } }`)
	assert.Equal(t, []string{"a", "a/b"}, s.Paths())
}

func TestParseGraphQLErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"syntax", `{ interpret { `},
		{"no operation", `fragment F on Song { title }`},
		{"unknown fragment", `{ ...Missing }`},
		{"recursive fragment", `{ ...A } fragment A on Song { next { ...A } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGraphQL(tt.query)
			assert.Error(t, err)
		})
	}
}

func TestParseGraphQLNoOperationSentinel(t *testing.T) {
	_, err := ParseGraphQL(`fragment F on Song { title }`)
	assert.ErrorIs(t, err, ErrNoOperation)
}
