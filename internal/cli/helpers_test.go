package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const songsSchema = `
entities:
  - name: Song
    qualified_name: music.Song
    columns: [title, year]
    lazy_columns: [lyrics]
    relations:
      - {field: interpret, target: Person}
      - {field: producer, target: Company}
  - name: Person
    columns: [name]
    relations:
      - {field: companies, target: CompanyPerson, collection: true}
    embedded:
      - {field: address, type: Address}
  - name: CompanyPerson
    columns: [role]
    relations:
      - {field: company, target: Company}
      - {field: person, target: Person}
  - name: Company
    columns: [name]
embeddables:
  - name: Address
    columns: [street, city]
    embedded:
      - {field: geo, type: Geo}
  - name: Geo
    columns: [lat, lng]
`

const composersSchema = `
entities:
  - name: Composer
    columns: [name]
    sub_classes: [AiComposer, HumanComposer]
  - name: AiComposer
    columns: [name, model_version]
    super_class: Composer
    relations:
      - {field: aiData, target: AiData}
  - name: HumanComposer
    columns: [name, birth_year]
    super_class: Composer
    relations:
      - {field: humanData, target: HumanData}
  - name: AiData
    columns: [model]
  - name: HumanData
    columns: [bio]
`

const circularSchema = `
entities:
  - name: Circular
    columns: [label]
    relations:
      - {field: circular, target: Circular}
`

// writeFile writes content to name under a fresh temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
