package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/testutil"
)

func TestRegistryRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		graph *ir.Graph
		root  string
		depth int
	}{
		{"songs", testutil.Songs(), "Song", 2},
		{"composers from album", testutil.Composers(), "Album", 1},
		{"composers from composer", testutil.Composers(), "Composer", 1},
		{"circular", testutil.Circular(), "Circular", 3},
		{"ring without extension", testutil.Ring(4), "E1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := createTestStore(t)
			reg := analyzeTestRegistry(t, tt.graph, tt.root, tt.depth)

			rec, err := s.WriteRegistry(ctx, reg)
			require.NoError(t, err)
			assert.Equal(t, reg.Root(), rec.Root)
			assert.Equal(t, ir.MustFingerprint(reg), rec.Fingerprint)
			assert.NotEmpty(t, rec.RunID)

			got, readRec, err := s.ReadRegistry(ctx, reg.Root())
			require.NoError(t, err)
			assert.Equal(t, rec, readRec)
			assert.Equal(t, ir.MustFingerprint(reg), ir.MustFingerprint(got))
			assert.Equal(t, ir.RegistryDocument(reg), ir.RegistryDocument(got))
			assert.Equal(t, reg.Len(), readRec.Views)
		})
	}
}

func TestRegistryRoundTripKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	reg := analyzeTestRegistry(t, testutil.Songs(), "Song", 1)

	_, err := s.WriteRegistry(ctx, reg)
	require.NoError(t, err)
	got, _, err := s.ReadRegistry(ctx, "Song")
	require.NoError(t, err)

	assert.Equal(t, reg.RootView().Entity, got.RootView().Entity)

	person, ok := got.View("SongPersonView1")
	require.True(t, ok)
	assert.Equal(t, []ir.EmbeddedEdge{{FieldName: "address", TypeName: "Address"}}, person.Entity.Embedded)

	core, ok := got.CoreView("Person")
	require.True(t, ok)
	assert.Equal(t, "SongPersonView1", core.Name)

	geo, ok := got.EmbeddedView("SongGeoEmbeddedView1")
	require.True(t, ok)
	assert.Equal(t, []string{"lat", "lng"}, geo.Embeddable.Columns)
}

func TestWriteRegistryReplacesPreviousRun(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	first, err := s.WriteRegistry(ctx, analyzeTestRegistry(t, testutil.Songs(), "Song", 1))
	require.NoError(t, err)
	second, err := s.WriteRegistry(ctx, analyzeTestRegistry(t, testutil.Songs(), "Song", 2))
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	records, err := s.ListRegistries(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second, records[0])
	assert.Equal(t, 2, records[0].MaxExtraDepth)
	assert.Equal(t, 7, records[0].Views)
}

func TestListRegistries(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	records, err := s.ListRegistries(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	for _, root := range []string{"Song", "Company", "Person"} {
		_, err := s.WriteRegistry(ctx, analyzeTestRegistry(t, testutil.Songs(), root, 1))
		require.NoError(t, err)
	}

	records, err = s.ListRegistries(ctx)
	require.NoError(t, err)
	var roots []string
	for _, r := range records {
		roots = append(roots, r.Root)
	}
	assert.Equal(t, []string{"Company", "Person", "Song"}, roots)
}

func TestDeleteRegistryCascades(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.WriteRegistry(ctx, analyzeTestRegistry(t, testutil.Songs(), "Song", 1))
	require.NoError(t, err)
	require.NoError(t, s.DeleteRegistry(ctx, "Song"))

	_, _, err = s.ReadRegistry(ctx, "Song")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, table := range []string{"entities", "views", "view_relations", "embedded_views", "embedded_refs"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	assert.ErrorIs(t, s.DeleteRegistry(ctx, "Song"), ErrNotFound)
}

func TestReadRegistryNotFound(t *testing.T) {
	s := createTestStore(t)
	_, _, err := s.ReadRegistry(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadRegistryDetectsTampering(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.WriteRegistry(ctx, analyzeTestRegistry(t, testutil.SelfRef(), "Node", 1))
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE view_relations SET target_view = 'NodeView' WHERE view = 'NodeView'`)
	require.NoError(t, err)

	_, _, err = s.ReadRegistry(ctx, "Node")
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
}

func TestWriteRegistryRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM registries").WithArgs("Node").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO registries").WillReturnError(boom)
	mock.ExpectRollback()

	s := NewFromDB(db)
	_, err = s.WriteRegistry(context.Background(), analyzeTestRegistry(t, testutil.SelfRef(), "Node", 0))
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "write registry Node: insert registry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteRegistryCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("locked")
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM registries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO registries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO entities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO views").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(boom)

	s := NewFromDB(db)
	_, err = s.WriteRegistry(context.Background(), analyzeTestRegistry(t, testutil.SelfRef(), "Node", 0))
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRegistryNotFoundMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM registries r WHERE r.root").
		WithArgs("Song").
		WillReturnRows(sqlmock.NewRows([]string{"root", "run_id", "fingerprint", "max_extra_depth", "format_version", "tool_version", "views"}))

	_, _, err = NewFromDB(db).ReadRegistry(context.Background(), "Song")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlobRoundTrip(t *testing.T) {
	e := testutil.Songs().Entities()[0]

	blob, err := marshalBlob(e)
	require.NoError(t, err)
	var got ir.EntityMetadata
	require.NoError(t, unmarshalBlob(blob, &got))
	assert.Equal(t, *e, got)

	empty, err := marshalStrings(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	strs, err := unmarshalStrings(empty)
	require.NoError(t, err)
	assert.Nil(t, strs)

	_, err = unmarshalStrings([]byte{0xc1}) // never used by msgpack
	assert.Error(t, err)
}
