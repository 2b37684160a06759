package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/fetchview/internal/analyzer"
	"github.com/roach88/fetchview/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// analyzeTestRegistry builds the registry of root over g.
func analyzeTestRegistry(t *testing.T, g *ir.Graph, root string, depth int) *ir.Registry {
	t.Helper()
	a, err := analyzer.New(g,
		analyzer.WithMaxExtraDepth(depth),
		analyzer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("analyzer.New() failed: %v", err)
	}
	reg, err := a.Analyze(root)
	if err != nil {
		t.Fatalf("Analyze(%q) failed: %v", root, err)
	}
	return reg
}
