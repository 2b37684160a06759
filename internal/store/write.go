package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/fetchview/internal/ir"
)

// Record summarises one stored registry.
type Record struct {
	Root          string `json:"root"`
	RunID         string `json:"run_id"`
	Fingerprint   string `json:"fingerprint"`
	MaxExtraDepth int    `json:"max_extra_depth"`
	FormatVersion string `json:"format_version"`
	ToolVersion   string `json:"tool_version"`
	Views         int    `json:"views"`
}

// WriteRegistry stores reg, replacing any registry stored for the same
// root. The write is a single transaction: readers see either the old
// registry or the new one.
func (s *Store) WriteRegistry(ctx context.Context, reg *ir.Registry) (Record, error) {
	fp, err := ir.Fingerprint(reg)
	if err != nil {
		return Record{}, fmt.Errorf("write registry: %w", err)
	}
	rec := Record{
		Root:          reg.Root(),
		RunID:         uuid.NewString(),
		Fingerprint:   fp,
		MaxExtraDepth: reg.MaxExtraDepth(),
		FormatVersion: ir.RegistryFormatVersion,
		ToolVersion:   ir.ToolVersion,
		Views:         reg.Len(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("write registry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeRegistry(ctx, tx, rec, reg); err != nil {
		return Record{}, fmt.Errorf("write registry %s: %w", rec.Root, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("write registry: commit: %w", err)
	}
	return rec, nil
}

func writeRegistry(ctx context.Context, tx *sql.Tx, rec Record, reg *ir.Registry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM registries WHERE root = ?`, rec.Root); err != nil {
		return fmt.Errorf("delete previous: %w", err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO registries
		(root, run_id, fingerprint, max_extra_depth, format_version, tool_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.Root,
		rec.RunID,
		rec.Fingerprint,
		rec.MaxExtraDepth,
		rec.FormatVersion,
		rec.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("insert registry: %w", err)
	}

	entities := make(map[string]bool)
	for seq, v := range reg.Views() {
		if !entities[v.Entity.Name] {
			entities[v.Entity.Name] = true
			if err := writeMetadata(ctx, tx, "entities", rec.Root, v.Entity.Name, v.Entity); err != nil {
				return err
			}
		}
		if err := writeView(ctx, tx, rec.Root, seq, v); err != nil {
			return err
		}
	}

	embeddables := make(map[string]bool)
	for seq, ev := range reg.EmbeddedViews() {
		if !embeddables[ev.Embeddable.Name] {
			embeddables[ev.Embeddable.Name] = true
			if err := writeMetadata(ctx, tx, "embeddables", rec.Root, ev.Embeddable.Name, ev.Embeddable); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO embedded_views (root, seq, name, embeddable)
			VALUES (?, ?, ?, ?)
		`, rec.Root, seq, ev.Name, ev.Embeddable.Name)
		if err != nil {
			return fmt.Errorf("insert embedded view %s: %w", ev.Name, err)
		}
		if err := writeEmbeddedRefs(ctx, tx, rec.Root, ev.Name, ev.Embedded); err != nil {
			return err
		}
	}
	return nil
}

// writeMetadata stores one metadata snapshot. table is a constant chosen
// by the caller, never user input.
func writeMetadata(ctx context.Context, tx *sql.Tx, table, root, name string, v any) error {
	blob, err := marshalBlob(v)
	if err != nil {
		return fmt.Errorf("%s %s: %w", table, name, err)
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (root, name, metadata) VALUES (?, ?, ?)`, table),
		root, name, blob)
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", table, name, err)
	}
	return nil
}

func writeView(ctx context.Context, tx *sql.Tx, root string, seq int, v *ir.ViewDefinition) error {
	cols, err := marshalStrings(v.SubclassColumns)
	if err != nil {
		return fmt.Errorf("view %s: %w", v.Name, err)
	}
	rels, err := marshalStrings(v.SubclassRelations)
	if err != nil {
		return fmt.Errorf("view %s: %w", v.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO views
		(root, seq, name, entity, super_view, is_extended, level, subclass_columns, subclass_relations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		root,
		seq,
		v.Name,
		v.Entity.Name,
		v.SuperClassViewName,
		v.IsExtended,
		v.Level,
		cols,
		rels,
	)
	if err != nil {
		return fmt.Errorf("insert view %s: %w", v.Name, err)
	}

	for i, rel := range v.Relations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO view_relations (root, view, seq, field, target_view, collection)
			VALUES (?, ?, ?, ?, ?, ?)
		`, root, v.Name, i, rel.Field, rel.View, rel.Collection)
		if err != nil {
			return fmt.Errorf("insert relation %s.%s: %w", v.Name, rel.Field, err)
		}
	}
	return writeEmbeddedRefs(ctx, tx, root, v.Name, v.Embedded)
}

func writeEmbeddedRefs(ctx context.Context, tx *sql.Tx, root, owner string, refs []ir.EmbeddedRef) error {
	for i, ref := range refs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO embedded_refs (root, owner, seq, field, target_view)
			VALUES (?, ?, ?, ?, ?)
		`, root, owner, i, ref.Field, ref.View)
		if err != nil {
			return fmt.Errorf("insert embedded field %s.%s: %w", owner, ref.Field, err)
		}
	}
	return nil
}

// DeleteRegistry removes the registry stored for root. Deleting a missing
// root returns ErrNotFound.
func (s *Store) DeleteRegistry(ctx context.Context, root string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registries WHERE root = ?`, root)
	if err != nil {
		return fmt.Errorf("delete registry %s: %w", root, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registry %s: %w", root, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	return nil
}
