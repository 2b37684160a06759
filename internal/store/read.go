package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fetchview/internal/ir"
)

// ReadRegistry loads the registry stored for root. The result has the same
// fingerprint as the registry that was written; anything else is reported
// as ErrFingerprintMismatch.
func (s *Store) ReadRegistry(ctx context.Context, root string) (*ir.Registry, Record, error) {
	rec, err := s.readRecord(ctx, root)
	if err != nil {
		return nil, Record{}, err
	}

	entities, err := s.readMetadata(ctx, "entities", root, func(data []byte) (any, error) {
		var e ir.EntityMetadata
		err := unmarshalBlob(data, &e)
		return &e, err
	})
	if err != nil {
		return nil, Record{}, err
	}
	embeddables, err := s.readMetadata(ctx, "embeddables", root, func(data []byte) (any, error) {
		var e ir.EmbeddableMetadata
		err := unmarshalBlob(data, &e)
		return &e, err
	})
	if err != nil {
		return nil, Record{}, err
	}

	relations, err := s.readRelations(ctx, root)
	if err != nil {
		return nil, Record{}, err
	}
	refs, err := s.readEmbeddedRefs(ctx, root)
	if err != nil {
		return nil, Record{}, err
	}

	b := ir.NewRegistryBuilder(rec.Root, rec.MaxExtraDepth)
	if err := s.readViews(ctx, root, b, entities, relations, refs); err != nil {
		return nil, Record{}, err
	}
	if err := s.readEmbeddedViews(ctx, root, b, embeddables, refs); err != nil {
		return nil, Record{}, err
	}
	reg := b.Build()

	fp, err := ir.Fingerprint(reg)
	if err != nil {
		return nil, Record{}, fmt.Errorf("read registry %s: %w", root, err)
	}
	if fp != rec.Fingerprint {
		return nil, Record{}, fmt.Errorf("%w: %s: stored %s, read %s", ErrFingerprintMismatch, root, rec.Fingerprint, fp)
	}
	return reg, rec, nil
}

const recordColumns = `
	r.root, r.run_id, r.fingerprint, r.max_extra_depth, r.format_version, r.tool_version,
	(SELECT COUNT(*) FROM views v WHERE v.root = r.root)`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.Root,
		&rec.RunID,
		&rec.Fingerprint,
		&rec.MaxExtraDepth,
		&rec.FormatVersion,
		&rec.ToolVersion,
		&rec.Views,
	)
	return rec, err
}

func (s *Store) readRecord(ctx context.Context, root string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+recordColumns+` FROM registries r WHERE r.root = ?`, root)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query registry %s: %w", root, err)
	}
	return rec, nil
}

// ListRegistries returns every stored registry ordered by root.
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListRegistries(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+recordColumns+` FROM registries r ORDER BY r.root COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query registries: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registry: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registries: %w", err)
	}
	return records, nil
}

func (s *Store) readMetadata(ctx context.Context, table, root string, decode func([]byte) (any, error)) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT name, metadata FROM %s WHERE root = ? ORDER BY name COLLATE BINARY ASC`, table), root)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var (
			name string
			blob []byte
		)
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		v, err := decode(blob)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", table, name, err)
		}
		out[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) readRelations(ctx context.Context, root string) (map[string][]ir.RelationView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT view, field, target_view, collection
		FROM view_relations
		WHERE root = ?
		ORDER BY view COLLATE BINARY ASC, seq ASC
	`, root)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]ir.RelationView)
	for rows.Next() {
		var (
			view string
			rel  ir.RelationView
		)
		if err := rows.Scan(&view, &rel.Field, &rel.View, &rel.Collection); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		out[view] = append(out[view], rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}
	return out, nil
}

func (s *Store) readEmbeddedRefs(ctx context.Context, root string) (map[string][]ir.EmbeddedRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, field, target_view
		FROM embedded_refs
		WHERE root = ?
		ORDER BY owner COLLATE BINARY ASC, seq ASC
	`, root)
	if err != nil {
		return nil, fmt.Errorf("query embedded fields: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]ir.EmbeddedRef)
	for rows.Next() {
		var (
			owner string
			ref   ir.EmbeddedRef
		)
		if err := rows.Scan(&owner, &ref.Field, &ref.View); err != nil {
			return nil, fmt.Errorf("scan embedded field: %w", err)
		}
		out[owner] = append(out[owner], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedded fields: %w", err)
	}
	return out, nil
}

func (s *Store) readViews(
	ctx context.Context,
	root string,
	b *ir.RegistryBuilder,
	entities map[string]any,
	relations map[string][]ir.RelationView,
	refs map[string][]ir.EmbeddedRef,
) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, entity, super_view, is_extended, level, subclass_columns, subclass_relations
		FROM views
		WHERE root = ?
		ORDER BY seq ASC
	`, root)
	if err != nil {
		return fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v          ir.ViewDefinition
			entityName string
			cols, rels []byte
		)
		if err := rows.Scan(&v.Name, &entityName, &v.SuperClassViewName, &v.IsExtended, &v.Level, &cols, &rels); err != nil {
			return fmt.Errorf("scan view: %w", err)
		}
		e, ok := entities[entityName].(*ir.EntityMetadata)
		if !ok {
			return fmt.Errorf("view %s: entity %s not stored", v.Name, entityName)
		}
		v.Entity = e
		if v.SubclassColumns, err = unmarshalStrings(cols); err != nil {
			return fmt.Errorf("view %s: %w", v.Name, err)
		}
		if v.SubclassRelations, err = unmarshalStrings(rels); err != nil {
			return fmt.Errorf("view %s: %w", v.Name, err)
		}
		v.Relations = relations[v.Name]
		v.Embedded = refs[v.Name]
		if err := b.AddView(&v); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate views: %w", err)
	}
	return nil
}

func (s *Store) readEmbeddedViews(
	ctx context.Context,
	root string,
	b *ir.RegistryBuilder,
	embeddables map[string]any,
	refs map[string][]ir.EmbeddedRef,
) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, embeddable
		FROM embedded_views
		WHERE root = ?
		ORDER BY seq ASC
	`, root)
	if err != nil {
		return fmt.Errorf("query embedded views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ev      ir.EmbeddedViewDefinition
			embName string
		)
		if err := rows.Scan(&ev.Name, &embName); err != nil {
			return fmt.Errorf("scan embedded view: %w", err)
		}
		emb, ok := embeddables[embName].(*ir.EmbeddableMetadata)
		if !ok {
			return fmt.Errorf("embedded view %s: embeddable %s not stored", ev.Name, embName)
		}
		ev.Embeddable = emb
		ev.Embedded = refs[ev.Name]
		if err := b.AddEmbeddedView(&ev); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate embedded views: %w", err)
	}
	return nil
}
