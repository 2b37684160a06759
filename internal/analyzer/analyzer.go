package analyzer

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/fetchview/internal/ir"
)

// DefaultMaxExtraDepth is the cycle unrolling bound used when none is set.
const DefaultMaxExtraDepth = 1

var (
	// ErrNegativeDepth is returned by New for a negative max extra depth.
	ErrNegativeDepth = errors.New("analyzer: max extra depth must be >= 0")

	// ErrUnknownRoot is returned when the root entity is not in the graph.
	ErrUnknownRoot = errors.New("analyzer: unknown root entity")
)

// Analyzer computes view registries over one entity graph.
// It holds no per-run state and is safe for concurrent use.
type Analyzer struct {
	graph         *ir.Graph
	maxExtraDepth int
	logger        *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxExtraDepth sets how many extra hops are unrolled past a cycle.
// It bounds what a selection can reach: a cyclic relation is followed at
// most n times beyond the first visit, and deeper selected paths are cut
// from fetch plans and reported as truncated. With n == 0 a relation that
// closes a cycle is omitted from its view.
func WithMaxExtraDepth(n int) Option {
	return func(a *Analyzer) {
		a.maxExtraDepth = n
	}
}

// WithLogger sets the logger used for allocation traces.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates an Analyzer over graph. The graph must not be modified while
// the Analyzer is in use.
func New(graph *ir.Graph, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		graph:         graph,
		maxExtraDepth: DefaultMaxExtraDepth,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxExtraDepth < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeDepth, a.maxExtraDepth)
	}
	return a, nil
}

// MaxExtraDepth returns the configured cycle unrolling bound.
func (a *Analyzer) MaxExtraDepth() int { return a.maxExtraDepth }

// Analyze computes the registry for root, given by simple or qualified name.
// It fails only for an unknown root or for entity names that collide once
// turned into view identifiers.
func (a *Analyzer) Analyze(root string) (*ir.Registry, error) {
	rootEntity, ok := a.graph.Entity(root)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoot, root)
	}

	r := &run{
		Analyzer:  a,
		root:      rootEntity,
		builder:   ir.NewRegistryBuilder(rootEntity.Name, a.maxExtraDepth),
		counters:  make(map[string]int),
		embCounts: make(map[string]int),
		subViews:  make(map[string][]*ir.ViewDefinition),
	}

	rootView := r.allocate(ir.ViewName(rootEntity.Name, rootEntity.Name, 0), rootEntity, 0, nil, nil)
	r.descend(rootView, map[string]bool{rootEntity.Name: true})

	for round := 1; len(r.pending) > 0; round++ {
		batch := r.pending
		r.pending = nil
		a.logger.Debug("extension round", "root", rootEntity.Name, "round", round, "views", len(batch))
		for _, v := range batch {
			r.extend(v)
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	reg := r.builder.Build()
	a.logger.Info("registry built",
		"root", reg.Root(),
		"views", reg.Len(),
		"embedded_views", len(reg.EmbeddedViews()),
		"max_extra_depth", a.maxExtraDepth)
	return reg, nil
}

// run is the state of one Analyze call.
type run struct {
	*Analyzer

	root    *ir.EntityMetadata
	builder *ir.RegistryBuilder
	err     error

	counters  map[string]int // entity name -> last occurrence
	embCounts map[string]int // embeddable name -> last occurrence

	subViews map[string][]*ir.ViewDefinition // super view name -> subclass views
	pending  []*ir.ViewDefinition            // extended views awaiting a round
}

func (r *run) nextName(e *ir.EntityMetadata) string {
	r.counters[e.Name]++
	return ir.ViewName(e.Name, r.root.Name, r.counters[e.Name])
}

// allocate registers a view for e together with its embedded views and,
// recursively, one subclass view per subclass. ancestors guards against
// inheritance loops.
func (r *run) allocate(name string, e *ir.EntityMetadata, level int, super *ir.ViewDefinition, ancestors []string) *ir.ViewDefinition {
	v := &ir.ViewDefinition{
		Name:       name,
		Entity:     e,
		IsExtended: level > 0,
		Level:      level,
	}
	if super != nil {
		v.SuperClassViewName = super.Name
		v.SubclassColumns = subclassColumns(super.Entity, e)
		v.SubclassRelations = subclassRelations(super.Entity, e)
		v.Embedded = slices.Clone(super.Embedded)
	}
	if err := r.builder.AddView(v); err != nil && r.err == nil {
		r.err = err
	}
	r.logger.Debug("view allocated",
		"root", r.root.Name, "view", name, "entity", e.Name,
		"level", level, "super", v.SuperClassViewName)

	v.Embedded = r.embed(e.Embedded, v.Embedded, nil)

	ancestors = append(slices.Clone(ancestors), e.Name)
	for _, sub := range r.graph.SubClasses(e) {
		if slices.Contains(ancestors, sub.Name) {
			r.logger.Warn("inheritance loop skipped", "entity", e.Name, "subclass", sub.Name)
			continue
		}
		sv := r.allocate(r.nextName(sub), sub, level, v, ancestors)
		r.subViews[v.Name] = append(r.subViews[v.Name], sv)
	}
	return v
}

// descend resolves the relations of a first-visit view and its subclass
// views. visited belongs to the caller's branch and is never modified.
func (r *run) descend(v *ir.ViewDefinition, visited map[string]bool) {
	for _, rel := range v.Entity.Relations {
		r.descendRelation(v, rel, visited)
	}
	r.descendSubclasses(v, visited)
}

// descendSubclasses resolves the subclass views of v. Each starts from v's
// relations and adds only what the subclass declares on top.
func (r *run) descendSubclasses(v *ir.ViewDefinition, visited map[string]bool) {
	for _, sv := range r.subViews[v.Name] {
		sv.Relations = slices.Clone(v.Relations)
		subVisited := with(visited, sv.Entity.Name)
		for _, rel := range sv.Entity.Relations {
			if _, reused := sv.Relation(rel.FieldName); reused {
				continue
			}
			r.descendRelation(sv, rel, subVisited)
		}
		r.descendSubclasses(sv, subVisited)
	}
}

func (r *run) descendRelation(v *ir.ViewDefinition, rel ir.RelationEdge, visited map[string]bool) {
	target, ok := r.graph.Entity(rel.TargetEntityName)
	if !ok {
		r.logger.Warn("relation target not found", "entity", v.Entity.Name, "field", rel.FieldName, "target", rel.TargetEntityName)
		return
	}

	if !visited[target.Name] {
		child := r.allocate(r.nextName(target), target, 0, nil, nil)
		v.Relations = append(v.Relations, ir.RelationView{Field: rel.FieldName, View: child.Name, Collection: rel.IsCollection})
		r.descend(child, with(visited, target.Name))
		return
	}

	if r.maxExtraDepth == 0 {
		r.logger.Debug("cyclic relation omitted", "view", v.Name, "field", rel.FieldName, "target", target.Name)
		return
	}
	child := r.allocate(r.nextName(target), target, 1, nil, nil)
	v.Relations = append(v.Relations, ir.RelationView{Field: rel.FieldName, View: child.Name, Collection: rel.IsCollection})
	r.logger.Debug("cycle closed", "view", v.Name, "field", rel.FieldName, "extended_view", child.Name)
	r.enqueue(child)
}

// extend gives a queued level r view (r < max extra depth) one more hop:
// every relation resolves to a fresh level r+1 extended view.
func (r *run) extend(v *ir.ViewDefinition) {
	for _, rel := range v.Entity.Relations {
		r.extendRelation(v, rel)
	}
	r.extendSubclasses(v)
}

func (r *run) extendSubclasses(v *ir.ViewDefinition) {
	for _, sv := range r.subViews[v.Name] {
		sv.Relations = slices.Clone(v.Relations)
		for _, rel := range sv.Entity.Relations {
			if _, reused := sv.Relation(rel.FieldName); reused {
				continue
			}
			r.extendRelation(sv, rel)
		}
		r.extendSubclasses(sv)
	}
}

func (r *run) extendRelation(v *ir.ViewDefinition, rel ir.RelationEdge) {
	target, ok := r.graph.Entity(rel.TargetEntityName)
	if !ok {
		return
	}
	child := r.allocate(r.nextName(target), target, v.Level+1, nil, nil)
	v.Relations = append(v.Relations, ir.RelationView{Field: rel.FieldName, View: child.Name, Collection: rel.IsCollection})
	r.enqueue(child)
}

// enqueue schedules v for another round unless it is terminal.
func (r *run) enqueue(v *ir.ViewDefinition) {
	if v.Level < r.maxExtraDepth {
		r.pending = append(r.pending, v)
	}
}

// embed allocates embedded views for edges not already in refs. path holds
// the embeddables being expanded, to stop on recursive value objects.
func (r *run) embed(edges []ir.EmbeddedEdge, refs []ir.EmbeddedRef, path []string) []ir.EmbeddedRef {
	for _, edge := range edges {
		if slices.ContainsFunc(refs, func(ref ir.EmbeddedRef) bool { return ref.Field == edge.FieldName }) {
			continue
		}
		emb, ok := r.graph.Embeddable(edge.TypeName)
		if !ok {
			r.logger.Warn("embeddable not found", "field", edge.FieldName, "type", edge.TypeName)
			continue
		}
		if slices.Contains(path, emb.Name) {
			r.logger.Warn("recursive embeddable skipped", "field", edge.FieldName, "type", emb.Name)
			continue
		}

		r.embCounts[emb.Name]++
		ev := &ir.EmbeddedViewDefinition{
			Name:       ir.EmbeddedViewName(emb.Name, r.root.Name, r.embCounts[emb.Name]),
			Embeddable: emb,
		}
		if err := r.builder.AddEmbeddedView(ev); err != nil && r.err == nil {
			r.err = err
		}
		ev.Embedded = r.embed(emb.Embedded, nil, append(slices.Clone(path), emb.Name))
		refs = append(refs, ir.EmbeddedRef{Field: edge.FieldName, View: ev.Name})
	}
	return refs
}

// with returns a copy of visited plus name.
func with(visited map[string]bool, name string) map[string]bool {
	next := maps.Clone(visited)
	next[name] = true
	return next
}

func subclassColumns(super, sub *ir.EntityMetadata) []string {
	var out []string
	for _, c := range slices.Concat(sub.Columns, sub.LazyColumns) {
		if !super.HasColumn(c) && !super.HasLazyColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

func subclassRelations(super, sub *ir.EntityMetadata) []string {
	var out []string
	for _, rel := range sub.Relations {
		if _, ok := super.Relation(rel.FieldName); !ok {
			out = append(out, rel.FieldName)
		}
	}
	return out
}
