package analyzer

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/fetchview/internal/ir"
)

// Catalog holds the registries of several roots. It is read-only once
// returned and safe for concurrent use.
type Catalog struct {
	roots      []string
	registries map[string]*ir.Registry
}

// Registry returns the registry for root.
func (c *Catalog) Registry(root string) (*ir.Registry, bool) {
	reg, ok := c.registries[root]
	return reg, ok
}

// Roots returns the analysed roots in request order.
func (c *Catalog) Roots() []string { return slices.Clone(c.roots) }

// Len returns the number of registries.
func (c *Catalog) Len() int { return len(c.roots) }

// AnalyzeAll analyses every root concurrently. With no roots given it
// analyses every entity that is not a subclass, in declaration order.
// The first failure cancels the remaining work.
func (a *Analyzer) AnalyzeAll(ctx context.Context, roots []string) (*Catalog, error) {
	if len(roots) == 0 {
		roots = a.DefaultRoots()
	}

	results := make([]*ir.Registry, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, root := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reg, err := a.Analyze(root)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", root, err)
			}
			results[i] = reg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Catalog{registries: make(map[string]*ir.Registry, len(roots))}
	for _, reg := range results {
		if _, dup := c.registries[reg.Root()]; dup {
			continue
		}
		c.roots = append(c.roots, reg.Root())
		c.registries[reg.Root()] = reg
	}
	return c, nil
}

// DefaultRoots lists the entities without a super class, in declaration
// order.
func (a *Analyzer) DefaultRoots() []string {
	var roots []string
	for _, e := range a.graph.Entities() {
		if e.SuperClass == "" && !slices.Contains(roots, e.Name) {
			roots = append(roots, e.Name)
		}
	}
	return roots
}
