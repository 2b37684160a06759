package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/fetchview/internal/analyzer"
	"github.com/roach88/fetchview/internal/compiler"
	"github.com/roach88/fetchview/internal/fetchplan"
	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/selection"
	"github.com/roach88/fetchview/internal/store"
)

// Harness is the scenario execution engine.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Build and validate the schema graph
// 2. Analyse the root into a registry
// 3. Write the registry to the store and read it back
// 4. Plan the selection against the stored registry
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, err := scenario.Schema.Graph()
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if errs := compiler.ValidateGraph(g); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("schema validation failed:\n  %s", strings.Join(msgs, "\n  "))
	}

	opts := []analyzer.Option{analyzer.WithLogger(h.logger)}
	if scenario.MaxExtraDepth != nil {
		opts = append(opts, analyzer.WithMaxExtraDepth(*scenario.MaxExtraDepth))
	}
	a, err := analyzer.New(g, opts...)
	if err != nil {
		return nil, err
	}
	built, err := a.Analyze(scenario.Root)
	if err != nil {
		return nil, err
	}

	reg, err := h.roundTrip(ctx, built)
	if err != nil {
		return nil, err
	}

	sel, err := selection.ParseGraphQL(scenario.Selection)
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}
	plan := fetchplan.NewTranslator(reg).Plan(sel)

	result := NewResult()
	result.Plan = plan.String()
	result.Paths = append(result.Paths, plan.Paths()...)
	result.Depth = plan.Depth()
	result.Truncated = append(result.Truncated, plan.AllTruncated()...)
	result.Views = reg.Len()

	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(assertion, reg, sel, plan); err != nil {
			result.AddError(err.Error())
		}
	}

	h.logger.Info("scenario completed",
		"name", scenario.Name,
		"pass", result.Pass,
		"views", result.Views,
		"depth", result.Depth)
	return result, nil
}

// roundTrip stores reg and returns the copy read back from the store.
func (h *Harness) roundTrip(ctx context.Context, reg *ir.Registry) (*ir.Registry, error) {
	if _, err := h.store.WriteRegistry(ctx, reg); err != nil {
		return nil, err
	}
	stored, _, err := h.store.ReadRegistry(ctx, reg.Root())
	if err != nil {
		return nil, err
	}
	return stored, nil
}
