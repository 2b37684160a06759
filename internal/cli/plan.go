package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchview/internal/analyzer"
	"github.com/roach88/fetchview/internal/fetchplan"
	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/selection"
	"github.com/roach88/fetchview/internal/store"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Root          string
	View          string
	Selection     string
	MaxExtraDepth int
	Store         string
}

// PlanResult holds the plan command output.
type PlanResult struct {
	Root        string          `json:"root"`
	Fingerprint string          `json:"fingerprint"`
	Source      string          `json:"source"` // "analyzed" or "store"
	Paths       []string        `json:"paths"`
	Depth       int             `json:"depth"`
	Truncated   []string        `json:"truncated"`
	Plan        *fetchplan.Plan `json:"plan"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <schema>",
		Short: "Translate a selection into a fetch plan",
		Long: `Translate a GraphQL selection into a fetch plan over a root's registry.

The selection is GraphQL text, or @file to read it from a file. Fields the
registry cannot reach because of max_extra_depth are reported as truncated.
With --store the registry is read from the database when one is stored for
the root with the same max_extra_depth; otherwise it is analysed and stored.

Examples:
  fetchview plan ./schema --root Song --selection '{ interpret { companies { company } } }'
  fetchview plan ./schema --root Album --selection @album.graphql --format json
  fetchview plan ./schema --root Composer --view ComposerAiComposerView1 --selection '{ aiData }'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "root entity (required)")
	cmd.Flags().StringVar(&opts.View, "view", "", "view to plan from (default: the root view)")
	cmd.Flags().StringVarP(&opts.Selection, "selection", "s", "", "GraphQL selection, or @file")
	cmd.Flags().IntVar(&opts.MaxExtraDepth, "max-extra-depth", analyzer.DefaultMaxExtraDepth, "extra hops unrolled past a cycle")
	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite database holding registries")

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	depth, err := maxExtraDepth(formatter, cmd, cfg, opts.MaxExtraDepth)
	if err != nil {
		return err
	}
	storePath := opts.Store
	if !cmd.Flags().Changed("store") {
		storePath = cfg.Store
	}

	sel, err := readSelection(opts.Selection)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSelection, err.Error(), nil)
	}

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}
	root, err := resolveRoot(formatter, graph, opts.Root)
	if err != nil {
		return err
	}

	reg, source, err := planRegistry(cmd, opts, graph, root, depth, storePath)
	if err != nil {
		return err
	}

	tr := fetchplan.NewTranslator(reg)
	var plan *fetchplan.Plan
	if opts.View != "" {
		plan, err = tr.PlanFrom(opts.View, sel)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeAnalyze, err.Error(), nil)
		}
	} else {
		plan = tr.Plan(sel)
	}
	formatter.VerboseLog("Planned %s from %s registry (%d views)", sel, source, reg.Len())

	if formatter.JSON() {
		fp, err := ir.Fingerprint(reg)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeAnalyze, err.Error(), nil)
		}
		return formatter.Success(PlanResult{
			Root:        reg.Root(),
			Fingerprint: fp,
			Source:      source,
			Paths:       nonNil(plan.Paths()),
			Depth:       plan.Depth(),
			Truncated:   nonNil(plan.AllTruncated()),
			Plan:        plan,
		})
	}

	fmt.Fprint(formatter.Writer, plan.String())
	if truncated := plan.AllTruncated(); len(truncated) > 0 {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %d selected path(s) exceed max_extra_depth=%d: %s\n",
			len(truncated), reg.MaxExtraDepth(), strings.Join(truncated, ", "))
	}
	return nil
}

// planRegistry returns the registry for root, from the store when one is
// stored with the requested depth.
func planRegistry(cmd *cobra.Command, opts *PlanOptions, graph *ir.Graph, root string, depth int, storePath string) (*ir.Registry, string, error) {
	formatter := opts.formatter(cmd)
	analyze := func() (*ir.Registry, error) {
		a, err := analyzer.New(graph, analyzer.WithMaxExtraDepth(depth), analyzer.WithLogger(opts.logger(cmd)))
		if err != nil {
			return nil, err
		}
		return a.Analyze(root)
	}

	if storePath == "" {
		reg, err := analyze()
		if err != nil {
			return nil, "", formatter.Fail(ExitCommandError, ErrCodeAnalyze, err.Error(), nil)
		}
		return reg, "analyzed", nil
	}

	st, err := store.Open(storePath)
	if err != nil {
		return nil, "", formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	reg, rec, err := st.ReadRegistry(cmd.Context(), root)
	switch {
	case err == nil && rec.MaxExtraDepth == depth:
		return reg, "store", nil
	case err != nil && !isNotFound(err):
		return nil, "", formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	reg, err = analyze()
	if err != nil {
		return nil, "", formatter.Fail(ExitCommandError, ErrCodeAnalyze, err.Error(), nil)
	}
	if _, err := st.WriteRegistry(cmd.Context(), reg); err != nil {
		return nil, "", formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return reg, "analyzed", nil
}

// readSelection parses text, or the file it names when it starts with @.
func readSelection(text string) (*selection.Selection, error) {
	if name, ok := strings.CutPrefix(text, "@"); ok {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read selection: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("--selection is required")
	}
	return selection.ParseGraphQL(text)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
