package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchview/internal/analyzer"
	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Roots         []string
	MaxExtraDepth int
	Store         string
}

// RegistrySummary describes one analysed registry.
type RegistrySummary struct {
	Root          string        `json:"root"`
	Fingerprint   string        `json:"fingerprint"`
	MaxExtraDepth int           `json:"max_extra_depth"`
	RunID         string        `json:"run_id,omitempty"`
	Views         []ViewSummary `json:"views"`
	EmbeddedViews []string      `json:"embedded_views,omitempty"`
}

// ViewSummary describes one view of a registry.
type ViewSummary struct {
	Name      string   `json:"name"`
	Entity    string   `json:"entity"`
	Level     int      `json:"level"`
	Extended  bool     `json:"extended"`
	Terminal  bool     `json:"terminal"`
	Subclass  bool     `json:"subclass"`
	SuperView string   `json:"super_view,omitempty"`
	Relations []string `json:"relations,omitempty"`
}

// AnalyzeResult holds the analyze command output.
type AnalyzeResult struct {
	Registries []RegistrySummary `json:"registries"`
	Store      string            `json:"store,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <schema>",
		Short: "Compute view registries",
		Long: `Compute the view registry of one or more root entities.

Every entity reachable from a root gets a view. A relation that closes a
cycle gets an extended view instead, and extension stops after
max_extra_depth extra hops. With --store the registries are written to a
SQLite database, replacing any registry stored for the same root.

Examples:
  fetchview analyze ./schema
  fetchview analyze ./schema --root Song --max-extra-depth 2
  fetchview analyze ./schema.yaml --store registries.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Roots, "root", nil, "root entity (repeatable; default: every entity without a super class)")
	cmd.Flags().IntVar(&opts.MaxExtraDepth, "max-extra-depth", analyzer.DefaultMaxExtraDepth, "extra hops unrolled past a cycle")
	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite database to write registries to")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	depth, err := maxExtraDepth(formatter, cmd, cfg, opts.MaxExtraDepth)
	if err != nil {
		return err
	}
	roots := opts.Roots
	if !cmd.Flags().Changed("root") {
		roots = cfg.Roots
	}
	storePath := opts.Store
	if !cmd.Flags().Changed("store") {
		storePath = cfg.Store
	}

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	a, err := analyzer.New(graph, analyzer.WithMaxExtraDepth(depth), analyzer.WithLogger(opts.logger(cmd)))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	catalog, err := a.AnalyzeAll(cmd.Context(), roots)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeAnalyze, err.Error(), nil)
	}

	result := AnalyzeResult{Registries: make([]RegistrySummary, 0, catalog.Len())}
	for _, root := range catalog.Roots() {
		reg, _ := catalog.Registry(root)
		summary, err := summarize(reg)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeAnalyze, err.Error(), nil)
		}
		result.Registries = append(result.Registries, summary)
	}

	if storePath != "" {
		if err := storeCatalog(cmd, storePath, catalog, result.Registries); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.Store = storePath
		formatter.VerboseLog("Stored %d registries in %s", catalog.Len(), storePath)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputAnalyzeText(formatter, result)
	return nil
}

// maxExtraDepth applies flag > config precedence and rejects negative values.
func maxExtraDepth(f *OutputFormatter, cmd *cobra.Command, cfg *Config, flagValue int) (int, error) {
	depth := cfg.MaxExtraDepth
	if cmd.Flags().Changed("max-extra-depth") {
		depth = flagValue
	}
	if depth < 0 {
		return 0, f.Fail(ExitCommandError, ErrCodeConfig,
			fmt.Sprintf("max-extra-depth must be >= 0, got %d", depth), nil)
	}
	return depth, nil
}

func storeCatalog(cmd *cobra.Command, path string, catalog *analyzer.Catalog, summaries []RegistrySummary) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for i, root := range catalog.Roots() {
		reg, _ := catalog.Registry(root)
		rec, err := st.WriteRegistry(cmd.Context(), reg)
		if err != nil {
			return err
		}
		summaries[i].RunID = rec.RunID
	}
	return nil
}

func summarize(reg *ir.Registry) (RegistrySummary, error) {
	fp, err := ir.Fingerprint(reg)
	if err != nil {
		return RegistrySummary{}, err
	}
	s := RegistrySummary{
		Root:          reg.Root(),
		Fingerprint:   fp,
		MaxExtraDepth: reg.MaxExtraDepth(),
		Views:         make([]ViewSummary, 0, reg.Len()),
	}
	for _, v := range reg.Views() {
		vs := ViewSummary{
			Name:      v.Name,
			Entity:    v.Entity.Name,
			Level:     v.Level,
			Extended:  v.IsExtended,
			Terminal:  v.IsTerminal(),
			Subclass:  v.IsSubclassView(),
		}
		if vs.Subclass {
			vs.SuperView = v.SuperClassViewName
		}
		for _, r := range v.Relations {
			field := r.Field
			if r.Collection {
				field += "*"
			}
			vs.Relations = append(vs.Relations, field+" -> "+r.View)
		}
		s.Views = append(s.Views, vs)
	}
	for _, ev := range reg.EmbeddedViews() {
		s.EmbeddedViews = append(s.EmbeddedViews, ev.Name)
	}
	return s, nil
}

func outputAnalyzeText(f *OutputFormatter, result AnalyzeResult) {
	for i, reg := range result.Registries {
		if i > 0 {
			fmt.Fprintln(f.Writer)
		}
		fmt.Fprintf(f.Writer, "Registry %s (max_extra_depth=%d, %d views)\n", reg.Root, reg.MaxExtraDepth, len(reg.Views))
		fmt.Fprintf(f.Writer, "fingerprint: %s\n", reg.Fingerprint)
		if reg.RunID != "" {
			fmt.Fprintf(f.Writer, "run: %s\n", reg.RunID)
		}
		fmt.Fprintln(f.Writer)

		rows := make([][]string, 0, len(reg.Views))
		for _, v := range reg.Views {
			level := strconv.Itoa(v.Level)
			if v.Terminal {
				level += " (terminal)"
			}
			rows = append(rows, []string{v.Name, v.Entity, level, v.SuperView, strings.Join(v.Relations, ", ")})
		}
		f.Table([]string{"View", "Entity", "Level", "Super", "Relations"}, rows)

		if len(reg.EmbeddedViews) > 0 {
			fmt.Fprintf(f.Writer, "embedded: %s\n", strings.Join(reg.EmbeddedViews, ", "))
		}
	}
	if result.Store != "" {
		fmt.Fprintf(f.Writer, "\n✓ Stored %d registries in %s\n", len(result.Registries), result.Store)
	}
}

// isNotFound reports whether err means a registry is not stored.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
