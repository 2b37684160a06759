package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchview/internal/compiler"
)

// CyclesResult lists the relation cycles of a schema.
type CyclesResult struct {
	Cycles []compiler.CycleWarning `json:"cycles"`
}

// NewCyclesCommand creates the cycles command.
func NewCyclesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycles <schema>",
		Short: "List relation cycles",
		Long: `List the relation cycles of an entity schema.

Each strongly connected group of entities is reported once, with the
shortest loop through its first declared entity. Cycles are not errors:
analyze unrolls them up to max_extra_depth extra hops.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycles(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCycles(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	cycles := compiler.AnalyzeCycles(graph)
	if formatter.JSON() {
		return formatter.Success(CyclesResult{Cycles: cycles})
	}

	if len(cycles) == 0 {
		fmt.Fprintln(formatter.Writer, "✓ No relation cycles")
		return nil
	}
	rows := make([][]string, 0, len(cycles))
	for _, c := range cycles {
		rows = append(rows, []string{strings.Join(c.Path, " → "), strings.Join(c.Fields, ", "), c.Level})
	}
	formatter.Table([]string{"Cycle", "Fields", "Level"}, rows)
	fmt.Fprintf(formatter.Writer, "\n%d cycle(s) found\n", len(cycles))
	return nil
}
