// Command fetchview computes bounded fetch view registries for entity
// graphs and translates GraphQL selections into fetch plans.
//
// Usage:
//
//	fetchview [--format text|json] [--config fetchview.yaml] <command>
//
// Commands:
//   - validate: check an entity schema
//   - cycles: list relation cycles
//   - analyze: compute view registries, optionally storing them
//   - plan: translate a selection into a fetch plan
//   - test: run conformance scenarios
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/fetchview/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
