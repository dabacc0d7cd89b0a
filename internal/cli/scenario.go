package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trellisdata/trellis/internal/harness"
)

// NewScenarioCommand runs conformance scenarios and reports their inline
// assertions. Golden comparison stays in the test suite; this command is for
// poking at scenarios by hand.
func NewScenarioCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <file>...",
		Short: "Run conformance scenarios",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			failed := 0
			for _, path := range args {
				scenario, err := harness.LoadScenario(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "load scenario", err)
				}
				result, err := harness.Run(scenario)
				if err != nil {
					return WrapExitError(ExitCommandError, scenario.Name, err)
				}
				if err := harness.Check(result); err != nil {
					failed++
					if err := f.Failure(fmt.Errorf("%s: %w", scenario.Name, err)); err != nil {
						return err
					}
					continue
				}
				if f.Format == "json" {
					err = f.Success(result.Views)
				} else {
					err = f.Success(renderScenario(result))
				}
				if err != nil {
					return err
				}
			}
			if failed > 0 {
				return WrapExitError(ExitFailure,
					fmt.Sprintf("%d of %d scenarios failed", failed, len(args)), nil)
			}
			return nil
		},
	}
	return cmd
}

func renderScenario(result *harness.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d queries ok\n", result.Scenario.Name, len(result.Views))
	for _, view := range result.Views {
		q := view.Query
		if q == "" {
			q = "(none)"
		}
		fmt.Fprintf(&b, "  %-40s -> %d [%s]\n", q, view.Total, strings.Join(view.IDs, ","))
	}
	return strings.TrimRight(b.String(), "\n")
}
