package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trellisdata/trellis/internal/options"
	"github.com/trellisdata/trellis/internal/pipeline"
	"github.com/trellisdata/trellis/internal/query"
)

// NewOptionsCommand derives the filter option groups for a query, the way a
// filter sidebar would render them.
func NewOptionsCommand(opts *RootOptions) *cobra.Command {
	var rawQuery string

	cmd := &cobra.Command{
		Use:   "options <list>",
		Short: "Show filter option groups for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := listFor(args[0])
			if err != nil {
				return err
			}
			store, err := loadStore(cmd.Context(), opts)
			if err != nil {
				return err
			}

			r := pipeline.New(cfg).Resolve(store, query.Parse(rawQuery))
			if !r.Ready {
				return WrapExitError(ExitFailure, "dataset is not ready for this list", nil)
			}
			groups := options.NewFactory(cfg).FilterGroups(store, r)

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if f.Format == "json" {
				return f.Success(groups)
			}
			return f.Success(renderGroups(groups))
		},
	}

	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "query fragment the options are derived for")
	return cmd
}

func renderGroups(groups []options.Group) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%s (%s)\n", g.Label, g.ID)
		for _, o := range g.Options {
			marker := " "
			switch o.Checked {
			case pipeline.CheckedAll:
				marker = "x"
			case pipeline.CheckedSome:
				marker = "-"
			}
			fmt.Fprintf(&b, " [%s] %-24s %3d  (%s=%s)\n", marker, o.Label, o.Count, o.Query, o.Value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
