// Package cli implements the trellis command line: list resolution, entity
// detail, taxonomy projections and filter options against a fixture or
// cached dataset.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/listconfig"
	"github.com/trellisdata/trellis/internal/loader"
	"github.com/trellisdata/trellis/internal/pipeline"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Fixture string // YAML fixture path
	Cache   string // SQLite snapshot cache path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the trellis CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trellis",
		Short: "Trellis - entity relationship resolution and query engine",
		Long:  "Resolves filtered, sorted entity views over a normalized relational dataset.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Fixture, "fixture", "", "YAML fixture dataset to load")
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "SQLite snapshot cache to load")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewTaxonomiesCommand(opts))
	cmd.AddCommand(NewOptionsCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadStore builds a store from the fixture or cache flag; exactly one data
// source must be given.
func loadStore(ctx context.Context, opts *RootOptions) (*dataset.Store, error) {
	switch {
	case opts.Fixture != "" && opts.Cache != "":
		return nil, WrapExitError(ExitCommandError, "choose one of --fixture and --cache", nil)
	case opts.Fixture != "":
		data, err := os.ReadFile(opts.Fixture)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read fixture", err)
		}
		snaps, err := loader.ParseFixture(data)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "parse fixture", err)
		}
		store, err := loader.ApplyAll(dataset.NewStore(), snaps)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "apply fixture", err)
		}
		return store, nil
	case opts.Cache != "":
		cache, err := loader.OpenCache(opts.Cache)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open cache", err)
		}
		defer cache.Close()
		store, err := cache.Restore(ctx, dataset.NewStore())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "restore cache", err)
		}
		return store, nil
	default:
		return nil, WrapExitError(ExitCommandError, "a data source is required: --fixture or --cache", nil)
	}
}

// listFor resolves a list name against the built-in configurations.
func listFor(name string) (pipeline.Config, error) {
	cfgs := listconfig.Builtin()
	cfg, ok := cfgs[name]
	if !ok {
		return pipeline.Config{}, WrapExitError(ExitCommandError,
			fmt.Sprintf("unknown list %q: have %v", name, listconfig.Names(cfgs)), nil)
	}
	return cfg, nil
}
