package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/pipeline"
	"github.com/trellisdata/trellis/internal/query"
)

// ListRow is one resolved entity in list output.
type ListRow struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Draft      bool     `json:"draft,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	List  string            `json:"list"`
	Query string            `json:"query"`
	Page  pipeline.PageInfo `json:"page"`
	Rows  []ListRow         `json:"rows"`
}

// NewListCommand resolves a query fragment against a list configuration.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var rawQuery string

	cmd := &cobra.Command{
		Use:   "list <list>",
		Short: "Resolve a filtered, sorted entity list",
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

			frag := query.Parse(rawQuery)
			r := pipeline.New(cfg).Resolve(store, frag)
			if !r.Ready {
				return WrapExitError(ExitFailure, "dataset is not ready for this list", nil)
			}
			entities, page := pipeline.Paginate(r.Entities, frag)

			result := ListResult{List: cfg.Name, Query: rawQuery, Page: page}
			for _, e := range entities {
				result.Rows = append(result.Rows, ListRow{
					ID:         e.ID,
					Title:      dataset.Canon(e.Attr("title")),
					Draft:      e.Draft(),
					Categories: r.Categorised[e.ID],
				})
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if f.Format == "json" {
				return f.Success(result)
			}
			return f.Success(renderList(result))
		},
	}

	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "query fragment, e.g. \"cat=10&sort=title\"")
	return cmd
}

func renderList(result ListResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d of %d, page %d/%d)\n",
		result.List, len(result.Rows), result.Page.Total, result.Page.Page, result.Page.Pages)
	for _, row := range result.Rows {
		marker := " "
		if row.Draft {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-6s %s", marker, row.ID, row.Title)
		if len(row.Categories) > 0 {
			fmt.Fprintf(&b, "  [cat %s]", strings.Join(row.Categories, ","))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
