package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/taxonomy"
)

// TaxonomyView is one taxonomy with its categories in display order.
type TaxonomyView struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	SubtypeIDs []string       `json:"subtype_ids,omitempty"`
	Categories []CategoryView `json:"categories"`
}

type CategoryView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Group      string `json:"group,omitempty"`
	FromParent bool   `json:"from_parent,omitempty"`
	Draft      bool   `json:"draft,omitempty"`
}

// NewTaxonomiesCommand prints the taxonomy projections used by sidebars and
// forms.
func NewTaxonomiesCommand(opts *RootOptions) *cobra.Command {
	var listName, subtypeID string
	var includeParents bool

	cmd := &cobra.Command{
		Use:   "taxonomies",
		Short: "Show taxonomies with their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(cmd.Context(), opts)
			if err != nil {
				return err
			}

			var taxes []*taxonomy.Taxonomy
			if listName != "" {
				cfg, err := listFor(listName)
				if err != nil {
					return err
				}
				taxes = taxonomy.ForSubtype(store, cfg.Applicability, subtypeID)
			} else {
				taxes = taxonomy.All(store)
			}

			views := make([]TaxonomyView, 0, len(taxes))
			for _, tax := range taxes {
				resolved := taxonomy.WithCategories(store, tax, includeParents)
				view := TaxonomyView{
					ID:         tax.ID,
					Title:      dataset.Canon(tax.Attr("title")),
					SubtypeIDs: tax.SubtypeIDs,
					Categories: make([]CategoryView, 0, len(resolved.Categories)),
				}
				for _, cat := range resolved.Categories {
					view.Categories = append(view.Categories, CategoryView{
						ID:         cat.ID,
						Title:      dataset.Canon(cat.Attr("title")),
						Group:      cat.Group,
						FromParent: cat.FromParent,
						Draft:      cat.Draft(),
					})
				}
				views = append(views, view)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if f.Format == "json" {
				return f.Success(views)
			}
			return f.Success(renderTaxonomies(views))
		},
	}

	cmd.Flags().StringVar(&listName, "list", "", "restrict to taxonomies applicable to a list")
	cmd.Flags().StringVar(&subtypeID, "subtype", "", "restrict to taxonomies applicable to a subtype")
	cmd.Flags().BoolVar(&includeParents, "parents", false, "union in parent-taxonomy categories")
	return cmd
}

func renderTaxonomies(views []TaxonomyView) string {
	var b strings.Builder
	for _, view := range views {
		fmt.Fprintf(&b, "%s %s", view.ID, view.Title)
		if len(view.SubtypeIDs) > 0 {
			fmt.Fprintf(&b, " (types %s)", strings.Join(view.SubtypeIDs, ","))
		}
		b.WriteByte('\n')
		for _, cat := range view.Categories {
			marker := " "
			if cat.FromParent {
				marker = "^"
			}
			fmt.Fprintf(&b, " %s %-6s %s\n", marker, cat.ID, cat.Title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
