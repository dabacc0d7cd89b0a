package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trellisdata/trellis/internal/connect"
	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/pipeline"
	"github.com/trellisdata/trellis/internal/query"
	"github.com/trellisdata/trellis/internal/taxonomy"
)

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	List        string                `json:"list"`
	ID          string                `json:"id"`
	Attributes  map[string]string     `json:"attributes"`
	Taxonomies  []ShowTaxonomy        `json:"taxonomies,omitempty"`
	Connections map[string]connIDList `json:"connections,omitempty"`
}

// ShowTaxonomy is one taxonomy with the categories checked for the entity.
type ShowTaxonomy struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
}

type connIDList map[string][]connRef

type connRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Indirect bool   `json:"indirect,omitempty"`
}

// NewShowCommand renders one entity with its taxonomy tags and nested
// connections.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	var includeMembers bool

	cmd := &cobra.Command{
		Use:   "show <list> <id>",
		Short: "Show one entity with its categories and connections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := listFor(args[0])
			if err != nil {
				return err
			}
			store, err := loadStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			entity, ok := store.Entity(cfg.Table, args[1])
			if !ok {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("no entity %q in %s", args[1], cfg.Table), nil)
			}

			idxs := index.BuildSet(store, cfg.Relations()...)
			result := ShowResult{
				List:       cfg.Name,
				ID:         entity.ID,
				Attributes: canonAttributes(entity),
				Taxonomies: entityTaxonomies(store, cfg, idxs, entity.ID),
			}
			result.Connections = entityConnections(store, cfg, idxs, entity.ID, includeMembers)

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if f.Format == "json" {
				return f.Success(result)
			}
			return f.Success(renderShow(result))
		},
	}

	cmd.Flags().BoolVar(&includeMembers, "include-members", false,
		"fold in connections held through group memberships")
	return cmd
}

func canonAttributes(e *dataset.Entity) map[string]string {
	out := make(map[string]string, len(e.Attributes))
	for key, v := range e.Attributes {
		out[key] = dataset.Canon(v)
	}
	return out
}

func entityTaxonomies(store *dataset.Store, cfg pipeline.Config, idxs *index.Set, id string) []ShowTaxonomy {
	var out []ShowTaxonomy
	idx := idxs.For(cfg.CategoryRelation)
	for _, tax := range taxonomy.ForSubtype(store, cfg.Applicability, "") {
		resolved := taxonomy.WithCategories(store, tax, false)
		checked := taxonomy.IsAssociated(resolved, id, idx)
		st := ShowTaxonomy{ID: tax.ID, Title: dataset.Canon(tax.Attr("title"))}
		for _, cat := range checked.Categories {
			if cat.Checked {
				st.Categories = append(st.Categories, cat.ID)
			}
		}
		if len(st.Categories) > 0 {
			out = append(out, st)
		}
	}
	return out
}

func entityConnections(store *dataset.Store, cfg pipeline.Config, idxs *index.Set, id string, includeMembers bool) map[string]connIDList {
	n := connect.New(store, idxs)
	out := make(map[string]connIDList)
	for _, spec := range cfg.Connections {
		var grouped connect.Grouped
		switch spec.QueryKey {
		case query.KeyConnected:
			if spec.Relation == index.ActorActions && spec.EntityIsOwner {
				grouped = n.ActionsByType(id, includeMembers)
			} else {
				grouped = n.ActorsByType(id)
			}
		case query.KeyTargeted:
			if spec.EntityIsOwner {
				grouped = n.TargetsByType(id)
			} else {
				grouped = n.TargetingActionsByType(id, includeMembers)
			}
		case query.KeyMember:
			grouped = n.MembersByType(id)
		case query.KeyGroup:
			grouped = n.AssociationsByType(id)
		}
		if len(grouped) == 0 {
			continue
		}
		byType := make(connIDList, len(grouped))
		for typeID, refs := range grouped {
			for _, ref := range refs {
				byType[typeID] = append(byType[typeID], connRef{
					ID:       ref.Entity.ID,
					Title:    dataset.Canon(ref.Entity.Attr("title")),
					Indirect: ref.Indirect,
				})
			}
		}
		out[spec.Name] = byType
	}
	return out
}

func renderShow(result ShowResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", result.List, result.ID)

	keys := make([]string, 0, len(result.Attributes))
	for key := range result.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "  %-16s %s\n", key, result.Attributes[key])
	}

	for _, tax := range result.Taxonomies {
		fmt.Fprintf(&b, "  %s: %s\n", tax.Title, strings.Join(tax.Categories, ", "))
	}

	names := make([]string, 0, len(result.Connections))
	for name := range result.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s:\n", name)
		byType := result.Connections[name]
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			for _, ref := range byType[t] {
				marker := " "
				if ref.Indirect {
					marker = "~"
				}
				fmt.Fprintf(&b, "   %s %-6s %s\n", marker, ref.ID, ref.Title)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
