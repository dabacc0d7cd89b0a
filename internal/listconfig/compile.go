// Package listconfig compiles the per-entity-type list declarations from CUE
// into pipeline configurations. Uses CUE SDK's Go API directly (not CLI
// subprocess).
package listconfig

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/pipeline"
	"github.com/trellisdata/trellis/internal/query"
	"github.com/trellisdata/trellis/internal/taxonomy"
)

// relationsByTable maps a join table name in CUE to its declared relation.
var relationsByTable = map[string]index.Relation{
	dataset.TableActorCategories:  index.ActorCategories,
	dataset.TableActionCategories: index.ActionCategories,
	dataset.TableActorActions:     index.ActorActions,
	dataset.TableActionActors:     index.ActionActors,
	dataset.TableMemberships:      index.Memberships,
	dataset.TableUserCategories:   index.UserCategories,
}

var applicabilityByTable = map[string]taxonomy.Applicability{
	dataset.TableActorTypeTaxonomies:  taxonomy.ActorTypes,
	dataset.TableActionTypeTaxonomies: taxonomy.ActionTypes,
}

// CompileList parses one list declaration into a pipeline configuration.
// The CUE value should be the list struct itself, e.g. lists.actors.
func CompileList(name string, v cue.Value) (pipeline.Config, error) {
	if err := v.Err(); err != nil {
		return pipeline.Config{}, formatCUEError(err)
	}

	cfg := pipeline.Config{Name: name}

	table, err := requiredString(v, "table")
	if err != nil {
		return pipeline.Config{}, err
	}
	if !dataset.Declared(table) {
		return pipeline.Config{}, &CompileError{
			Field:   "table",
			Message: fmt.Sprintf("unknown table %q", table),
			Pos:     v.Pos(),
		}
	}
	cfg.Table = table

	if cfg.SubtypeKey, err = requiredString(v, "subtypeKey"); err != nil {
		return pipeline.Config{}, err
	}
	if cfg.SubtypeQueryKey, err = requiredString(v, "subtypeQueryKey"); err != nil {
		return pipeline.Config{}, err
	}

	catRel, err := requiredString(v, "categoryRelation")
	if err != nil {
		return pipeline.Config{}, err
	}
	if cfg.CategoryRelation, err = relationFor(v, "categoryRelation", catRel); err != nil {
		return pipeline.Config{}, err
	}

	app, err := requiredString(v, "applicability")
	if err != nil {
		return pipeline.Config{}, err
	}
	applicability, ok := applicabilityByTable[app]
	if !ok {
		return pipeline.Config{}, &CompileError{
			Field:   "applicability",
			Message: fmt.Sprintf("unknown applicability table %q", app),
			Pos:     v.Pos(),
		}
	}
	cfg.Applicability = applicability

	if cfg.SearchAttributes, err = stringList(v, "search"); err != nil {
		return pipeline.Config{}, err
	}
	if cfg.Dependencies, err = stringList(v, "dependencies"); err != nil {
		return pipeline.Config{}, err
	}
	if cfg.SortOptions, err = parseSorts(v); err != nil {
		return pipeline.Config{}, err
	}
	if cfg.Attributes, err = parseAttributes(v); err != nil {
		return pipeline.Config{}, err
	}
	if cfg.Connections, err = parseConnections(v); err != nil {
		return pipeline.Config{}, err
	}
	return cfg, nil
}

func parseSorts(v cue.Value) ([]query.SortOption, error) {
	var out []query.SortOption
	iter, err := v.LookupPath(cue.ParsePath("sorts")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		sv := iter.Value()
		opt := query.SortOption{}
		attr, err := requiredString(sv, "attribute")
		if err != nil {
			return nil, err
		}
		opt.Attribute = attr

		typ, _ := sv.LookupPath(cue.ParsePath("type")).String()
		switch typ {
		case "number":
			opt.Type = query.SortNumber
		case "date":
			opt.Type = query.SortDate
		default:
			opt.Type = query.SortString
		}

		order, _ := sv.LookupPath(cue.ParsePath("order")).String()
		if order == "desc" {
			opt.Order = query.Descending
		} else {
			opt.Order = query.Ascending
		}

		opt.Default, _ = sv.LookupPath(cue.ParsePath("default")).Bool()
		out = append(out, opt)
	}
	return out, nil
}

func parseAttributes(v cue.Value) ([]query.AttributeFilterSpec, error) {
	var out []query.AttributeFilterSpec
	iter, err := v.LookupPath(cue.ParsePath("attributes")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		av := iter.Value()
		spec := query.AttributeFilterSpec{}
		if spec.Attribute, err = requiredString(av, "attribute"); err != nil {
			return nil, err
		}
		if spec.Label, err = requiredString(av, "label"); err != nil {
			return nil, err
		}
		optIter, err := av.LookupPath(cue.ParsePath("options")).List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for optIter.Next() {
			ov := optIter.Value()
			opt := query.AttributeOption{}
			if opt.Value, err = requiredString(ov, "value"); err != nil {
				return nil, err
			}
			if opt.Label, err = requiredString(ov, "label"); err != nil {
				return nil, err
			}
			spec.Options = append(spec.Options, opt)
		}
		out = append(out, spec)
	}
	return out, nil
}

func parseConnections(v cue.Value) ([]query.ConnectionFilterSpec, error) {
	var out []query.ConnectionFilterSpec
	iter, err := v.LookupPath(cue.ParsePath("connections")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		cv := iter.Value()
		spec := query.ConnectionFilterSpec{}
		if spec.Name, err = requiredString(cv, "name"); err != nil {
			return nil, err
		}
		if spec.Label, err = requiredString(cv, "label"); err != nil {
			return nil, err
		}
		if spec.QueryKey, err = requiredString(cv, "queryKey"); err != nil {
			return nil, err
		}
		if spec.SubtypeKey, err = requiredString(cv, "subtypeKey"); err != nil {
			return nil, err
		}

		rel, err := requiredString(cv, "relation")
		if err != nil {
			return nil, err
		}
		if spec.Relation, err = relationFor(cv, "relation", rel); err != nil {
			return nil, err
		}

		spec.EntityIsOwner, _ = cv.LookupPath(cue.ParsePath("entityIsOwner")).Bool()
		spec.GroupByType, _ = cv.LookupPath(cue.ParsePath("groupByType")).Bool()

		catRel, _ := cv.LookupPath(cue.ParsePath("categoryRelation")).String()
		if catRel != "" {
			if spec.CategoryRelation, err = relationFor(cv, "categoryRelation", catRel); err != nil {
				return nil, err
			}
		}
		out = append(out, spec)
	}
	return out, nil
}

func relationFor(v cue.Value, field, table string) (index.Relation, error) {
	rel, ok := relationsByTable[table]
	if !ok {
		return index.Relation{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown relation table %q", table),
			Pos:     v.Pos(),
		}
	}
	return rel, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	var out []string
	iter, err := v.LookupPath(cue.ParsePath(field)).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
