package listconfig

import (
	_ "embed"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/trellisdata/trellis/internal/pipeline"
)

//go:embed lists.cue
var builtinSource []byte

// Load compiles list declarations from CUE source. The returned map is keyed
// by list name.
func Load(source []byte) (map[string]pipeline.Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(source, cue.Filename("lists.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	lists := v.LookupPath(cue.ParsePath("lists"))
	if !lists.Exists() {
		return nil, &CompileError{Field: "lists", Message: "lists is required", Pos: v.Pos()}
	}

	iter, err := lists.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]pipeline.Config)
	for iter.Next() {
		name := iter.Selector().Unquoted()
		cfg, err := CompileList(name, iter.Value())
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", name, err)
		}
		out[name] = cfg
	}
	return out, nil
}

// Builtin compiles the embedded list declarations. The embedded source is
// validated by tests, so a failure here is a programmer error.
func Builtin() map[string]pipeline.Config {
	cfgs, err := Load(builtinSource)
	if err != nil {
		panic(err)
	}
	return cfgs
}

// Names returns the list names of a configuration set in stable order.
func Names(cfgs map[string]pipeline.Config) []string {
	out := make([]string, 0, len(cfgs))
	for name := range cfgs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
