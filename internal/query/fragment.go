package query

import (
	"net/url"
	"slices"
	"strings"
)

// Recognized fragment keys. Anything else is ignored.
const (
	KeyWhere      = "where"       // attribute-equality tokens "attr:value"
	KeySearch     = "search"      // keyword search term
	KeyWithout    = "without"     // taxonomy id or connection name
	KeyConnected  = "connected"   // connection tokens "name:id"
	KeyTargeted   = "targeted"    // targeting connection tokens
	KeyMember     = "member"      // membership connection tokens (groups of)
	KeyGroup      = "association" // membership connection tokens (members of)
	KeyCategory   = "cat"         // category id
	KeyCategoryX  = "catx"        // category id, via a connected entity
	KeySort       = "sort"        // sort attribute override
	KeyOrder      = "order"       // "asc" | "desc"
	KeyActorType  = "actortype"   // subtype scoping for actor lists
	KeyActionType = "actiontype"  // subtype scoping for action lists
	KeyPage       = "page"        // page number over the resolved set
	KeyItems      = "items"       // page size, "all" for no paging
)

var recognizedKeys = map[string]struct{}{
	KeyWhere:      {},
	KeySearch:     {},
	KeyWithout:    {},
	KeyConnected:  {},
	KeyTargeted:   {},
	KeyMember:     {},
	KeyGroup:      {},
	KeyCategory:   {},
	KeyCategoryX:  {},
	KeySort:       {},
	KeyOrder:      {},
	KeyActorType:  {},
	KeyActionType: {},
	KeyPage:       {},
	KeyItems:      {},
}

// Fragment is an immutable, flat set of query tokens. The zero value is the
// empty fragment (every stage a no-op).
type Fragment struct {
	values map[string][]string
	hash   string
}

// Parse decodes a URL-style query string into a Fragment, keeping only
// recognized keys. A malformed query string yields the empty fragment - the
// pipeline never errors on query input, it only narrows.
func Parse(rawQuery string) Fragment {
	vals, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Fragment{}
	}
	return FromValues(vals)
}

// FromValues builds a Fragment from already-decoded values, keeping only
// recognized keys and dropping empty tokens.
func FromValues(vals url.Values) Fragment {
	m := make(map[string][]string)
	for key, tokens := range vals {
		if _, ok := recognizedKeys[key]; !ok {
			continue
		}
		kept := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if tok != "" {
				kept = append(kept, tok)
			}
		}
		if len(kept) > 0 {
			m[key] = kept
		}
	}
	return Fragment{values: m, hash: canonical(m)}
}

// canonical renders the fragment as a sorted, url-encoded string. Two
// fragments with the same tokens in any order share a canonical form.
func canonical(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		tokens := slices.Clone(m[k])
		slices.Sort(tokens)
		for _, tok := range tokens {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(tok))
		}
	}
	return b.String()
}

// Hash returns the fragment's canonical form, the memo-cache key component.
func (f Fragment) Hash() string {
	return f.hash
}

// Values returns all tokens for key, nil when absent.
func (f Fragment) Values(key string) []string {
	return f.values[key]
}

// First returns the first token for key.
func (f Fragment) First(key string) (string, bool) {
	toks := f.values[key]
	if len(toks) == 0 {
		return "", false
	}
	return toks[0], true
}

// Has reports whether key carries at least one token.
func (f Fragment) Has(key string) bool {
	return len(f.values[key]) > 0
}

// Empty reports whether the fragment carries no tokens at all.
func (f Fragment) Empty() bool {
	return len(f.values) == 0
}

// AttrToken is one parsed "attribute:value" token from the where slice.
// Value "null" selects entities where the attribute is absent.
type AttrToken struct {
	Attribute string
	Value     string
}

// IsNull reports whether this token selects absent attributes.
func (t AttrToken) IsNull() bool {
	return t.Value == "null"
}

// WhereTokens parses the where slice. Tokens without a colon are dropped as
// malformed (the stage degrades to fewer conditions, never an error).
func (f Fragment) WhereTokens() []AttrToken {
	var out []AttrToken
	for _, tok := range f.values[KeyWhere] {
		attr, val, ok := strings.Cut(tok, ":")
		if !ok || attr == "" {
			continue
		}
		out = append(out, AttrToken{Attribute: attr, Value: val})
	}
	return out
}

// ConnToken is one parsed "name:id" token from a connection slice. The name
// may encode a target subtype ("actions_3") in groupByType mode; splitting
// that is the connection filter's concern, not the fragment's.
type ConnToken struct {
	Name string
	ID   string
}

// ConnectionTokens parses the tokens of a connection query key
// (connected, targeted, member, association).
func (f Fragment) ConnectionTokens(key string) []ConnToken {
	var out []ConnToken
	for _, tok := range f.values[key] {
		name, id, ok := strings.Cut(tok, ":")
		if !ok || name == "" || id == "" {
			continue
		}
		out = append(out, ConnToken{Name: name, ID: id})
	}
	return out
}

// WithoutTokens returns the raw without tokens: numeric tokens name a
// taxonomy id, non-numeric tokens name a connection.
func (f Fragment) WithoutTokens() []string {
	return f.values[KeyWithout]
}
