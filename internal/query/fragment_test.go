package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RecognizedKeysOnly(t *testing.T) {
	f := Parse("where=draft:false&search=act&utm_source=mail&foo=bar")

	assert.Equal(t, []string{"draft:false"}, f.Values(KeyWhere))
	assert.True(t, f.Has(KeySearch))
	assert.Nil(t, f.Values("utm_source"), "unrecognized keys are dropped")
	assert.Nil(t, f.Values("foo"))
}

func TestParse_Malformed(t *testing.T) {
	f := Parse("%zz=broken")
	assert.True(t, f.Empty(), "malformed query degrades to the empty fragment")
}

func TestFragment_Hash_Canonical(t *testing.T) {
	a := Parse("cat=10&where=draft:false&cat=11")
	b := Parse("where=draft:false&cat=11&cat=10")
	c := Parse("where=draft:true&cat=11&cat=10")

	assert.Equal(t, a.Hash(), b.Hash(), "token order does not change the hash")
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, "", Fragment{}.Hash())
}

func TestFragment_WhereTokens(t *testing.T) {
	f := FromValues(url.Values{KeyWhere: {"draft:false", "code:null", "malformed", ":novalue"}})

	toks := f.WhereTokens()
	require.Len(t, toks, 2, "malformed tokens are dropped")
	assert.Equal(t, AttrToken{Attribute: "draft", Value: "false"}, toks[0])
	assert.True(t, toks[1].IsNull())
}

func TestFragment_ConnectionTokens(t *testing.T) {
	f := FromValues(url.Values{KeyConnected: {"actions:3", "actions_1:7", "bare", "name:"}})

	toks := f.ConnectionTokens(KeyConnected)
	require.Len(t, toks, 2)
	assert.Equal(t, ConnToken{Name: "actions", ID: "3"}, toks[0])
	assert.Equal(t, ConnToken{Name: "actions_1", ID: "7"}, toks[1])
}

func TestFragment_FirstAndEmpty(t *testing.T) {
	f := Parse("sort=title&order=asc")

	sort, ok := f.First(KeySort)
	require.True(t, ok)
	assert.Equal(t, "title", sort)

	_, ok = f.First(KeyCategory)
	assert.False(t, ok)

	assert.False(t, f.Empty())
	assert.True(t, Parse("").Empty())
}

func TestSplitTypedName(t *testing.T) {
	base, typeID := SplitTypedName("actions_3")
	assert.Equal(t, "actions", base)
	assert.Equal(t, "3", typeID)

	base, typeID = SplitTypedName("actions")
	assert.Equal(t, "actions", base)
	assert.Empty(t, typeID)

	assert.Equal(t, "actions_3", TypedName("actions", "3"))
	assert.Equal(t, "actions", TypedName("actions", ""))
}

func TestConnectionFilterSpec_Matches(t *testing.T) {
	plain := ConnectionFilterSpec{Name: "actions"}
	assert.True(t, plain.Matches("actions"))
	assert.False(t, plain.Matches("actions_1"))

	typed := ConnectionFilterSpec{Name: "actions", GroupByType: true}
	assert.True(t, typed.Matches("actions"))
	assert.True(t, typed.Matches("actions_1"))
	assert.False(t, typed.Matches("actors_1"))
}
