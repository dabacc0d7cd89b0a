package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooseEquals_StringNumberInsensitive(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"string vs int same", String("1"), Int(1), true},
		{"int vs string same", Int(42), String("42"), true},
		{"string vs float same", String("1.5"), Float(1.5), true},
		{"whole float vs int", Float(3), Int(3), true},
		{"different numbers", Int(1), String("2"), false},
		{"plain strings equal", String("donor"), String("donor"), true},
		{"plain strings differ", String("donor"), String("target"), false},
		{"string not numeric", String("x1"), Int(1), false},
		{"bool vs string", Bool(true), String("true"), true},
		{"null vs null", Null{}, Null{}, true},
		{"null vs zero", Null{}, Int(0), false},
		{"null vs empty string", Null{}, String(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooseEquals(tt.a, tt.b))
		})
	}
}

func TestLooseEquals_NilValue(t *testing.T) {
	// An untyped nil Value behaves like Null.
	assert.True(t, LooseEquals(nil, Null{}))
	assert.False(t, LooseEquals(nil, String("1")))
}

func TestCompareIDs_NumericBeforeLexical(t *testing.T) {
	assert.Equal(t, -1, CompareIDs("2", "10"), "numeric ids compare numerically")
	assert.Equal(t, 1, CompareIDs("10", "2"))
	assert.Equal(t, 0, CompareIDs("7", "7"))
	assert.Equal(t, -1, CompareIDs("7", "abc"), "numeric sorts before non-numeric")
	assert.Equal(t, 1, CompareIDs("abc", "7"))
	assert.Equal(t, -1, CompareIDs("abc", "abd"))
}

func TestCanon(t *testing.T) {
	assert.Equal(t, "", Canon(Null{}))
	assert.Equal(t, "", Canon(nil))
	assert.Equal(t, "12", Canon(Int(12)))
	assert.Equal(t, "1.25", Canon(Float(1.25)))
	assert.Equal(t, "true", Canon(Bool(true)))
	assert.Equal(t, "title", Canon(String("title")))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, Null{}, ParseValue(nil))
	assert.Equal(t, String("a"), ParseValue("a"))
	assert.Equal(t, Int(3), ParseValue(3))
	assert.Equal(t, Int(3), ParseValue(int64(3)))
	assert.Equal(t, Int(3), ParseValue(3.0), "whole floats normalize to Int")
	assert.Equal(t, Float(3.5), ParseValue(3.5))
	assert.Equal(t, Bool(true), ParseValue(true))
	assert.Equal(t, String("bytes"), ParseValue([]byte("bytes")))
	assert.Equal(t, Null{}, ParseValue(struct{}{}), "unsupported types degrade to Null")
}
