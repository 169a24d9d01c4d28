package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeContains(t *testing.T) {
	outer := Range{StartLine: 1, StartCol: 1, EndLine: 10, EndCol: 5}
	inner := Range{StartLine: 2, StartCol: 5, EndLine: 4, EndCol: 1}

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
	assert.True(t, outer.Contains(outer))
}

func TestRangeOverlaps(t *testing.T) {
	a := Range{StartLine: 1, StartCol: 1, EndLine: 5, EndCol: 1}
	b := Range{StartLine: 4, StartCol: 1, EndLine: 8, EndCol: 1}
	c := Range{StartLine: 6, StartCol: 1, EndLine: 8, EndCol: 1}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))

	contained := Range{StartLine: 2, StartCol: 1, EndLine: 3, EndCol: 1}
	assert.False(t, a.Overlaps(contained))
}

func TestIsValidKind(t *testing.T) {
	assert.True(t, IsValidKind(KindMethod))
	assert.True(t, IsValidKind(KindPropertySetter))
	assert.False(t, IsValidKind(ElementKind("widget")))
}

func TestDecoratedRange(t *testing.T) {
	e := &Element{
		Kind:  KindMethod,
		Name:  "value",
		Range: Range{StartLine: 5, StartCol: 1, EndLine: 7, EndCol: 10},
		Decorators: []*Element{
			{Kind: KindDecorator, Name: "property", Range: Range{StartLine: 4, StartCol: 5, EndLine: 4, EndCol: 13}},
		},
	}

	r := e.DecoratedRange()
	assert.Equal(t, 4, r.StartLine)
	assert.Equal(t, 7, r.EndLine)
	// The undecorated range is untouched.
	assert.Equal(t, 5, e.Range.StartLine)
}

func TestTreeRootsAndImports(t *testing.T) {
	imports := &Element{Kind: KindImport, Content: "import os"}
	class := &Element{Kind: KindClass, Name: "C"}
	tree := &ElementTree{Language: "python", Elements: []*Element{imports, class}}

	require.NotNil(t, tree.Imports())
	assert.Equal(t, "import os", tree.Imports().Content)

	roots := tree.Roots("imports")
	require.Len(t, roots, 1)
	assert.Equal(t, KindImport, roots[0].Kind)

	assert.Len(t, tree.Roots("C"), 1)
	assert.Empty(t, tree.Roots("missing"))
}

func TestWalkVisitsNested(t *testing.T) {
	method := &Element{Kind: KindMethod, Name: "f"}
	class := &Element{Kind: KindClass, Name: "C", Children: []*Element{method}}
	tree := &ElementTree{Elements: []*Element{class}}

	var seen []string
	tree.Walk(func(e *Element) { seen = append(seen, e.Name) })
	assert.Equal(t, []string{"C", "f"}, seen)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{ElementNotFoundError("C.f"), "ElementNotFoundError"},
		{WriteConflictError("C.f", "aaa", "bbb"), "WriteConflictError"},
		{PathSyntaxError("C..f", "empty segment"), "PathSyntaxError"},
		{UnsupportedLanguageError(".xyz"), "UnsupportedLanguageError"},
		{ValidationError("empty code"), "ValidationError"},
		{IOError("a.py", assert.AnError), "IOError"},
		{TimeoutError("write"), "TimeoutError"},
		{PluginError("python", "broken query"), "PluginError"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, ErrorKind(tt.err))
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(IOError("a.py", assert.AnError)))
	assert.False(t, IsTransient(ElementNotFoundError("C.f")))
	assert.False(t, IsTransient(WriteConflictError("C.f", "a", "b")))
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult(ElementNotFoundError("C.f"))
	assert.Equal(t, "error", res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "ElementNotFoundError", res.Error.Kind)
	assert.False(t, res.OK())
}
