package parser

import (
	"testing"

	tspython "github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/codehem/core"
)

const pySource = "def f():\n    return 1\n\ndef g():\n    return 2\n"

func TestParseAndCacheHit(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	lang := tspython.GetLanguage()

	first, err := f.Parse("python", lang, []byte(pySource))
	require.NoError(t, err)
	defer first.Close()

	second, err := f.Parse("python", lang, []byte(pySource))
	require.NoError(t, err)
	defer second.Close()

	// Cached parse returns an equivalent tree for identical bytes.
	assert.Equal(t, first.RootNode().String(), second.RootNode().String())
}

func TestParseNilGrammar(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	_, err := f.Parse("mystery", nil, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestParsePartialSourceBestEffort(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	tree, err := f.Parse("python", tspython.GetLanguage(), []byte("def broken(:\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, HasErrorNodes(tree.RootNode()))
}

func TestExecuteQuerySourceOrder(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	nav := NewNavigator()
	lang := tspython.GetLanguage()

	tree, err := f.Parse("python", lang, []byte(pySource))
	require.NoError(t, err)
	defer tree.Close()

	matches, err := nav.ExecuteQuery("python", lang, tree, []byte(pySource),
		`(function_definition name: (identifier) @name) @fn`)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "f", NodeText(matches[0]["name"], []byte(pySource)))
	assert.Equal(t, "g", NodeText(matches[1]["name"], []byte(pySource)))
}

func TestExecuteQueryInvalidPattern(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	nav := NewNavigator()
	lang := tspython.GetLanguage()

	tree, err := f.Parse("python", lang, []byte(pySource))
	require.NoError(t, err)
	defer tree.Close()

	_, err = nav.ExecuteQuery("python", lang, tree, []byte(pySource), `(nonexistent_node) @x`)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPlugin)
}

func TestNodeRangeOneBased(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	nav := NewNavigator()
	lang := tspython.GetLanguage()
	source := []byte(pySource)

	tree, err := f.Parse("python", lang, source)
	require.NoError(t, err)
	defer tree.Close()

	matches, err := nav.ExecuteQuery("python", lang, tree, source,
		`(function_definition name: (identifier) @name) @fn`)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	r := NodeRange(matches[0]["fn"])
	assert.Equal(t, 1, r.StartLine)
	assert.Equal(t, 1, r.StartCol)
	assert.Equal(t, 2, r.EndLine)

	start, end := LineRange(matches[0]["fn"])
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)
}

func TestFindFirstAncestor(t *testing.T) {
	f := NewFacade(DefaultCacheSize)
	nav := NewNavigator()
	lang := tspython.GetLanguage()
	source := []byte("class C:\n    def m(self):\n        return 1\n")

	tree, err := f.Parse("python", lang, source)
	require.NoError(t, err)
	defer tree.Close()

	matches, err := nav.ExecuteQuery("python", lang, tree, source,
		`(function_definition name: (identifier) @name) @fn`)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	anc := FindFirstAncestor(matches[0]["fn"], []string{"class_definition"})
	require.NotNil(t, anc)
	assert.Equal(t, "class_definition", anc.Type())

	assert.Nil(t, FindFirstAncestor(matches[0]["fn"], []string{"interface_declaration"}))
}
