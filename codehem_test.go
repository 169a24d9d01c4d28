package codehem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/codehem/builder"
	"github.com/termfx/codehem/core"
)

const pySource = "import os\n\nclass Greeter:\n    def greet(self, name: str) -> str:\n        return \"hi \" + name\n"

func TestDetectByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	require.NoError(t, os.WriteFile(path, []byte(pySource), 0o644))

	code, err := New().Detect(path)
	require.NoError(t, err)
	assert.Equal(t, "python", code)
}

func TestDetectBySniffing(t *testing.T) {
	e := New()

	code, err := e.Detect("#!/usr/bin/env python\nprint('x')\n")
	require.NoError(t, err)
	assert.Equal(t, "python", code)

	code, err = e.Detect("import { a } from \"./a\";\n")
	require.NoError(t, err)
	assert.Equal(t, "typescript", code)

	_, err = e.Detect("SELECT * FROM t;")
	assert.ErrorIs(t, err, core.ErrUnsupportedLanguage)
}

func TestJavascriptAliasResolves(t *testing.T) {
	e := New()
	_, err := e.Extract([]byte("function f() { return 1 }\n"), "javascript")
	assert.NoError(t, err)
}

func TestExtractAndGetText(t *testing.T) {
	e := New()

	tree, err := e.Extract([]byte(pySource), "python")
	require.NoError(t, err)
	require.Len(t, tree.Roots("Greeter"), 1)

	text, hash, err := e.GetTextByPath([]byte(pySource), "python", "Greeter.greet", false)
	require.NoError(t, err)
	assert.Contains(t, text, "def greet")
	assert.Equal(t, core.FragmentHash(text), hash)

	hashOnly, err := e.GetElementHash([]byte(pySource), "python", "Greeter.greet")
	require.NoError(t, err)
	assert.Equal(t, hash, hashOnly)
}

func TestGetTextMissingPath(t *testing.T) {
	_, _, err := New().GetTextByPath([]byte(pySource), "python", "Greeter.missing", false)
	assert.ErrorIs(t, err, core.ErrElementNotFound)
}

func TestApplyPatchInMemory(t *testing.T) {
	e := New()

	result, err := e.ApplyPatch([]byte(pySource), "python", "Greeter.greet[body]",
		"return name.upper()\n", core.ModeReplace, PatchOptions{})
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Contains(t, result.ModifiedCode, "return name.upper()")
	assert.NotContains(t, result.ModifiedCode, "\"hi \"")
}

func TestIdempotentHashAcrossExtractions(t *testing.T) {
	e := New()

	first, err := e.GetElementHash([]byte(pySource), "python", "Greeter.greet")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		h, err := e.GetElementHash([]byte(pySource), "python", "Greeter.greet")
		require.NoError(t, err)
		assert.Equal(t, first, h)
	}
}

func TestNewFunctionAppended(t *testing.T) {
	e := New()

	result, err := e.NewFunction([]byte(pySource), "python",
		builder.FunctionSpec{Name: "helper", Body: []string{"return 1"}}, "Greeter")
	require.NoError(t, err)
	assert.Contains(t, result.ModifiedCode, "def helper():")
}

func TestNewFunctionRawFragment(t *testing.T) {
	e := New()

	result, err := e.NewFunction(nil, "python",
		builder.FunctionSpec{Name: "helper", Body: []string{"return 1"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "def helper():\n    return 1", result.ModifiedCode)
}

func TestNewMethodAnchorsAfterLastMethod(t *testing.T) {
	e := New()

	result, err := e.NewMethod([]byte(pySource), "python",
		builder.FunctionSpec{Name: "farewell", Body: []string{"return \"bye\""}}, "Greeter")
	require.NoError(t, err)

	tree, err := e.Extract([]byte(result.ModifiedCode), "python")
	require.NoError(t, err)
	class := tree.Roots("Greeter")[0]
	require.NotNil(t, class.Child("farewell"))
	assert.Equal(t, core.KindMethod, class.Child("farewell").Kind)
}

func TestOpenWorkspaceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.py"), []byte(pySource), 0o644))

	ws, err := New().OpenWorkspace(dir)
	require.NoError(t, err)
	defer ws.Close()

	entries, err := ws.Find("greet", core.KindMethod, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Greeter.greet", entries[0].Path)
}

func TestDefaultEngineIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
