package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/codehem/core"
)

func raw(kind core.ElementKind, name string, startLine, endLine int, startByte, endByte uint32) Raw {
	return Raw{
		Kind:      kind,
		Name:      name,
		Content:   name,
		Range:     core.Range{StartLine: startLine, StartCol: 1, EndLine: endLine, EndCol: 0},
		StartByte: startByte,
		EndByte:   endByte,
	}
}

func TestAssembleNestsMembers(t *testing.T) {
	records := []Raw{
		raw(core.KindClass, "C", 1, 10, 0, 200),
		raw(core.KindMethod, "f", 2, 4, 10, 80),
		raw(core.KindMethod, "g", 5, 9, 90, 190),
	}

	tree := Assemble("python", records)
	require.Len(t, tree.Elements, 1)
	class := tree.Elements[0]
	require.Len(t, class.Children, 2)
	assert.Equal(t, "f", class.Children[0].Name)
	assert.Equal(t, "g", class.Children[1].Name)
	assert.Equal(t, "C", class.Children[0].ParentName)
}

func TestAssembleSmallestContainerWins(t *testing.T) {
	records := []Raw{
		raw(core.KindClass, "Outer", 1, 20, 0, 400),
		raw(core.KindClass, "Inner", 5, 15, 100, 300),
		raw(core.KindMethod, "m", 6, 8, 120, 200),
	}

	tree := Assemble("python", records)
	outer := tree.Elements[0]
	inner := outer.Children[0]
	assert.Equal(t, "Inner", inner.Name)
	require.Len(t, inner.Children, 1)
	assert.Equal(t, "m", inner.Children[0].Name)
	assert.Equal(t, "Inner", inner.Children[0].ParentName)
}

func TestAssembleDropsCallableNesting(t *testing.T) {
	records := []Raw{
		raw(core.KindFunction, "outer", 1, 5, 0, 100),
		raw(core.KindFunction, "inner", 2, 3, 20, 60),
	}

	tree := Assemble("python", records)
	require.Len(t, tree.Elements, 1)
	assert.Equal(t, "outer", tree.Elements[0].Name)
	assert.Empty(t, tree.Elements[0].Children)
}

func TestAssembleFoldsImports(t *testing.T) {
	records := []Raw{
		raw(core.KindImport, "", 1, 1, 0, 9),
		raw(core.KindImport, "", 2, 2, 10, 20),
		raw(core.KindClass, "C", 4, 8, 30, 120),
	}
	records[0].Content = "import os"
	records[1].Content = "import sys"

	tree := Assemble("python", records)
	imp := tree.Imports()
	require.NotNil(t, imp)
	assert.Equal(t, "import os\nimport sys", imp.Content)
	assert.Equal(t, 1, imp.Range.StartLine)
	assert.Equal(t, 2, imp.Range.EndLine)
	assert.Equal(t, 2, imp.Extra[core.ExtraImportCount])
	// One synthetic element regardless of import count.
	count := 0
	for _, e := range tree.Elements {
		if e.Kind == core.KindImport {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAssembleAttachesDecoratorBlocks(t *testing.T) {
	dec1 := raw(core.KindDecorator, "register", 1, 1, 0, 9)
	dec2 := raw(core.KindDecorator, "cache", 2, 2, 10, 16)
	fn := raw(core.KindFunction, "handler", 3, 5, 20, 80)

	tree := Assemble("python", []Raw{fn, dec1, dec2})
	require.Len(t, tree.Elements, 1)
	h := tree.Elements[0]
	require.Len(t, h.Decorators, 2)
	assert.Equal(t, "register", h.Decorators[0].Name)
	assert.Equal(t, "cache", h.Decorators[1].Name)
	assert.Equal(t, 1, h.Extra[core.ExtraDecoratorTop])
}

func TestAssembleDetachedDecoratorIgnored(t *testing.T) {
	dec := raw(core.KindDecorator, "orphan", 1, 1, 0, 7)
	fn := raw(core.KindFunction, "f", 5, 6, 20, 50)

	tree := Assemble("python", []Raw{dec, fn})
	require.Len(t, tree.Elements, 1)
	assert.Empty(t, tree.Elements[0].Decorators)
}

func TestAssembleReclassifyHook(t *testing.T) {
	dec := raw(core.KindDecorator, "property", 2, 2, 10, 19)
	m := raw(core.KindMethod, "v", 3, 4, 20, 60)
	m.ParentName = "C"
	class := raw(core.KindClass, "C", 1, 5, 0, 80)

	tree := Assemble("python", []Raw{class, dec, m}, WithReclassify(func(e *core.Element) {
		if e.Kind == core.KindMethod && len(e.Decorators) > 0 && e.Decorators[0].Name == "property" {
			e.Kind = core.KindPropertyGetter
		}
	}))
	c := tree.Elements[0]
	require.Len(t, c.Children, 1)
	assert.Equal(t, core.KindPropertyGetter, c.Children[0].Kind)
}

func TestAssembleParamsAndReturnChildren(t *testing.T) {
	fn := raw(core.KindFunction, "f", 1, 3, 0, 50)
	fn.Params = []RawParam{
		{Name: "a", Type: "int", Index: 0},
		{Name: "b", Default: "2", Optional: true, Index: 1},
	}
	fn.ReturnType = "int"

	tree := Assemble("python", []Raw{fn})
	f := tree.Elements[0]
	require.Len(t, f.Children, 3)
	assert.Equal(t, core.KindParameter, f.Children[0].Kind)
	assert.Equal(t, "int", f.Children[0].ValueType)
	assert.Equal(t, "2", f.Children[1].Extra[core.ExtraDefault])
	assert.Equal(t, true, f.Children[1].Extra[core.ExtraOptional])
	assert.Equal(t, core.KindReturnValue, f.Children[2].Kind)
}

func TestAssembleSiblingRangesDisjoint(t *testing.T) {
	records := []Raw{
		raw(core.KindClass, "C", 1, 10, 0, 200),
		raw(core.KindMethod, "f", 2, 4, 10, 80),
		raw(core.KindMethod, "g", 5, 9, 90, 190),
	}
	tree := Assemble("python", records)
	class := tree.Elements[0]
	for i, a := range class.Children {
		for j, b := range class.Children {
			if i == j {
				continue
			}
			assert.False(t, a.Range.Overlaps(b.Range), "%s overlaps %s", a.Name, b.Name)
		}
		assert.True(t, class.Range.Contains(a.Range))
	}
}
