package typescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers/base"
)

func newService() *base.Provider {
	return New(parser.NewFacade(parser.DefaultCacheSize), parser.NewNavigator())
}

func extract(t *testing.T, svc *base.Provider, source string) *core.ElementTree {
	t.Helper()
	tree, err := svc.Extract([]byte(source))
	require.NoError(t, err)
	return tree
}

const classFixture = `import { thing } from "./thing";

class Widget {
  static kind = "widget";
  label: string;

  constructor(label: string) {
    this.label = label;
  }

  render(depth: number = 0): string {
    return this.label;
  }
}
`

func TestExtractClass(t *testing.T) {
	tree := extract(t, newService(), classFixture)

	roots := tree.Roots("Widget")
	require.Len(t, roots, 1)
	class := roots[0]
	assert.Equal(t, core.KindClass, class.Kind)

	render := class.Child("render")
	require.NotNil(t, render)
	assert.Equal(t, core.KindMethod, render.Kind)
	assert.Equal(t, "Widget", render.ParentName)

	label := class.Child("label")
	require.NotNil(t, label)
	assert.Equal(t, core.KindProperty, label.Kind)
	assert.Equal(t, "string", label.ValueType)

	kind := class.Child("kind")
	require.NotNil(t, kind)
	assert.Equal(t, core.KindStaticProperty, kind.Kind)
}

func TestExtractImports(t *testing.T) {
	tree := extract(t, newService(), classFixture)

	imp := tree.Imports()
	require.NotNil(t, imp)
	assert.Contains(t, imp.Content, `from "./thing"`)
}

func TestExtractMethodParams(t *testing.T) {
	tree := extract(t, newService(), classFixture)

	render := tree.Roots("Widget")[0].Child("render")
	require.NotNil(t, render)

	var params []*core.Element
	for _, c := range render.Children {
		if c.Kind == core.KindParameter {
			params = append(params, c)
		}
	}
	require.Len(t, params, 1)
	assert.Equal(t, "depth", params[0].Name)
	assert.Equal(t, "number", params[0].ValueType)
	assert.Equal(t, "0", params[0].Extra[core.ExtraDefault])
}

func TestExtractInterface(t *testing.T) {
	source := `interface Shape {
  area(): number;
  name: string;
}
`
	tree := extract(t, newService(), source)

	roots := tree.Roots("Shape")
	require.Len(t, roots, 1)
	iface := roots[0]
	assert.Equal(t, core.KindInterface, iface.Kind)

	area := iface.Child("area")
	require.NotNil(t, area)
	assert.Equal(t, core.KindMethod, area.Kind)

	name := iface.Child("name")
	require.NotNil(t, name)
	assert.Equal(t, core.KindProperty, name.Kind)
	assert.Equal(t, "string", name.ValueType)
}

func TestExtractGetterSetter(t *testing.T) {
	source := `class C {
  private _v = 0;

  get v(): number {
    return this._v;
  }

  set v(value: number) {
    this._v = value;
  }
}
`
	tree := extract(t, newService(), source)

	class := tree.Roots("C")[0]
	vs := class.ChildrenNamed("v")
	require.Len(t, vs, 2)
	assert.Equal(t, core.KindPropertyGetter, vs[0].Kind)
	assert.Equal(t, core.KindPropertySetter, vs[1].Kind)
}

func TestExtractEnumAndTypeAlias(t *testing.T) {
	source := `enum Color {
  Red,
  Green,
}

type Name = string;
`
	tree := extract(t, newService(), source)

	colors := tree.Roots("Color")
	require.Len(t, colors, 1)
	assert.Equal(t, core.KindEnum, colors[0].Kind)
	assert.Equal(t, []string{"Red", "Green"}, colors[0].Extra[core.ExtraEnumMembers])

	names := tree.Roots("Name")
	require.Len(t, names, 1)
	assert.Equal(t, core.KindTypeAlias, names[0].Kind)
}

func TestExtractFunctionWithReturnType(t *testing.T) {
	source := "function add(a: number, b: number): number {\n  return a + b;\n}\n"
	tree := extract(t, newService(), source)

	roots := tree.Roots("add")
	require.Len(t, roots, 1)
	fn := roots[0]
	assert.Equal(t, core.KindFunction, fn.Kind)

	var ret *core.Element
	for _, c := range fn.Children {
		if c.Kind == core.KindReturnValue {
			ret = c
		}
	}
	require.NotNil(t, ret)
	assert.Equal(t, "number", ret.ValueType)
}

func TestOneLinerClassBody(t *testing.T) {
	source := "class C { a() { return 1 } }\n"
	tree := extract(t, newService(), source)

	class := tree.Roots("C")[0]
	a := class.Child("a")
	require.NotNil(t, a)
	assert.Equal(t, core.KindMethod, a.Kind)
	// Inline member: range stays inside the line.
	assert.Equal(t, 1, a.Range.StartLine)
	assert.Greater(t, a.Range.StartCol, 1)
}

func TestClassDecoratorExcludedFromRange(t *testing.T) {
	source := "@Component()\nclass C {\n  a() { return 1 }\n}\n"
	tree := extract(t, newService(), source)

	roots := tree.Roots("C")
	require.Len(t, roots, 1)
	class := roots[0]
	assert.Equal(t, 2, class.Range.StartLine)
	require.Len(t, class.Decorators, 1)
	assert.Equal(t, "Component", class.Decorators[0].Name)
}

func TestBodyRangeInsideBraces(t *testing.T) {
	source := "function f() {\n  return 1;\n}\n"
	tree := extract(t, newService(), source)

	f := tree.Roots("f")[0]
	body, ok := f.BodyRange()
	require.True(t, ok)
	assert.Equal(t, 2, body.StartLine)
	assert.Equal(t, 2, body.EndLine)
}

func TestSniff(t *testing.T) {
	c := &config{}
	assert.True(t, c.Sniff([]byte("import { a } from \"b\";\n")))
	assert.True(t, c.Sniff([]byte("export function f() {}\n")))
	assert.True(t, c.Sniff([]byte("interface X { a: string }\n")))
	assert.True(t, c.Sniff([]byte("const x = 1;\n")))
	assert.False(t, c.Sniff([]byte("def main():\n")))
}
