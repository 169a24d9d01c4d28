package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers"
	"github.com/termfx/codehem/providers/python"
	"github.com/termfx/codehem/providers/typescript"
)

func services() (providers.Service, providers.Service) {
	facade := parser.NewFacade(parser.DefaultCacheSize)
	nav := parser.NewNavigator()
	return python.New(facade, nav), typescript.New(facade, nav)
}

func TestFunctionIndentFamily(t *testing.T) {
	py, _ := services()

	got, err := Function(py, FunctionSpec{
		Name:    "area",
		Params:  []Param{{Name: "w", Type: "int"}, {Name: "h", Type: "int", Default: "1"}},
		Returns: "int",
		Body:    []string{"return w * h"},
	})
	require.NoError(t, err)
	assert.Equal(t, "def area(w: int, h: int = 1) -> int:\n    return w * h", got)
}

func TestFunctionBraceFamily(t *testing.T) {
	_, ts := services()

	got, err := Function(ts, FunctionSpec{
		Name:    "area",
		Params:  []Param{{Name: "w", Type: "number"}},
		Returns: "number",
		Body:    []string{"return w * w;"},
	})
	require.NoError(t, err)
	assert.Equal(t, "function area(w: number): number {\n  return w * w;\n}", got)
}

func TestMethodAddsReceiverForIndentFamily(t *testing.T) {
	py, _ := services()

	got, err := Method(py, FunctionSpec{Name: "reset", Body: []string{"self.count = 0"}})
	require.NoError(t, err)
	assert.Equal(t, "def reset(self):\n    self.count = 0", got)
}

func TestMethodBraceFamily(t *testing.T) {
	_, ts := services()

	got, err := Method(ts, FunctionSpec{Name: "reset", Body: []string{"this.count = 0;"}})
	require.NoError(t, err)
	assert.Equal(t, "reset() {\n  this.count = 0;\n}", got)
}

func TestClassWithDecoratorsAndBases(t *testing.T) {
	py, ts := services()

	got, err := Class(py, ClassSpec{Name: "Job", Bases: []string{"Base"}, Decorators: []string{"register"}})
	require.NoError(t, err)
	assert.Equal(t, "@register\nclass Job(Base):\n    pass", got)

	got, err = Class(ts, ClassSpec{Name: "Job", Bases: []string{"Base"}})
	require.NoError(t, err)
	assert.Equal(t, "class Job extends Base {\n}", got)
}

func TestEmptyBodyDefaults(t *testing.T) {
	py, _ := services()

	got, err := Function(py, FunctionSpec{Name: "todo"})
	require.NoError(t, err)
	assert.Equal(t, "def todo():\n    pass", got)
}

func TestValidation(t *testing.T) {
	py, _ := services()

	_, err := Function(py, FunctionSpec{})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = Class(py, ClassSpec{})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = Method(py, FunctionSpec{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestBuiltFragmentSurvivesExtraction(t *testing.T) {
	py, _ := services()

	fragment, err := Function(py, FunctionSpec{Name: "f", Body: []string{"return 1"}})
	require.NoError(t, err)

	tree, err := py.Extract([]byte(fragment + "\n"))
	require.NoError(t, err)
	require.Len(t, tree.Roots("f"), 1)
	assert.Equal(t, core.KindFunction, tree.Roots("f")[0].Kind)
}
