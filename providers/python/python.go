// Package python is the indent-family reference plug-in: extraction
// queries and handlers for the tree-sitter Python grammar.
package python

import (
	"bytes"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tspython "github.com/smacker/go-tree-sitter/python"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/formatter"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers/base"
)

// New builds the python language service on shared parsing handles.
func New(facade *parser.Facade, nav *parser.Navigator) *base.Provider {
	return base.New(&config{}, facade, nav)
}

type config struct{}

func (c *config) Code() string {
	return "python"
}

func (c *config) Aliases() []string {
	return []string{"py", "python3"}
}

func (c *config) Extensions() []string {
	return []string{".py", ".pyw", ".pyi"}
}

func (c *config) Grammar() *sitter.Language {
	return tspython.GetLanguage()
}

func (c *config) Family() formatter.Family {
	return formatter.IndentFamily
}

func (c *config) Queries() []base.QuerySpec {
	return []base.QuerySpec{
		{Kind: core.KindClass, Pattern: `(class_definition name: (identifier) @name body: (block) @body) @element`},
		{Kind: core.KindFunction, Pattern: `(function_definition name: (identifier) @name body: (block) @body) @element`},
		{Kind: core.KindStaticProperty, Pattern: `(class_definition body: (block (expression_statement (assignment) @element)))`},
		{Kind: core.KindTypeAlias, Pattern: `(type_alias_statement) @element`},
		{Kind: core.KindDecorator, Pattern: `(decorator) @element`},
		{Kind: core.KindImport, Pattern: `(import_statement) @element`},
		{Kind: core.KindImport, Pattern: `(import_from_statement) @element`},
	}
}

func (c *config) Options() []base.Option {
	return []base.Option{base.WithReclassify(reclassifyAccessors)}
}

// Sniff looks for a python shebang or leading statement keywords.
func (c *config) Sniff(prefix []byte) bool {
	if bytes.HasPrefix(prefix, []byte("#!")) && bytes.Contains(prefix, []byte("python")) {
		return true
	}
	for _, line := range strings.Split(string(prefix), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "def "),
			strings.HasPrefix(trimmed, "class ") && strings.Contains(trimmed, ":"),
			// Plain "import x"; the braced/quoted forms belong to the
			// brace-family sniffers.
			strings.HasPrefix(trimmed, "import ") && !strings.ContainsAny(trimmed, "{\"'"),
			strings.HasPrefix(trimmed, "from ") && strings.Contains(trimmed, " import"):
			return true
		}
		return false
	}
	return false
}

// reclassifyAccessors runs after decorators attach: @property methods
// become getters, @<name>.setter methods become setters. The pair stays
// siblings under the class, sharing the property name.
func reclassifyAccessors(e *core.Element) {
	if e.Kind != core.KindMethod {
		return
	}
	for _, d := range e.Decorators {
		switch {
		case d.Name == "property":
			e.Kind = core.KindPropertyGetter
			return
		case strings.HasSuffix(d.Name, ".setter"):
			e.Kind = core.KindPropertySetter
			return
		case strings.HasSuffix(d.Name, ".deleter"):
			e.Kind = core.KindMetaElement
			return
		case d.Name == "staticmethod" || d.Name == "classmethod":
			return
		}
	}
}
