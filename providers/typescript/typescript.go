// Package typescript is the brace-family reference plug-in. The service
// also answers for javascript through registry aliases.
package typescript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/formatter"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers/base"
)

// New builds the typescript language service on shared parsing handles.
func New(facade *parser.Facade, nav *parser.Navigator) *base.Provider {
	return base.New(&config{}, facade, nav)
}

type config struct{}

func (c *config) Code() string {
	return "typescript"
}

func (c *config) Aliases() []string {
	return []string{"ts", "javascript", "js"}
}

func (c *config) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

func (c *config) Grammar() *sitter.Language {
	return tsts.GetLanguage()
}

func (c *config) Family() formatter.Family {
	return formatter.BraceFamily
}

func (c *config) Queries() []base.QuerySpec {
	return []base.QuerySpec{
		{Kind: core.KindClass, Pattern: `(class_declaration name: (type_identifier) @name) @element`},
		{Kind: core.KindInterface, Pattern: `(interface_declaration name: (type_identifier) @name) @element`},
		{Kind: core.KindFunction, Pattern: `(function_declaration name: (identifier) @name) @element`},
		{Kind: core.KindMethod, Pattern: `(method_definition name: (property_identifier) @name) @element`},
		{Kind: core.KindProperty, Pattern: `(public_field_definition name: (property_identifier) @name) @element`},
		{Kind: core.KindProperty, Pattern: `(property_signature name: (property_identifier) @name) @element`},
		{Kind: core.KindMethod, Pattern: `(method_signature name: (property_identifier) @name) @element`},
		{Kind: core.KindTypeAlias, Pattern: `(type_alias_declaration name: (type_identifier) @name) @element`},
		{Kind: core.KindEnum, Pattern: `(enum_declaration name: (identifier) @name) @element`},
		{Kind: core.KindNamespace, Pattern: `(internal_module name: (identifier) @name) @element`},
		{Kind: core.KindDecorator, Pattern: `(decorator) @element`},
		{Kind: core.KindImport, Pattern: `(import_statement) @element`},
	}
}

func (c *config) Options() []base.Option {
	return nil
}

// Sniff checks for typescript-flavored statement openers.
func (c *config) Sniff(prefix []byte) bool {
	for _, line := range strings.Split(string(prefix), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "import ") && (strings.Contains(trimmed, " from ") || strings.Contains(trimmed, "\"") || strings.Contains(trimmed, "'")),
			strings.HasPrefix(trimmed, "export "),
			strings.HasPrefix(trimmed, "interface "),
			strings.HasPrefix(trimmed, "type ") && strings.Contains(trimmed, "="),
			strings.HasPrefix(trimmed, "function ") && strings.Contains(trimmed, "("),
			strings.HasPrefix(trimmed, "class ") && strings.Contains(trimmed, "{"),
			strings.HasPrefix(trimmed, "const "), strings.HasPrefix(trimmed, "let "):
			return true
		}
		return false
	}
	return false
}
