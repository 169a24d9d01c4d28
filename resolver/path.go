// Package resolver parses path expressions and maps them onto elements
// and typed sub-ranges of the element tree.
package resolver

import (
	"strings"

	"github.com/termfx/codehem/core"
)

// Path is a parsed path expression: dotted segments plus an optional
// kind tag.
type Path struct {
	Segments []string
	Tag      string
}

// Kind tags accepted by the grammar. "def", "body" and "imports" select
// ranges rather than filtering kinds.
var kindTags = map[string]bool{
	"class": true, "method": true, "function": true, "property": true,
	"property_getter": true, "property_setter": true, "static_property": true,
	"interface": true, "type_alias": true, "enum": true, "namespace": true,
	"def": true, "body": true, "imports": true,
}

// Parse tokenizes a path expression. Empty segments and unknown kind
// tags are rejected.
func Parse(expr string) (Path, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return Path{}, core.PathSyntaxError(expr, "empty path")
	}

	var p Path
	if i := strings.IndexByte(trimmed, '['); i >= 0 {
		if !strings.HasSuffix(trimmed, "]") {
			return Path{}, core.PathSyntaxError(expr, "unterminated kind tag")
		}
		tag := strings.TrimSpace(trimmed[i+1 : len(trimmed)-1])
		if !kindTags[tag] {
			return Path{}, core.PathSyntaxError(expr, "unknown kind tag "+tag)
		}
		p.Tag = tag
		trimmed = trimmed[:i]
	}

	for _, seg := range strings.Split(trimmed, ".") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return Path{}, core.PathSyntaxError(expr, "empty segment")
		}
		p.Segments = append(p.Segments, seg)
	}

	// "FILE" is the implicit root and may prefix any path.
	if len(p.Segments) > 1 && p.Segments[0] == "FILE" {
		p.Segments = p.Segments[1:]
	}
	if len(p.Segments) == 0 {
		return Path{}, core.PathSyntaxError(expr, "no segments")
	}
	return p, nil
}

// String reassembles the canonical form of the path.
func (p Path) String() string {
	s := strings.Join(p.Segments, ".")
	if p.Tag != "" {
		s += "[" + p.Tag + "]"
	}
	return s
}

// wantsImports reports whether the path addresses the synthetic imports
// element.
func (p Path) wantsImports() bool {
	last := p.Segments[len(p.Segments)-1]
	return last == "imports" || p.Tag == "imports"
}
