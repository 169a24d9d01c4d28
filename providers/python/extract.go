package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers/base"
)

// Handle converts one query match into raw records.
func (c *config) Handle(kind core.ElementKind, match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	if node == nil {
		return nil
	}

	switch kind {
	case core.KindClass:
		return c.handleClass(match, source)
	case core.KindFunction:
		return c.handleCallable(match, source)
	case core.KindStaticProperty:
		return c.handleClassAttribute(node, source)
	case core.KindTypeAlias:
		return c.handleTypeAlias(node, source)
	case core.KindDecorator:
		return c.handleDecorator(node, source)
	case core.KindImport:
		return []base.Raw{{
			Kind:      core.KindImport,
			Content:   parser.NodeText(node, source),
			Range:     parser.NodeRange(node),
			StartByte: node.StartByte(),
			EndByte:   node.EndByte(),
		}}
	}
	return nil
}

func (c *config) handleClass(match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	nameNode := match["name"]
	if nameNode == nil {
		return nil
	}
	content, nodeRange := base.Span(source, node)
	raw := base.Raw{
		Kind:       core.KindClass,
		Name:       parser.NodeText(nameNode, source),
		Content:    content,
		Range:      nodeRange,
		StartByte:  node.StartByte(),
		EndByte:    node.EndByte(),
		ParentName: enclosingClassName(node, source),
	}
	if body := match["body"]; body != nil {
		_, r := base.Span(source, body)
		raw.BodyRange = &r
	}
	return []base.Raw{raw}
}

// handleCallable emits either a function or a method record depending on
// the nearest class or def ancestor.
func (c *config) handleCallable(match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	nameNode := match["name"]
	if nameNode == nil {
		return nil
	}

	kind := core.KindFunction
	parentName := ""
	// The block between a def and its owner tells nesting apart: a def
	// directly inside a class block is a method.
	if anc := parser.FindFirstAncestor(node, []string{"class_definition", "function_definition"}); anc != nil {
		if anc.Type() == "class_definition" {
			kind = core.KindMethod
			if cn := anc.ChildByFieldName("name"); cn != nil {
				parentName = parser.NodeText(cn, source)
			}
		}
		// A def nested in another def stays a function record; assembly
		// drops it from the tree.
	}

	content, nodeRange := base.Span(source, node)
	raw := base.Raw{
		Kind:       kind,
		Name:       parser.NodeText(nameNode, source),
		Content:    content,
		Range:      nodeRange,
		StartByte:  node.StartByte(),
		EndByte:    node.EndByte(),
		ParentName: parentName,
		Async:      hasChildOfType(node, "async"),
		Params:     c.parameters(node, source),
	}
	if body := match["body"]; body != nil {
		_, r := base.Span(source, body)
		raw.BodyRange = &r
	}
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		raw.ReturnType = parser.NodeText(rt, source)
	}
	return []base.Raw{raw}
}

// parameters walks the parameter list, covering plain, typed, defaulted
// and splat forms.
func (c *config) parameters(fn *sitter.Node, source []byte) []base.RawParam {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []base.RawParam
	idx := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		p := base.RawParam{Index: idx}
		switch child.Type() {
		case "identifier":
			p.Name = parser.NodeText(child, source)
		case "typed_parameter":
			if inner := child.NamedChild(0); inner != nil {
				p.Name = parser.NodeText(inner, source)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Type = parser.NodeText(t, source)
			}
		case "default_parameter":
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = parser.NodeText(n, source)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = parser.NodeText(v, source)
				p.Optional = true
			}
		case "typed_default_parameter":
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = parser.NodeText(n, source)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Type = parser.NodeText(t, source)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = parser.NodeText(v, source)
				p.Optional = true
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			p.Name = parser.NodeText(child, source)
		default:
			continue
		}
		if p.Name == "" {
			continue
		}
		out = append(out, p)
		idx++
	}
	return out
}

// handleClassAttribute turns a class-body assignment into a
// static_property record; the initializer doubles as the body range.
func (c *config) handleClassAttribute(node *sitter.Node, source []byte) []base.Raw {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	content, nodeRange := base.Span(source, node)
	raw := base.Raw{
		Kind:       core.KindStaticProperty,
		Name:       parser.NodeText(left, source),
		Content:    content,
		Range:      nodeRange,
		StartByte:  node.StartByte(),
		EndByte:    node.EndByte(),
		ParentName: enclosingClassName(node, source),
	}
	if t := node.ChildByFieldName("type"); t != nil {
		raw.ValueType = parser.NodeText(t, source)
	}
	if right := node.ChildByFieldName("right"); right != nil {
		r := parser.NodeRange(right)
		raw.BodyRange = &r
	}
	return []base.Raw{raw}
}

func (c *config) handleTypeAlias(node *sitter.Node, source []byte) []base.Raw {
	name := ""
	if left := node.ChildByFieldName("left"); left != nil {
		name = parser.NodeText(left, source)
	}
	if name == "" {
		return nil
	}
	return []base.Raw{{
		Kind:      core.KindTypeAlias,
		Name:      name,
		Content:   parser.NodeText(node, source),
		Range:     parser.NodeRange(node),
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
	}}
}

// handleDecorator records the decorator with its callee name so the
// assembler and the accessor reclassifier can match on it.
func (c *config) handleDecorator(node *sitter.Node, source []byte) []base.Raw {
	content := parser.NodeText(node, source)
	name := strings.TrimPrefix(strings.TrimSpace(content), "@")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return []base.Raw{{
		Kind:      core.KindDecorator,
		Name:      name,
		Content:   content,
		Range:     parser.NodeRange(node),
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
	}}
}

func enclosingClassName(node *sitter.Node, source []byte) string {
	anc := parser.FindFirstAncestor(node, []string{"class_definition"})
	if anc == nil {
		return ""
	}
	if n := anc.ChildByFieldName("name"); n != nil {
		return parser.NodeText(n, source)
	}
	return ""
}

func hasChildOfType(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return true
		}
	}
	return false
}
