package typescript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers/base"
)

var containerTypes = []string{
	"class_declaration", "abstract_class_declaration",
	"interface_declaration", "enum_declaration", "internal_module",
}

// Handle converts one query match into raw records.
func (c *config) Handle(kind core.ElementKind, match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	if node == nil {
		return nil
	}

	switch kind {
	case core.KindClass, core.KindInterface, core.KindEnum, core.KindNamespace:
		return c.handleContainer(kind, match, source)
	case core.KindFunction, core.KindMethod:
		return c.handleCallable(kind, match, source)
	case core.KindProperty:
		return c.handleProperty(match, source)
	case core.KindTypeAlias:
		return c.handleTypeAlias(match, source)
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

func (c *config) handleContainer(kind core.ElementKind, match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	nameNode := match["name"]
	if nameNode == nil {
		return nil
	}

	// The grammar parks decorators inside class_declaration; the default
	// element range starts at the keyword instead.
	start := declarationStart(node)
	content, nodeRange := base.SpanFrom(source, start, node)
	raw := base.Raw{
		Kind:       kind,
		Name:       parser.NodeText(nameNode, source),
		Content:    content,
		Range:      nodeRange,
		StartByte:  start,
		EndByte:    node.EndByte(),
		ParentName: enclosingContainerName(node, source),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		if r, ok := innerBlockRange(body, source); ok {
			raw.BodyRange = &r
		}
	}
	if kind == core.KindEnum {
		raw.Extra = map[string]any{core.ExtraEnumMembers: enumMembers(node, source)}
	}
	return []base.Raw{raw}
}

func (c *config) handleCallable(kind core.ElementKind, match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	nameNode := match["name"]
	if nameNode == nil {
		return nil
	}

	parentName := ""
	if kind == core.KindMethod {
		parentName = enclosingContainerName(node, source)
		if parentName == "" {
			// method_signature in a bare object type has no owner here.
			return nil
		}
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
		Static:     hasChildOfType(node, "static"),
		Async:      hasChildOfType(node, "async"),
		Params:     c.parameters(node, source),
		ReturnType: annotationText(node.ChildByFieldName("return_type"), source),
	}

	switch {
	case hasChildOfType(node, "get"):
		raw.Kind = core.KindPropertyGetter
		raw.Accessor = "get"
	case hasChildOfType(node, "set"):
		raw.Kind = core.KindPropertySetter
		raw.Accessor = "set"
	}

	if body := node.ChildByFieldName("body"); body != nil {
		if r, ok := innerBlockRange(body, source); ok {
			raw.BodyRange = &r
		}
	}
	return []base.Raw{raw}
}

func (c *config) handleProperty(match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	nameNode := match["name"]
	if nameNode == nil {
		return nil
	}
	parentName := enclosingContainerName(node, source)
	if parentName == "" {
		return nil
	}

	kind := core.KindProperty
	if hasChildOfType(node, "static") {
		kind = core.KindStaticProperty
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
		ValueType:  annotationText(node.ChildByFieldName("type"), source),
	}
	if value := node.ChildByFieldName("value"); value != nil {
		r := parser.NodeRange(value)
		raw.BodyRange = &r
	}
	return []base.Raw{raw}
}

func (c *config) handleTypeAlias(match parser.QueryMatch, source []byte) []base.Raw {
	node := match["element"]
	nameNode := match["name"]
	if nameNode == nil {
		return nil
	}
	return []base.Raw{{
		Kind:      core.KindTypeAlias,
		Name:      parser.NodeText(nameNode, source),
		Content:   parser.NodeText(node, source),
		Range:     parser.NodeRange(node),
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
		ValueType: annotationText(node.ChildByFieldName("value"), source),
	}}
}

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

// parameters reads formal_parameters, covering required and optional
// forms with annotations and defaults.
func (c *config) parameters(fn *sitter.Node, source []byte) []base.RawParam {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []base.RawParam
	idx := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		if child.Type() != "required_parameter" && child.Type() != "optional_parameter" {
			continue
		}
		p := base.RawParam{Index: idx, Optional: child.Type() == "optional_parameter"}
		if pat := child.ChildByFieldName("pattern"); pat != nil {
			p.Name = parser.NodeText(pat, source)
		}
		p.Type = annotationText(child.ChildByFieldName("type"), source)
		if v := child.ChildByFieldName("value"); v != nil {
			p.Default = parser.NodeText(v, source)
			p.Optional = true
		}
		if p.Name == "" {
			continue
		}
		out = append(out, p)
		idx++
	}
	return out
}

// declarationStart skips leading decorator children so the default range
// excludes them.
func declarationStart(node *sitter.Node) uint32 {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "decorator" {
			continue
		}
		return child.StartByte()
	}
	return node.StartByte()
}

// innerBlockRange narrows a braced block to its statements, dropping the
// brace tokens themselves.
func innerBlockRange(block *sitter.Node, source []byte) (core.Range, bool) {
	count := int(block.NamedChildCount())
	if count == 0 {
		return core.Range{}, false
	}
	return base.SpanBetween(source, block.NamedChild(0), block.NamedChild(count-1)), true
}

func enumMembers(node *sitter.Node, source []byte) []string {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var members []string
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "property_identifier":
			members = append(members, parser.NodeText(child, source))
		case "enum_assignment":
			if n := child.ChildByFieldName("name"); n != nil {
				members = append(members, parser.NodeText(n, source))
			}
		}
	}
	return members
}

// annotationText strips the leading ":" a type_annotation node carries.
func annotationText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	text := parser.NodeText(node, source)
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), ":"))
	return text
}

func enclosingContainerName(node *sitter.Node, source []byte) string {
	anc := parser.FindFirstAncestor(node, containerTypes)
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
