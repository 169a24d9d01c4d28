package core

import (
	"fmt"
	"strings"
)

// ElementKind identifies the type of a code element. The set is closed;
// plug-ins map their grammar's node types onto these kinds.
type ElementKind string

const (
	KindClass          ElementKind = "class"
	KindInterface      ElementKind = "interface"
	KindFunction       ElementKind = "function"
	KindMethod         ElementKind = "method"
	KindProperty       ElementKind = "property"
	KindPropertyGetter ElementKind = "property_getter"
	KindPropertySetter ElementKind = "property_setter"
	KindStaticProperty ElementKind = "static_property"
	KindImport         ElementKind = "import"
	KindTypeAlias      ElementKind = "type_alias"
	KindEnum           ElementKind = "enum"
	KindNamespace      ElementKind = "namespace"
	KindDecorator      ElementKind = "decorator"
	KindParameter      ElementKind = "parameter"
	KindReturnValue    ElementKind = "return_value"
	KindMetaElement    ElementKind = "meta_element"
)

var validKinds = map[ElementKind]bool{
	KindClass: true, KindInterface: true, KindFunction: true, KindMethod: true,
	KindProperty: true, KindPropertyGetter: true, KindPropertySetter: true,
	KindStaticProperty: true, KindImport: true, KindTypeAlias: true,
	KindEnum: true, KindNamespace: true, KindDecorator: true,
	KindParameter: true, KindReturnValue: true, KindMetaElement: true,
}

// IsValidKind reports whether k belongs to the closed kind enumeration.
func IsValidKind(k ElementKind) bool {
	return validKinds[k]
}

// Range locates an element in source. All coordinates are 1-based and
// lines are inclusive on both ends.
type Range struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Contains reports whether r fully contains other.
func (r Range) Contains(other Range) bool {
	if other.StartLine < r.StartLine || other.EndLine > r.EndLine {
		return false
	}
	if other.StartLine == r.StartLine && other.StartCol < r.StartCol {
		return false
	}
	if other.EndLine == r.EndLine && other.EndCol > r.EndCol {
		return false
	}
	return true
}

// Overlaps reports whether two ranges share any line without one
// containing the other.
func (r Range) Overlaps(other Range) bool {
	if r.Contains(other) || other.Contains(r) {
		return false
	}
	return r.StartLine <= other.EndLine && other.StartLine <= r.EndLine
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// Element is an immutable snapshot of a typed, ranged piece of source.
// Kind-specific payload lives in Extra rather than in subtypes.
type Element struct {
	Kind       ElementKind    `json:"kind"`
	Name       string         `json:"name"`
	Content    string         `json:"content"`
	Range      Range          `json:"range"`
	ParentName string         `json:"parent_name,omitempty"`
	ValueType  string         `json:"value_type,omitempty"`
	Decorators []*Element     `json:"decorators,omitempty"`
	Children   []*Element     `json:"children,omitempty"`
	Extra      map[string]any `json:"additional_data,omitempty"`
}

// Well-known Extra keys produced by the extractors.
const (
	ExtraBodyRange    = "body_range"    // Range of the callable body / property initializer
	ExtraDefault      = "default"       // parameter default value expression
	ExtraOptional     = "optional"      // parameter optional flag
	ExtraStatic       = "static"        // static modifier on methods
	ExtraAsync        = "async"         // async modifier on callables
	ExtraEnumMembers  = "members"       // enum member names in declaration order
	ExtraImportCount  = "import_count"  // physical import statements folded in
	ExtraDecoratorTop = "decorator_top" // first line of the attached decorator block
)

// BodyRange returns the body sub-range recorded by the extractor, if any.
func (e *Element) BodyRange() (Range, bool) {
	if e.Extra == nil {
		return Range{}, false
	}
	r, ok := e.Extra[ExtraBodyRange].(Range)
	return r, ok
}

// DecoratedRange returns the element range widened to span the attached
// decorator block. Without decorators it equals Range.
func (e *Element) DecoratedRange() Range {
	r := e.Range
	for _, d := range e.Decorators {
		if d.Range.StartLine < r.StartLine {
			r.StartLine = d.Range.StartLine
			r.StartCol = d.Range.StartCol
		}
	}
	return r
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all children sharing the given name in
// declaration order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// IsCallable reports whether the element kind owns a body suite.
func (e *Element) IsCallable() bool {
	switch e.Kind {
	case KindFunction, KindMethod, KindPropertyGetter, KindPropertySetter:
		return true
	}
	return false
}

// ElementTree is the forest of elements extracted from one file, rooted
// implicitly at file scope.
type ElementTree struct {
	Language string     `json:"language"`
	Elements []*Element `json:"elements"`
}

// Imports returns the synthetic import element, or nil when the file has
// no imports.
func (t *ElementTree) Imports() *Element {
	for _, e := range t.Elements {
		if e.Kind == KindImport {
			return e
		}
	}
	return nil
}

// Roots returns the top-level elements matching name. The synthetic
// import element matches the reserved name "imports".
func (t *ElementTree) Roots(name string) []*Element {
	var out []*Element
	for _, e := range t.Elements {
		if e.Kind == KindImport && name == "imports" {
			out = append(out, e)
			continue
		}
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Walk visits every element in the tree depth-first, decorators excluded.
func (t *ElementTree) Walk(fn func(e *Element)) {
	var visit func(es []*Element)
	visit = func(es []*Element) {
		for _, e := range es {
			fn(e)
			visit(e.Children)
		}
	}
	visit(t.Elements)
}

// Summary renders a compact kind/name/range listing used by the CLI.
func (t *ElementTree) Summary() string {
	var b strings.Builder
	var visit func(es []*Element, depth int)
	visit = func(es []*Element, depth int) {
		for _, e := range es {
			name := e.Name
			if name == "" {
				name = "<" + string(e.Kind) + ">"
			}
			fmt.Fprintf(&b, "%s%s %s [%d-%d]\n",
				strings.Repeat("  ", depth), e.Kind, name,
				e.Range.StartLine, e.Range.EndLine)
			visit(e.Children, depth+1)
		}
	}
	visit(t.Elements, 0)
	return b.String()
}
