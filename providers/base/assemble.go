package base

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/termfx/codehem/core"
)

// Option adjusts assembly behavior.
type Option func(*assembler)

// WithReclassify installs a language hook that runs on every element
// after decorators are attached. Python uses it to turn @property
// methods into property_getter / property_setter elements.
func WithReclassify(fn func(e *core.Element)) Option {
	return func(a *assembler) { a.reclassify = fn }
}

type assembler struct {
	lang       string
	reclassify func(e *core.Element)
}

// Assemble folds raw records into the typed element tree: imports merge
// into one synthetic element, decorators attach to the element that
// follows them, members nest under their containers with parent names
// set, and children come out in declaration order.
func Assemble(lang string, records []Raw, opts ...Option) *core.ElementTree {
	a := &assembler{lang: lang}
	for _, opt := range opts {
		opt(a)
	}
	return a.run(records)
}

type built struct {
	raw  Raw
	elem *core.Element
}

func (a *assembler) run(records []Raw) *core.ElementTree {
	slices.SortStableFunc(records, func(x, y Raw) int {
		return int(x.StartByte) - int(y.StartByte)
	})

	var imports []Raw
	var decorators []Raw
	var rest []built
	for _, r := range records {
		switch r.Kind {
		case core.KindImport:
			imports = append(imports, r)
		case core.KindDecorator:
			decorators = append(decorators, r)
		default:
			if !core.IsValidKind(r.Kind) {
				slog.Debug("dropping record with unknown kind", "lang", a.lang, "kind", r.Kind, "name", r.Name)
				continue
			}
			rest = append(rest, built{raw: r, elem: a.build(r)})
		}
	}

	a.attachDecorators(rest, decorators)
	if a.reclassify != nil {
		for _, b := range rest {
			a.reclassify(b.elem)
		}
	}

	tree := &core.ElementTree{Language: a.lang}
	if imp := foldImports(imports); imp != nil {
		tree.Elements = append(tree.Elements, imp)
	}
	tree.Elements = append(tree.Elements, a.nest(rest)...)

	sortByLine(tree.Elements)
	return tree
}

// build converts one raw record into an element with parameter and
// return-value children.
func (a *assembler) build(r Raw) *core.Element {
	e := &core.Element{
		Kind:       r.Kind,
		Name:       r.Name,
		Content:    r.Content,
		Range:      r.Range,
		ParentName: r.ParentName,
		ValueType:  r.ValueType,
	}
	extra := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		extra[k] = v
	}
	if r.BodyRange != nil {
		extra[core.ExtraBodyRange] = *r.BodyRange
	}
	if r.Static {
		extra[core.ExtraStatic] = true
	}
	if r.Async {
		extra[core.ExtraAsync] = true
	}
	if len(extra) > 0 {
		e.Extra = extra
	}

	for _, p := range r.Params {
		param := &core.Element{
			Kind:       core.KindParameter,
			Name:       p.Name,
			ValueType:  p.Type,
			ParentName: r.Name,
		}
		if p.Default != "" || p.Optional {
			param.Extra = map[string]any{}
			if p.Default != "" {
				param.Extra[core.ExtraDefault] = p.Default
			}
			if p.Optional {
				param.Extra[core.ExtraOptional] = true
			}
		}
		e.Children = append(e.Children, param)
	}
	if r.ReturnType != "" {
		e.Children = append(e.Children, &core.Element{
			Kind:       core.KindReturnValue,
			Name:       r.Name,
			ValueType:  r.ReturnType,
			ParentName: r.Name,
		})
	}
	return e
}

// nest attaches each element to the smallest container that strictly
// contains it. Records nested inside callables (local classes, inner
// defs) do not surface in the tree.
func (a *assembler) nest(items []built) []*core.Element {
	var top []*core.Element
	for i := range items {
		cur := &items[i]
		ownerIdx := -1
		for j := range items {
			if i == j {
				continue
			}
			cand := &items[j]
			if !strictlyContains(cand.raw, cur.raw) {
				continue
			}
			if ownerIdx == -1 || strictlyContains(items[ownerIdx].raw, cand.raw) {
				ownerIdx = j
			}
		}

		if ownerIdx == -1 {
			top = append(top, cur.elem)
			continue
		}
		owner := &items[ownerIdx]
		if !owner.raw.isContainer() {
			slog.Debug("dropping element nested in callable", "lang", a.lang, "name", cur.raw.Name)
			continue
		}
		cur.elem.ParentName = owner.elem.Name
		owner.elem.Children = append(owner.elem.Children, cur.elem)
	}

	for i := range items {
		sortByLine(items[i].elem.Children)
	}
	return top
}

func strictlyContains(outer, inner Raw) bool {
	if outer.StartByte == inner.StartByte && outer.EndByte == inner.EndByte {
		return false
	}
	return outer.StartByte <= inner.StartByte && inner.EndByte <= outer.EndByte
}

// attachDecorators groups decorator records into contiguous blocks and
// hangs each block on the element whose first line immediately follows.
func (a *assembler) attachDecorators(items []built, decorators []Raw) {
	if len(decorators) == 0 {
		return
	}
	slices.SortStableFunc(decorators, func(x, y Raw) int {
		return x.Range.StartLine - y.Range.StartLine
	})

	byStartLine := make(map[int]*built)
	for i := range items {
		b := &items[i]
		if existing, ok := byStartLine[b.elem.Range.StartLine]; ok {
			// Prefer the innermost element on that line (a decorated
			// method over its enclosing class on weird one-liners).
			if b.raw.StartByte > existing.raw.StartByte {
				byStartLine[b.elem.Range.StartLine] = b
			}
			continue
		}
		byStartLine[b.elem.Range.StartLine] = b
	}

	var block []Raw
	flush := func() {
		if len(block) == 0 {
			return
		}
		owner, ok := byStartLine[block[len(block)-1].Range.EndLine+1]
		if !ok {
			slog.Debug("decorator block with no following element", "lang", a.lang, "line", block[0].Range.StartLine)
			block = nil
			return
		}
		for _, d := range block {
			owner.elem.Decorators = append(owner.elem.Decorators, &core.Element{
				Kind:       core.KindDecorator,
				Name:       d.Name,
				Content:    d.Content,
				Range:      d.Range,
				ParentName: owner.elem.Name,
			})
		}
		if owner.elem.Extra == nil {
			owner.elem.Extra = map[string]any{}
		}
		owner.elem.Extra[core.ExtraDecoratorTop] = block[0].Range.StartLine
		block = nil
	}

	for _, d := range decorators {
		if len(block) > 0 && d.Range.StartLine > block[len(block)-1].Range.EndLine+1 {
			flush()
		}
		block = append(block, d)
	}
	flush()
}

// foldImports merges all physical import records into the single
// synthetic element the path "imports" resolves to.
func foldImports(imports []Raw) *core.Element {
	if len(imports) == 0 {
		return nil
	}
	slices.SortStableFunc(imports, func(x, y Raw) int {
		return int(x.StartByte) - int(y.StartByte)
	})

	contents := make([]string, len(imports))
	for i, imp := range imports {
		contents[i] = imp.Content
	}
	return &core.Element{
		Kind:    core.KindImport,
		Name:    "",
		Content: strings.Join(contents, "\n"),
		Range: core.Range{
			StartLine: imports[0].Range.StartLine,
			StartCol:  imports[0].Range.StartCol,
			EndLine:   imports[len(imports)-1].Range.EndLine,
			EndCol:    imports[len(imports)-1].Range.EndCol,
		},
		Extra: map[string]any{core.ExtraImportCount: len(imports)},
	}
}

func sortByLine(es []*core.Element) {
	slices.SortStableFunc(es, func(x, y *core.Element) int {
		if x.Range.StartLine != y.Range.StartLine {
			return x.Range.StartLine - y.Range.StartLine
		}
		return x.Range.StartCol - y.Range.StartCol
	})
}
