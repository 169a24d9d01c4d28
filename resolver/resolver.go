package resolver

import (
	"strings"

	"github.com/termfx/codehem/core"
)

// Result is a fully resolved path: the element, the effective sub-range,
// its exact text and the fragment hash over it. Resolution is total; a
// partial match never produces a Result.
type Result struct {
	Element   *core.Element
	Range     core.Range
	Content   string
	Hash      string
	Ambiguous bool
}

// Options tune resolution.
type Options struct {
	// IncludeExtra widens [def] ranges to span attached decorators.
	IncludeExtra bool
}

// Kinds without a kind tag resolve in this preference order before
// falling back to declaration order.
var preference = []core.ElementKind{
	core.KindMethod,
	core.KindProperty,
	core.KindPropertyGetter,
	core.KindPropertySetter,
	core.KindStaticProperty,
	core.KindClass,
}

// Resolve maps a path expression onto an element of the tree and
// computes the requested sub-range over the original source buffer.
func Resolve(tree *core.ElementTree, source []byte, expr string, opts Options) (*Result, error) {
	path, err := Parse(expr)
	if err != nil {
		return nil, err
	}

	if path.wantsImports() {
		imp := tree.Imports()
		if imp == nil {
			return nil, core.ElementNotFoundError(expr)
		}
		return &Result{
			Element: imp,
			Range:   imp.Range,
			Content: imp.Content,
			Hash:    core.FragmentHash(imp.Content),
		}, nil
	}

	elem, ambiguous, err := walk(tree, path, expr)
	if err != nil {
		return nil, err
	}

	res := &Result{Element: elem, Ambiguous: ambiguous}
	switch path.Tag {
	case "body":
		body, ok := elem.BodyRange()
		if !ok {
			return nil, core.ElementNotFoundError(expr)
		}
		res.Range = body
		res.Content = SliceRange(source, body)
	case "", "def":
		res.Range = elem.Range
		res.Content = elem.Content
		if opts.IncludeExtra && len(elem.Decorators) > 0 {
			res.Range = elem.DecoratedRange()
			res.Content = SliceRange(source, res.Range)
		}
	default:
		// Kind tags already filtered during the walk.
		res.Range = elem.Range
		res.Content = elem.Content
	}
	res.Hash = core.FragmentHash(res.Content)
	return res, nil
}

// walk descends segment by segment. The final segment honors the kind
// tag; intermediate segments choose among same-named children by the
// same preference order as an untagged final segment.
func walk(tree *core.ElementTree, path Path, expr string) (*core.Element, bool, error) {
	var current *core.Element
	ambiguous := false

	for i, seg := range path.Segments {
		last := i == len(path.Segments)-1
		var candidates []*core.Element
		if current == nil {
			candidates = tree.Roots(seg)
		} else {
			candidates = current.ChildrenNamed(seg)
		}
		if len(candidates) == 0 {
			return nil, false, core.ElementNotFoundError(expr)
		}

		var tag string
		if last {
			tag = kindFilter(path.Tag)
		}
		chosen, amb := choose(candidates, tag)
		if chosen == nil {
			return nil, false, core.ElementNotFoundError(expr)
		}
		ambiguous = ambiguous || amb
		current = chosen
	}
	return current, ambiguous, nil
}

// kindFilter returns the element kind a tag filters on, or "" for the
// range-selector tags.
func kindFilter(tag string) string {
	switch tag {
	case "", "def", "body", "imports":
		return ""
	}
	return tag
}

// choose picks among same-named candidates. With a kind tag, only that
// kind qualifies. Without one, the preference order decides between
// kinds; duplicates within the chosen kind resolve to the last declared
// and flag the result as ambiguous.
func choose(candidates []*core.Element, kind string) (*core.Element, bool) {
	if kind != "" {
		var matching []*core.Element
		for _, c := range candidates {
			if string(c.Kind) == kind {
				matching = append(matching, c)
			}
		}
		return lastOf(matching), len(matching) > 1
	}

	if len(candidates) == 1 {
		return candidates[0], false
	}

	for _, pref := range preference {
		var matching []*core.Element
		for _, c := range candidates {
			if c.Kind == pref {
				matching = append(matching, c)
			}
		}
		if len(matching) > 0 {
			return lastOf(matching), true
		}
	}
	return lastOf(candidates), true
}

func lastOf(es []*core.Element) *core.Element {
	if len(es) == 0 {
		return nil
	}
	return es[len(es)-1]
}

// SliceRange extracts the exact text a 1-based inclusive range spans,
// preserving the buffer's own line endings.
func SliceRange(source []byte, r core.Range) string {
	lines := strings.SplitAfter(string(source), "\n")
	if r.StartLine < 1 || r.StartLine > len(lines) {
		return ""
	}
	end := r.EndLine
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for ln := r.StartLine; ln <= end; ln++ {
		line := lines[ln-1]
		start := 0
		stop := len(line)
		if ln == r.StartLine && r.StartCol > 1 {
			start = min(r.StartCol-1, stop)
		}
		if ln == end {
			// EndCol is the inclusive last column; 0 means whole line.
			content := strings.TrimRight(line, "\r\n")
			stop = len(content)
			if r.EndCol > 0 && r.EndCol < len(content) {
				stop = r.EndCol
			}
		}
		if start > stop {
			start = stop
		}
		b.WriteString(line[start:stop])
		if ln < end {
			// Intermediate lines keep their own endings.
			b.WriteString(line[stop:])
		}
	}
	return b.String()
}
