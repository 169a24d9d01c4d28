package parser

import (
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
)

// QueryMatch maps capture names to the nodes they bound in one match.
type QueryMatch map[string]*sitter.Node

// Navigator executes queries against parsed trees and resolves node text
// and ranges. Compiled queries are cached per (language, pattern).
type Navigator struct {
	mu      sync.Mutex
	queries *lru.Cache[string, *sitter.Query]
}

// NewNavigator creates a navigator with a bounded compiled-query cache.
func NewNavigator() *Navigator {
	cache, _ := lru.NewWithEvict[string, *sitter.Query](DefaultCacheSize, func(_ string, q *sitter.Query) {
		q.Close()
	})
	return &Navigator{queries: cache}
}

func (n *Navigator) compile(langCode string, lang *sitter.Language, pattern string) (*sitter.Query, error) {
	key := langCode + ":" + core.ContentHash([]byte(pattern))

	n.mu.Lock()
	defer n.mu.Unlock()

	if q, ok := n.queries.Get(key); ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, core.PluginError(langCode, "invalid query: "+err.Error())
	}
	n.queries.Add(key, q)
	return q, nil
}

// ExecuteQuery runs a query pattern over the tree and returns one
// QueryMatch per match, ordered by source position of the earliest
// capture. Matches are paired in source order, never capture order.
func (n *Navigator) ExecuteQuery(langCode string, lang *sitter.Language, tree *sitter.Tree, source []byte, pattern string) ([]QueryMatch, error) {
	q, err := n.compile(langCode, lang, pattern)
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var matches []QueryMatch
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}
		match := make(QueryMatch, len(m.Captures))
		for _, c := range m.Captures {
			match[q.CaptureNameForId(c.Index)] = c.Node
		}
		matches = append(matches, match)
	}

	slices.SortStableFunc(matches, func(a, b QueryMatch) int {
		return int(minStartByte(a)) - int(minStartByte(b))
	})
	return matches, nil
}

func minStartByte(m QueryMatch) uint32 {
	first := true
	var min uint32
	for _, node := range m {
		if first || node.StartByte() < min {
			min = node.StartByte()
			first = false
		}
	}
	return min
}

// NodeText returns the exact source slice a node spans.
func NodeText(node *sitter.Node, source []byte) string {
	return node.Content(source)
}

// NodeRange converts tree-sitter's 0-based coordinates to the engine's
// 1-based inclusive range.
func NodeRange(node *sitter.Node) core.Range {
	start := node.StartPoint()
	end := node.EndPoint()
	r := core.Range{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
	// A node ending at column 0 stops at the previous line's newline.
	if end.Column == 0 && r.EndLine > r.StartLine {
		r.EndLine--
		r.EndCol = -1 // unknown, caller derives from line text
	}
	if r.EndCol < 0 {
		r.EndCol = 0
	}
	return r
}

// LineRange returns the node's 1-based start and end lines.
func LineRange(node *sitter.Node) (int, int) {
	r := NodeRange(node)
	return r.StartLine, r.EndLine
}

// FindFirstAncestor walks parents until one of the wanted node types is
// found, or returns nil at the root.
func FindFirstAncestor(node *sitter.Node, kinds []string) *sitter.Node {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		if slices.Contains(kinds, cur.Type()) {
			return cur
		}
	}
	return nil
}

// HasErrorNodes reports whether any ERROR node, or any MISSING node the
// grammar inserted to recover, appears in the subtree. Extraction
// tolerates these; callers use it for diagnostics only.
func HasErrorNodes(node *sitter.Node) bool {
	if node.Type() == "ERROR" || node.IsMissing() {
		return true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if HasErrorNodes(node.Child(i)) {
			return true
		}
	}
	return false
}
