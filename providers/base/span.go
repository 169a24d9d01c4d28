package base

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/parser"
)

// Span returns a node's content and range, widened to the start of its
// line when nothing but indentation precedes it. Whole-line spans keep
// the leading indent inside the content, which is what the formatter
// needs to round-trip fragments.
func Span(source []byte, node *sitter.Node) (string, core.Range) {
	return spanFrom(source, node.StartByte(), node)
}

// SpanFrom behaves like Span but starts at an explicit byte offset
// inside the node (used to skip leading decorator children).
func SpanFrom(source []byte, startByte uint32, node *sitter.Node) (string, core.Range) {
	return spanFrom(source, startByte, node)
}

func spanFrom(source []byte, startByte uint32, node *sitter.Node) (string, core.Range) {
	r := parser.NodeRange(node)
	if startByte != node.StartByte() {
		line, col := pointAt(source, startByte)
		r.StartLine = line
		r.StartCol = col
	}

	start := int(startByte)
	lineStart := lineStartOffset(source, start)
	if allWhitespace(source[lineStart:start]) {
		start = lineStart
		r.StartCol = 1
	}
	return string(source[start:node.EndByte()]), r
}

// SpanBetween returns the widened range covering first through last.
func SpanBetween(source []byte, first, last *sitter.Node) core.Range {
	r := core.Range{
		StartLine: int(first.StartPoint().Row) + 1,
		StartCol:  int(first.StartPoint().Column) + 1,
		EndLine:   int(last.EndPoint().Row) + 1,
		EndCol:    int(last.EndPoint().Column),
	}
	start := int(first.StartByte())
	lineStart := lineStartOffset(source, start)
	if allWhitespace(source[lineStart:start]) {
		r.StartCol = 1
	}
	return r
}

func lineStartOffset(source []byte, from int) int {
	for i := from - 1; i >= 0; i-- {
		if source[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func allWhitespace(b []byte) bool {
	for _, ch := range b {
		if ch != ' ' && ch != '\t' {
			return false
		}
	}
	return true
}

func pointAt(source []byte, offset uint32) (line, col int) {
	line = 1
	col = 1
	for i := uint32(0); i < offset && int(i) < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
