package formatter

import "strings"

// IndentFormatter handles languages where a suite indented one level
// deeper than its header forms a block, introduced by a trailing ":".
type IndentFormatter struct {
	Unit string
}

func (f *IndentFormatter) Family() Family {
	return IndentFamily
}

func (f *IndentFormatter) IndentUnit() string {
	if f.Unit == "" {
		return "    "
	}
	return f.Unit
}

func (f *IndentFormatter) BlockToken() string {
	return ":"
}

// Normalize dedents the fragment to column zero, then indents every
// non-empty line by the target prefix. Relative indentation inside the
// fragment survives; whitespace-only lines come out empty.
func (f *IndentFormatter) Normalize(fragment, targetIndent string) string {
	trimmed := strings.TrimRight(fragment, "\n\r")
	if strings.TrimSpace(trimmed) == "" {
		return ""
	}
	return reindent(dedent(trimmed), targetIndent)
}
