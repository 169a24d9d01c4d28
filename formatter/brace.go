package formatter

import "strings"

// BraceFormatter handles languages that delimit blocks with "{" and "}".
// The opening brace stays on the header line; inner lines shift to the
// target indent.
type BraceFormatter struct {
	Unit string
}

func (f *BraceFormatter) Family() Family {
	return BraceFamily
}

func (f *BraceFormatter) IndentUnit() string {
	if f.Unit == "" {
		return "  "
	}
	return f.Unit
}

func (f *BraceFormatter) BlockToken() string {
	return "{"
}

// Normalize dedents the fragment to column zero and applies the target
// indent to every non-empty line, preserving relative structure.
func (f *BraceFormatter) Normalize(fragment, targetIndent string) string {
	trimmed := strings.TrimRight(fragment, "\n\r")
	if strings.TrimSpace(trimmed) == "" {
		return ""
	}
	return reindent(dedent(trimmed), targetIndent)
}
