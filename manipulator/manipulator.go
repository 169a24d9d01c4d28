// Package manipulator rewrites source buffers at element boundaries:
// replace, prepend and append against a resolved path, with hash-based
// conflict detection and unified diffs for dry runs.
package manipulator

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/formatter"
	"github.com/termfx/codehem/providers"
	"github.com/termfx/codehem/resolver"
)

// Options tune a single apply call.
type Options struct {
	// OriginalHash enables optimistic concurrency: a mismatch against the
	// currently computed fragment hash aborts with a write conflict.
	OriginalHash string
	// DryRun computes the result and diff without committing the buffer.
	DryRun bool
	// IncludeExtra widens the resolved range over attached decorators.
	IncludeExtra bool
}

// Apply resolves the path in source and splices newCode according to
// mode. It returns the structured result and the modified buffer; on a
// dry run the buffer is the would-be result.
func Apply(svc providers.Service, source []byte, pathExpr, newCode string, mode core.PatchMode, opts Options) (core.PatchResult, []byte, error) {
	if !core.ValidMode(mode) {
		err := core.ValidationError("unknown mode " + string(mode))
		return core.ErrorResult(err), nil, err
	}
	if strings.TrimSpace(newCode) == "" {
		err := core.ValidationError("new code is empty")
		return core.ErrorResult(err), nil, err
	}

	tree, err := svc.Extract(source)
	if err != nil {
		return core.ErrorResult(err), nil, err
	}
	res, err := resolver.Resolve(tree, source, pathExpr, resolver.Options{IncludeExtra: opts.IncludeExtra})
	if err != nil {
		return core.ErrorResult(err), nil, err
	}

	if opts.OriginalHash != "" && opts.OriginalHash != res.Hash {
		err := core.WriteConflictError(pathExpr, opts.OriginalHash, res.Hash)
		return core.ErrorResult(err), nil, err
	}

	modified, added, removed := splice(svc, source, res.Range, newCode, mode)

	result := core.PatchResult{
		Status:       "ok",
		LinesAdded:   added,
		LinesRemoved: removed,
		ModifiedCode: string(modified),
		Ambiguous:    res.Ambiguous,
		NewHash:      recomputeHash(svc, modified, pathExpr, newCode),
	}
	if opts.DryRun {
		result.Diff = unifiedDiff(string(source), string(modified))
	}
	return result, modified, nil
}

// splice produces the new buffer. Elements embedded in a line with other
// code splice at byte precision; everything else works on whole lines so
// indentation carries over.
func splice(svc providers.Service, source []byte, r core.Range, newCode string, mode core.PatchMode) ([]byte, int, int) {
	lines := strings.SplitAfter(string(source), "\n")
	startLine := clampLine(r.StartLine, len(lines))
	endLine := clampLine(r.EndLine, len(lines))

	if isInline(lines, r) {
		return spliceInline(source, lines, r, newCode, mode)
	}

	f := providers.FormatterFor(svc)
	indent := lineIndent(lines[startLine-1])
	ending := formatter.LineEnding(string(source))
	normalized := formatter.ApplyLineEnding(f.Normalize(newCode, indent), ending)
	normalized = normalizedWithEnding(normalized, ending)

	newLines := strings.SplitAfter(normalized, "\n")
	if newLines[len(newLines)-1] == "" {
		newLines = newLines[:len(newLines)-1]
	}

	var out []string
	var added, removed int
	switch mode {
	case core.ModeReplace:
		out = append(out, lines[:startLine-1]...)
		out = append(out, newLines...)
		out = append(out, lines[endLine:]...)
		added = len(newLines)
		removed = endLine - startLine + 1
	case core.ModePrepend:
		out = append(out, lines[:startLine-1]...)
		out = append(out, newLines...)
		out = append(out, lines[startLine-1:]...)
		added = len(newLines)
	case core.ModeAppend:
		out = append(out, lines[:endLine]...)
		if !strings.HasSuffix(lines[endLine-1], "\n") {
			// Element ended the file without a newline; give it one so
			// the appended lines start cleanly.
			out[len(out)-1] += ending
		}
		out = append(out, newLines...)
		out = append(out, lines[endLine:]...)
		added = len(newLines)
	}
	return []byte(strings.Join(out, "")), added, removed
}

// spliceInline handles elements that share their line with surrounding
// code, e.g. methods of a single-line class body.
func spliceInline(source []byte, lines []string, r core.Range, newCode string, mode core.PatchMode) ([]byte, int, int) {
	start := offsetOf(lines, r.StartLine, r.StartCol)
	end := offsetOf(lines, r.EndLine, r.EndCol+1)
	fragment := strings.TrimSpace(newCode)

	var out string
	switch mode {
	case core.ModeReplace:
		out = string(source[:start]) + fragment + string(source[end:])
	case core.ModePrepend:
		out = string(source[:start]) + fragment + " " + string(source[start:])
	case core.ModeAppend:
		out = string(source[:end]) + " " + fragment + string(source[end:])
	}
	added := strings.Count(fragment, "\n") + 1
	removed := 0
	if mode == core.ModeReplace {
		removed = r.EndLine - r.StartLine + 1
	}
	return []byte(out), added, removed
}

// recomputeHash re-extracts the modified buffer and hashes the fragment
// now living at the path. When the fresh parse cannot see the path (for
// example after replacing a whole element with a differently named one)
// the hash of the inserted code stands in.
func recomputeHash(svc providers.Service, modified []byte, pathExpr, newCode string) string {
	if tree, err := svc.Extract(modified); err == nil {
		if res, err := resolver.Resolve(tree, modified, pathExpr, resolver.Options{}); err == nil {
			return res.Hash
		}
	}
	return core.FragmentHash(newCode)
}

func unifiedDiff(original, modified string) string {
	if original == modified {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "original",
		ToFile:   "modified",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// isInline reports whether the range shares its first or last line with
// other code.
func isInline(lines []string, r core.Range) bool {
	if r.StartLine < 1 || r.StartLine > len(lines) {
		return false
	}
	startLine := strings.TrimRight(lines[r.StartLine-1], "\r\n")
	if r.StartCol > 1 {
		before := startLine[:min(r.StartCol-1, len(startLine))]
		if strings.TrimSpace(before) != "" {
			return true
		}
	}
	if r.EndLine >= 1 && r.EndLine <= len(lines) && r.EndCol > 0 {
		endLine := strings.TrimRight(lines[r.EndLine-1], "\r\n")
		if r.EndCol < len(endLine) && strings.TrimSpace(endLine[r.EndCol:]) != "" {
			return true
		}
	}
	return false
}

func lineIndent(line string) string {
	for i, ch := range line {
		if ch != ' ' && ch != '\t' {
			return line[:i]
		}
	}
	return strings.TrimRight(line, "\r\n")
}

// normalizedWithEnding guarantees the fragment terminates with exactly
// one newline in the file's style.
func normalizedWithEnding(fragment, ending string) string {
	return strings.TrimRight(fragment, "\r\n") + ending
}

func clampLine(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// offsetOf converts a 1-based (line, col) position into a byte offset.
func offsetOf(lines []string, line, col int) int {
	off := 0
	for i := 0; i < line-1 && i < len(lines); i++ {
		off += len(lines[i])
	}
	if line-1 < len(lines) {
		off += min(col-1, len(lines[line-1]))
	}
	return off
}
