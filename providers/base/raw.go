// Package base carries the shared half of the extraction pipeline: raw
// element records emitted by per-language extractors and the
// post-processing that folds them into a typed element tree.
package base

import (
	"github.com/termfx/codehem/core"
)

// RawParam is a parameter sub-record produced by an extractor.
type RawParam struct {
	Name     string
	Type     string
	Default  string
	Optional bool
	Index    int
}

// Raw is one element record straight out of a language's queries. Byte
// offsets come from tree-sitter; ranges are already 1-based.
type Raw struct {
	Kind       core.ElementKind
	Name       string
	Content    string
	Range      core.Range
	StartByte  uint32
	EndByte    uint32
	ParentName string
	ValueType  string
	Static     bool
	Async      bool
	Accessor   string // "get" or "set" when the grammar marks accessors
	BodyRange  *core.Range
	ReturnType string
	Params     []RawParam
	Extra      map[string]any
}

// isContainer reports whether the record can own member records.
func (r *Raw) isContainer() bool {
	switch r.Kind {
	case core.KindClass, core.KindInterface, core.KindEnum, core.KindNamespace:
		return true
	}
	return false
}
