// Package providers defines the language plug-in contract and the
// registry the core uses to find a service for a buffer or file.
package providers

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/formatter"
)

// Service is the full capability set a language plug-in registers:
// grammar binding, extraction pipeline, formatter family and manipulator
// configuration. Adding a language means implementing this interface;
// the core never grows language-specific branches.
type Service interface {
	// Code is the canonical language identifier, e.g. "python".
	Code() string
	// Aliases are alternative identifiers resolving to this service.
	Aliases() []string
	// Extensions lists file extensions (with dot) this service claims.
	Extensions() []string
	// Grammar returns the tree-sitter language binding.
	Grammar() *sitter.Language
	// Family selects the formatter and block discipline.
	Family() formatter.Family
	// Extract runs the full extraction pipeline on a source buffer.
	Extract(source []byte) (*core.ElementTree, error)
	// Sniff reports whether the leading bytes of a buffer look like this
	// language. Used when no extension is available.
	Sniff(prefix []byte) bool
}

// FormatterFor returns the formatter matching a service's family.
func FormatterFor(s Service) formatter.Formatter {
	return formatter.ForFamily(s.Family())
}
