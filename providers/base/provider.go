package base

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/formatter"
	"github.com/termfx/codehem/parser"
)

// QuerySpec is one typed query of a language: the kind it extracts and
// the pattern in the grammar's query language.
type QuerySpec struct {
	Kind    core.ElementKind
	Pattern string
}

// Language is what a concrete plug-in implements on top of the shared
// provider: metadata, queries, and a handler that turns query matches
// into raw records.
type Language interface {
	Code() string
	Aliases() []string
	Extensions() []string
	Grammar() *sitter.Language
	Family() formatter.Family
	// Queries returns the typed query set, one spec per supported kind.
	Queries() []QuerySpec
	// Handle builds zero or more raw records from a single query match.
	// Returning nothing skips the match.
	Handle(kind core.ElementKind, match parser.QueryMatch, source []byte) []Raw
	// Options returns assembly adjustments (accessor reclassification).
	Options() []Option
	Sniff(prefix []byte) bool
}

// Provider wires a Language into the extraction pipeline: parse through
// the facade, run the typed queries, hand matches to the language,
// assemble, and cache the resulting element tree by content hash.
type Provider struct {
	config Language
	facade *parser.Facade
	nav    *parser.Navigator
	trees  *lru.Cache[string, *core.ElementTree]
}

// New builds a provider around a language definition. The facade and
// navigator are shared handles owned by the host.
func New(config Language, facade *parser.Facade, nav *parser.Navigator) *Provider {
	cache, _ := lru.New[string, *core.ElementTree](parser.DefaultCacheSize)
	return &Provider{
		config: config,
		facade: facade,
		nav:    nav,
		trees:  cache,
	}
}

func (p *Provider) Code() string                { return p.config.Code() }
func (p *Provider) Aliases() []string           { return p.config.Aliases() }
func (p *Provider) Extensions() []string        { return p.config.Extensions() }
func (p *Provider) Grammar() *sitter.Language   { return p.config.Grammar() }
func (p *Provider) Family() formatter.Family    { return p.config.Family() }
func (p *Provider) Sniff(prefix []byte) bool    { return p.config.Sniff(prefix) }

// Extract runs the full pipeline on a source buffer. Results are cached
// by content hash; elements are immutable snapshots, so the cached tree
// is shared between callers.
func (p *Provider) Extract(source []byte) (*core.ElementTree, error) {
	key := core.ContentHash(source)
	if t, ok := p.trees.Get(key); ok {
		return t, nil
	}

	tree, err := p.facade.Parse(p.config.Code(), p.config.Grammar(), source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var records []Raw
	for _, spec := range p.config.Queries() {
		matches, err := p.nav.ExecuteQuery(p.config.Code(), p.config.Grammar(), tree, source, spec.Pattern)
		if err != nil {
			// A broken query never crosses the facade as a failure of the
			// whole extraction; the kind just comes out empty.
			slog.Debug("query failed", "lang", p.config.Code(), "kind", spec.Kind, "err", err)
			continue
		}
		for _, m := range matches {
			records = append(records, p.config.Handle(spec.Kind, m, source)...)
		}
	}

	etree := Assemble(p.config.Code(), records, p.config.Options()...)
	p.trees.Add(key, etree)
	return etree, nil
}
