// Package parser wraps tree-sitter behind a cache-aware facade and a
// navigator that exposes 1-based coordinates to the rest of the engine.
package parser

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/codehem/core"
)

// DefaultCacheSize bounds the parse-tree LRU. Element-tree caches reuse
// the same floor.
const DefaultCacheSize = 128

// Facade drives grammar parsers and caches resulting trees keyed by
// (language, content hash). It is a handle, not a hidden singleton, so a
// host can run several isolated instances. Cache lookups never block
// behind another goroutine's parse: the LRU synchronizes internally and
// parsing happens outside it on a per-call parser.
type Facade struct {
	trees *lru.Cache[string, *cachedTree]
}

type cachedTree struct {
	tree   *sitter.Tree
	source []byte
}

// NewFacade creates a facade with the given tree cache capacity. Sizes
// below DefaultCacheSize are raised to it.
func NewFacade(size int) *Facade {
	if size < DefaultCacheSize {
		size = DefaultCacheSize
	}
	cache, _ := lru.NewWithEvict[string, *cachedTree](size, func(_ string, v *cachedTree) {
		v.tree.Close()
	})
	return &Facade{trees: cache}
}

// Parse returns the syntax tree for source under the given grammar.
// Partial source parses best-effort; the grammar emits error nodes that
// downstream components tolerate. The returned tree is a private copy the
// caller owns and must Close.
func (f *Facade) Parse(langCode string, lang *sitter.Language, source []byte) (*sitter.Tree, error) {
	if lang == nil {
		return nil, core.ParseError(langCode, core.ErrPlugin)
	}

	key := langCode + ":" + core.ContentHash(source)
	if entry, ok := f.trees.Get(key); ok {
		return entry.tree.Copy(), nil
	}

	// Miss: parse on a fresh parser with no facade-wide lock held, so
	// concurrent lookups of cached content proceed untouched.
	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, core.ParseError(langCode, err)
	}

	if _, existed, _ := f.trees.PeekOrAdd(key, &cachedTree{tree: tree, source: source}); existed {
		// Another goroutine populated the cache first; our tree was not
		// stored, so the caller takes ownership of it directly.
		return tree, nil
	}
	return tree.Copy(), nil
}

// Purge drops every cached tree. Mostly useful in tests and long-lived
// hosts that watch memory.
func (f *Facade) Purge() {
	f.trees.Purge()
}
