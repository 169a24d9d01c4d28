// Package codehem is a syntax-aware, multi-language source-code query
// and patching engine. Agents locate elements by compact path
// expressions, read their exact text and fragment hash, and apply
// minimal atomic modifications with optimistic-concurrency guarantees.
package codehem

import (
	"sync"

	"github.com/termfx/codehem/builder"
	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/manipulator"
	"github.com/termfx/codehem/parser"
	"github.com/termfx/codehem/providers"
	"github.com/termfx/codehem/providers/python"
	"github.com/termfx/codehem/providers/typescript"
	"github.com/termfx/codehem/resolver"
	"github.com/termfx/codehem/workspace"
)

// Engine bundles the shared handles: one parser facade, one navigator
// and one registry. Multiple engines embed cleanly in one process.
type Engine struct {
	facade *parser.Facade
	nav    *parser.Navigator
	reg    *providers.Registry
}

// New builds an engine with the reference plug-ins registered: python
// (indent family) and typescript (brace family, also answering for
// javascript).
func New() *Engine {
	e := &Engine{
		facade: parser.NewFacade(parser.DefaultCacheSize),
		nav:    parser.NewNavigator(),
		reg:    providers.NewRegistry(),
	}
	// Registration of the built-ins cannot conflict.
	_ = e.reg.Register(python.New(e.facade, e.nav))
	_ = e.reg.Register(typescript.New(e.facade, e.nav))
	return e
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine, built on first use.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// Registry exposes the plug-in registry for late registration. Late
// registration must be externally synchronized with in-flight calls.
func (e *Engine) Registry() *providers.Registry {
	return e.reg
}

// Detect resolves a language code from a source buffer or a path.
func (e *Engine) Detect(sourceOrPath string) (string, error) {
	svc, err := e.reg.Detect(sourceOrPath)
	if err != nil {
		return "", err
	}
	return svc.Code(), nil
}

// Extract builds the element tree of a buffer.
func (e *Engine) Extract(source []byte, langCode string) (*core.ElementTree, error) {
	svc, err := e.reg.ByCode(langCode)
	if err != nil {
		return nil, err
	}
	return svc.Extract(source)
}

// GetTextByPath returns an element's exact text and fragment hash, or an
// element-not-found error when the path does not resolve.
func (e *Engine) GetTextByPath(source []byte, langCode, pathExpr string, includeExtra bool) (string, string, error) {
	svc, err := e.reg.ByCode(langCode)
	if err != nil {
		return "", "", err
	}
	tree, err := svc.Extract(source)
	if err != nil {
		return "", "", err
	}
	res, err := resolver.Resolve(tree, source, pathExpr, resolver.Options{IncludeExtra: includeExtra})
	if err != nil {
		return "", "", err
	}
	return res.Content, res.Hash, nil
}

// GetElementHash returns only the fragment hash for a path.
func (e *Engine) GetElementHash(source []byte, langCode, pathExpr string) (string, error) {
	_, hash, err := e.GetTextByPath(source, langCode, pathExpr, false)
	return hash, err
}

// PatchOptions tune ApplyPatch.
type PatchOptions struct {
	OriginalHash string
	DryRun       bool
	IncludeExtra bool
}

// ApplyPatch rewrites a buffer in memory. The result always carries the
// modified code; dry runs add a unified diff and leave the input alone.
func (e *Engine) ApplyPatch(source []byte, langCode, pathExpr, newCode string, mode core.PatchMode, opts PatchOptions) (core.PatchResult, error) {
	svc, err := e.reg.ByCode(langCode)
	if err != nil {
		return core.ErrorResult(err), err
	}
	result, _, err := manipulator.Apply(svc, source, pathExpr, newCode, mode, manipulator.Options{
		OriginalHash: opts.OriginalHash,
		DryRun:       opts.DryRun,
		IncludeExtra: opts.IncludeExtra,
	})
	return result, err
}

// OpenWorkspace indexes a directory tree against this engine's registry.
func (e *Engine) OpenWorkspace(root string, opts ...workspace.Option) (*workspace.Workspace, error) {
	return workspace.Open(root, e.reg, opts...)
}

// NewFunction synthesizes a function and appends it after the element at
// anchorPath. With an empty anchor the raw fragment is returned without
// touching the buffer.
func (e *Engine) NewFunction(source []byte, langCode string, spec builder.FunctionSpec, anchorPath string) (core.PatchResult, error) {
	return e.applyBuilt(source, langCode, anchorPath, func(svc providers.Service) (string, error) {
		return builder.Function(svc, spec)
	})
}

// NewClass synthesizes a class, appending after anchorPath when given.
func (e *Engine) NewClass(source []byte, langCode string, spec builder.ClassSpec, anchorPath string) (core.PatchResult, error) {
	return e.applyBuilt(source, langCode, anchorPath, func(svc providers.Service) (string, error) {
		return builder.Class(svc, spec)
	})
}

// NewMethod synthesizes a method and appends it after the last method of
// the class at classPath; an empty classPath returns the raw fragment.
func (e *Engine) NewMethod(source []byte, langCode string, spec builder.FunctionSpec, classPath string) (core.PatchResult, error) {
	anchor := ""
	if classPath != "" {
		svc, err := e.reg.ByCode(langCode)
		if err != nil {
			return core.ErrorResult(err), err
		}
		tree, err := svc.Extract(source)
		if err != nil {
			return core.ErrorResult(err), err
		}
		res, err := resolver.Resolve(tree, source, classPath, resolver.Options{})
		if err != nil {
			return core.ErrorResult(err), err
		}
		last := lastCallable(res.Element)
		if last == nil {
			err := core.ElementNotFoundError(classPath + " has no methods to anchor on")
			return core.ErrorResult(err), err
		}
		anchor = classPath + "." + last.Name
	}
	return e.applyBuilt(source, langCode, anchor, func(svc providers.Service) (string, error) {
		return builder.Method(svc, spec)
	})
}

func (e *Engine) applyBuilt(source []byte, langCode, anchorPath string, build func(providers.Service) (string, error)) (core.PatchResult, error) {
	svc, err := e.reg.ByCode(langCode)
	if err != nil {
		return core.ErrorResult(err), err
	}
	fragment, err := build(svc)
	if err != nil {
		return core.ErrorResult(err), err
	}
	if anchorPath == "" {
		return core.PatchResult{Status: "ok", ModifiedCode: fragment}, nil
	}
	result, _, err := manipulator.Apply(svc, source, anchorPath, fragment, core.ModeAppend, manipulator.Options{})
	return result, err
}

func lastCallable(class *core.Element) *core.Element {
	var last *core.Element
	for _, c := range class.Children {
		if c.IsCallable() {
			last = c
		}
	}
	return last
}
