// Package workspace indexes a file tree for cross-file element queries
// and serializes per-file atomic writes under concurrent agents.
package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/internal/retry"
	"github.com/termfx/codehem/manipulator"
	"github.com/termfx/codehem/providers"
	"github.com/termfx/codehem/resolver"
)

// Entry is one indexed element: where it lives and the path expression
// that resolves it there.
type Entry struct {
	File string           `json:"file"`
	Path string           `json:"path"`
	Kind core.ElementKind `json:"kind"`
	Name string           `json:"name"`
}

// ConflictFunc lets a caller rescue a write conflict: it receives the
// current file bytes, the current fragment hash and the code that failed
// to apply, and may return revised code plus a fresh hash. Returning
// ok=false keeps the conflict.
type ConflictFunc func(current []byte, currentHash, attempted string) (revised string, freshHash string, ok bool)

// ApplyOptions mirror the manipulator options at workspace scope.
type ApplyOptions struct {
	OriginalHash string
	DryRun       bool
	IncludeExtra bool
}

type fileState struct {
	mu      sync.RWMutex
	mtime   time.Time
	entries []Entry
}

// Workspace is an indexed view over one directory tree.
type Workspace struct {
	root       string
	reg        *providers.Registry
	writerCfg  AtomicConfig
	policy     retry.Policy
	onConflict ConflictFunc
	journal    *journal
	workers    int

	mu    sync.Mutex
	files map[string]*fileState
}

// Option configures an opened workspace.
type Option func(*Workspace)

// WithOnConflict installs the conflict rescue callback. At most one
// retry happens per apply.
func WithOnConflict(fn ConflictFunc) Option {
	return func(w *Workspace) { w.onConflict = fn }
}

// WithJournal records applied patches in a sqlite journal at dsn.
func WithJournal(dsn string) Option {
	return func(w *Workspace) {
		j, err := openJournal(dsn, w.root)
		if err != nil {
			slog.Warn("journal disabled", "dsn", dsn, "err", err)
			return
		}
		w.journal = j
	}
}

// WithAtomicConfig overrides the write path configuration.
func WithAtomicConfig(cfg AtomicConfig) Option {
	return func(w *Workspace) { w.writerCfg = cfg }
}

// Open indexes root and returns a ready workspace. Files that fail to
// parse are skipped with a debug log; they can still be applied to once
// their content becomes parseable.
func Open(root string, reg *providers.Registry, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, core.IOError(root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, core.IOError(root, err)
	}
	if !info.IsDir() {
		return nil, core.ValidationError(root + " is not a directory")
	}

	w := &Workspace{
		root:      abs,
		reg:       reg,
		writerCfg: DefaultAtomicConfig(),
		policy:    retry.DefaultPolicy(),
		workers:   resolveWorkerCount(runtime.NumCPU()),
		files:     make(map[string]*fileState),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.journal == nil {
		if dsn := os.Getenv("CODEHEM_JOURNAL"); dsn != "" {
			WithJournal(dsn)(w)
		}
	}

	files, err := w.walk()
	if err != nil {
		return nil, core.IOError(root, err)
	}

	var g errgroup.Group
	g.SetLimit(w.workers)
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			state, err := w.indexFile(rel)
			if err != nil {
				slog.Debug("skipping unindexable file", "file", rel, "err", err)
				return nil
			}
			w.mu.Lock()
			w.files[rel] = state
			w.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return w, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Files lists the indexed workspace-relative paths.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for rel := range w.files {
		out = append(out, rel)
	}
	return out
}

// Find serves cross-file queries. Empty arguments match everything;
// fileGlob is a doublestar pattern over workspace-relative paths.
func (w *Workspace) Find(name string, kind core.ElementKind, fileGlob string) ([]Entry, error) {
	if kind != "" && !core.IsValidKind(kind) {
		return nil, core.ValidationError("unknown kind " + string(kind))
	}

	w.mu.Lock()
	rels := make([]string, 0, len(w.files))
	for rel := range w.files {
		rels = append(rels, rel)
	}
	w.mu.Unlock()

	var out []Entry
	for _, rel := range rels {
		if fileGlob != "" {
			if ok, err := doublestar.Match(fileGlob, rel); err != nil || !ok {
				continue
			}
		}
		state, err := w.freshState(rel)
		if err != nil {
			continue
		}
		state.mu.RLock()
		for _, e := range state.entries {
			if name != "" && e.Name != name {
				continue
			}
			if kind != "" && e.Kind != kind {
				continue
			}
			out = append(out, e)
		}
		state.mu.RUnlock()
	}
	return out, nil
}

// Apply patches one element in one file end-to-end: read, resolve,
// splice, atomic write-back. The per-file lock is exclusive from the
// hash check through the rename, so concurrent appliers serialize and
// readers never observe a half-written file.
func (w *Workspace) Apply(ctx context.Context, file, pathExpr, newCode string, mode core.PatchMode, opts ApplyOptions) (core.PatchResult, error) {
	rel, abs, err := w.resolvePath(file)
	if err != nil {
		return core.ErrorResult(err), err
	}
	svc, err := w.reg.ForFile(abs)
	if err != nil {
		return core.ErrorResult(err), err
	}

	state := w.state(rel)
	state.mu.Lock()
	defer state.mu.Unlock()

	var source []byte
	err = retry.Do(ctx, w.policy, "read "+rel, core.IsTransient, func() error {
		data, readErr := os.ReadFile(abs)
		if readErr != nil {
			return core.IOError(rel, readErr)
		}
		source = data
		return nil
	})
	if err != nil {
		return core.ErrorResult(err), err
	}

	// The fragment hash before any splice is the journal's base digest.
	baseHash := ""
	if res, rerr := currentFragment(svc, source, pathExpr); rerr == nil {
		baseHash = res.Hash
	}

	// The manipulator always computes the diff so the journal can keep it;
	// whether the file is written is decided by opts.DryRun below.
	mopts := manipulator.Options{
		OriginalHash: opts.OriginalHash,
		DryRun:       true,
		IncludeExtra: opts.IncludeExtra,
	}
	result, modified, err := manipulator.Apply(svc, source, pathExpr, newCode, mode, mopts)

	if err != nil && core.ErrorKind(err) == "WriteConflictError" && w.onConflict != nil {
		// One rescue round: hand the caller the current state and let it
		// rebase its change.
		if revised, freshHash, ok := w.onConflict(source, baseHash, newCode); ok {
			mopts.OriginalHash = freshHash
			result, modified, err = manipulator.Apply(svc, source, pathExpr, revised, mode, mopts)
		}
	}
	if err != nil {
		if core.ErrorKind(err) == "WriteConflictError" {
			w.record(rel, svc.Code(), pathExpr, mode, baseHash, result, "conflict")
		}
		return result, err
	}

	if opts.DryRun {
		// File-scoped dry runs report the diff, not the whole buffer.
		result.ModifiedCode = ""
		w.record(rel, svc.Code(), pathExpr, mode, baseHash, result, "dry_run")
		return result, nil
	}

	err = retry.Do(ctx, w.policy, "write "+rel, core.IsTransient, func() error {
		if werr := writeAtomic(w.writerCfg, abs, modified); werr != nil {
			return core.IOError(rel, werr)
		}
		return nil
	})
	if err != nil {
		return core.ErrorResult(err), err
	}

	w.reindexLocked(rel, state)
	result.ModifiedCode = ""
	w.record(rel, svc.Code(), pathExpr, mode, baseHash, result, "applied")
	// The diff is kept in the journal; a file write reports statistics only.
	result.Diff = ""
	return result, nil
}

// GetText reads an element's text and hash through the workspace,
// honoring the per-file read lock.
func (w *Workspace) GetText(file, pathExpr string, includeExtra bool) (string, string, error) {
	rel, abs, err := w.resolvePath(file)
	if err != nil {
		return "", "", err
	}
	svc, err := w.reg.ForFile(abs)
	if err != nil {
		return "", "", err
	}

	state := w.state(rel)
	state.mu.RLock()
	defer state.mu.RUnlock()

	source, err := os.ReadFile(abs)
	if err != nil {
		return "", "", core.IOError(rel, err)
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

// History returns the journal records for one file, newest first.
// Without a journal it returns nothing.
func (w *Workspace) History(file string) ([]PatchRecord, error) {
	if w.journal == nil {
		return nil, nil
	}
	rel, _, err := w.resolvePath(file)
	if err != nil {
		return nil, err
	}
	return w.journal.history(rel)
}

// Close ends the journal session. The workspace itself holds no other
// resources.
func (w *Workspace) Close() error {
	if w.journal != nil {
		return w.journal.close()
	}
	return nil
}

// --- internals ---

func (w *Workspace) resolvePath(file string) (rel string, abs string, err error) {
	if filepath.IsAbs(file) {
		rel, err = filepath.Rel(w.root, file)
		if err != nil {
			return "", "", core.ValidationError(file + " is outside the workspace")
		}
	} else {
		rel = file
	}
	rel = filepath.ToSlash(rel)
	abs = filepath.Join(w.root, filepath.FromSlash(rel))
	return rel, abs, nil
}

func (w *Workspace) state(rel string) *fileState {
	w.mu.Lock()
	defer w.mu.Unlock()
	state, ok := w.files[rel]
	if !ok {
		state = &fileState{}
		w.files[rel] = state
	}
	return state
}

// freshState refreshes a stale index entry lazily, keyed by mtime.
func (w *Workspace) freshState(rel string) (*fileState, error) {
	state := w.state(rel)
	abs := filepath.Join(w.root, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil {
		return nil, core.IOError(rel, err)
	}

	state.mu.RLock()
	fresh := state.mtime.Equal(info.ModTime())
	state.mu.RUnlock()
	if fresh {
		return state, nil
	}

	state.mu.Lock()
	w.reindexLocked(rel, state)
	state.mu.Unlock()
	return state, nil
}

// indexFile builds the entry list for one file.
func (w *Workspace) indexFile(rel string) (*fileState, error) {
	abs := filepath.Join(w.root, filepath.FromSlash(rel))
	svc, err := w.reg.ForFile(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, core.IOError(rel, err)
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, core.IOError(rel, err)
	}
	tree, err := svc.Extract(source)
	if err != nil {
		return nil, err
	}
	return &fileState{
		mtime:   info.ModTime(),
		entries: collectEntries(rel, tree),
	}, nil
}

// reindexLocked refreshes entries under an already-held write lock.
func (w *Workspace) reindexLocked(rel string, state *fileState) {
	fresh, err := w.indexFile(rel)
	if err != nil {
		slog.Debug("reindex failed", "file", rel, "err", err)
		return
	}
	state.mtime = fresh.mtime
	state.entries = fresh.entries
}

// collectEntries flattens a tree into indexed entries with resolvable
// path expressions.
func collectEntries(rel string, tree *core.ElementTree) []Entry {
	var out []Entry
	if tree.Imports() != nil {
		out = append(out, Entry{File: rel, Path: "imports", Kind: core.KindImport, Name: "imports"})
	}
	var visit func(prefix string, es []*core.Element)
	visit = func(prefix string, es []*core.Element) {
		for _, e := range es {
			if e.Name == "" || e.Kind == core.KindImport ||
				e.Kind == core.KindParameter || e.Kind == core.KindReturnValue {
				continue
			}
			path := e.Name
			if prefix != "" {
				path = prefix + "." + e.Name
			}
			entry := Entry{File: rel, Path: path, Kind: e.Kind, Name: e.Name}
			if e.Kind == core.KindPropertyGetter || e.Kind == core.KindPropertySetter {
				entry.Path = path + "[" + string(e.Kind) + "]"
			}
			out = append(out, entry)
			visit(path, e.Children)
		}
	}
	visit("", tree.Elements)
	return out
}

func currentFragment(svc providers.Service, source []byte, pathExpr string) (*resolver.Result, error) {
	tree, err := svc.Extract(source)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(tree, source, pathExpr, resolver.Options{})
}

func (w *Workspace) record(rel, lang, pathExpr string, mode core.PatchMode, baseHash string, result core.PatchResult, status string) {
	if w.journal == nil {
		return
	}
	w.journal.record(rel, lang, pathExpr, string(mode), baseHash, result, status)
}

func resolveWorkerCount(defaultWorkers int) int {
	value := os.Getenv("CODEHEM_WORKERS")
	if value == "" {
		return defaultWorkers
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultWorkers
	}
	return n
}
