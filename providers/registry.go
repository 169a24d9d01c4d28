package providers

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/termfx/codehem/core"
)

// sniffWindow is how many leading bytes Detect inspects.
const sniffWindow = 512

// Registry maps language codes, aliases and file extensions to services.
// It is populated at startup and read-mostly afterwards; all operations
// are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	services   map[string]Service
	aliases    map[string]string
	extensions map[string]string
}

// NewRegistry creates an empty registry. The core ships with no built-in
// services; plug-ins register themselves explicitly.
func NewRegistry() *Registry {
	return &Registry{
		services:   make(map[string]Service),
		aliases:    make(map[string]string),
		extensions: make(map[string]string),
	}
}

// Register adds a service under its code, aliases and extensions.
// Registering the same service twice is a no-op; registering a different
// implementation under an existing code is an error.
func (r *Registry) Register(s Service) error {
	if s == nil {
		return core.ValidationError("service cannot be nil")
	}
	code := s.Code()
	if code == "" {
		return core.PluginError("?", "service must declare a language code")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.services[code]; ok {
		if existing == s {
			return nil
		}
		return core.PluginError(code, "a different service is already registered under this code")
	}
	r.services[code] = s

	for _, alias := range s.Aliases() {
		if alias == "" || alias == code {
			continue
		}
		if target, ok := r.aliases[alias]; ok && target != code {
			return core.PluginError(code, "alias "+alias+" already maps to "+target)
		}
		r.aliases[alias] = code
	}
	for _, ext := range s.Extensions() {
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		ext = strings.ToLower(ext)
		if target, ok := r.extensions[ext]; ok && target != code {
			return core.PluginError(code, "extension "+ext+" already maps to "+target)
		}
		r.extensions[ext] = code
	}
	return nil
}

// RegisterAlias maps an additional identifier onto an already-registered
// service, e.g. "javascript" onto the typescript service.
func (r *Registry) RegisterAlias(alias, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[code]; !ok {
		return core.UnsupportedLanguageError(code)
	}
	if target, ok := r.aliases[alias]; ok && target != code {
		return core.PluginError(code, "alias "+alias+" already maps to "+target)
	}
	r.aliases[alias] = code
	return nil
}

// ByCode resolves a service by canonical code or alias.
func (r *Registry) ByCode(ident string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.services[ident]; ok {
		return s, nil
	}
	if code, ok := r.aliases[ident]; ok {
		if s, ok := r.services[code]; ok {
			return s, nil
		}
	}
	return nil, core.UnsupportedLanguageError(ident)
}

// ByExtension resolves a service by file extension (dot optional).
func (r *Registry) ByExtension(ext string) (Service, error) {
	if ext == "" {
		return nil, core.UnsupportedLanguageError(ext)
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if code, ok := r.extensions[ext]; ok {
		if s, ok := r.services[code]; ok {
			return s, nil
		}
	}
	return nil, core.UnsupportedLanguageError(ext)
}

// ForFile resolves a service from a file path's extension.
func (r *Registry) ForFile(path string) (Service, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, core.UnsupportedLanguageError(path)
	}
	return r.ByExtension(ext)
}

// Detect resolves a language from a source buffer or a path. A
// single-line input with a file extension is treated as a path: a known
// extension wins, else an existing file's contents are sniffed.
// Everything else, including extension-less paths, is treated as source
// and sniffed against each registered service.
func (r *Registry) Detect(sourceOrPath string) (Service, error) {
	if looksLikePath(sourceOrPath) {
		if s, err := r.ForFile(sourceOrPath); err == nil {
			return s, nil
		}
		if data, err := os.ReadFile(sourceOrPath); err == nil {
			return r.SniffBuffer(data)
		}
	}
	return r.SniffBuffer([]byte(sourceOrPath))
}

// SniffBuffer asks each registered service whether the leading bytes
// look like its language. Services are probed in code order for
// deterministic results.
func (r *Registry) SniffBuffer(source []byte) (Service, error) {
	prefix := source
	if len(prefix) > sniffWindow {
		prefix = prefix[:sniffWindow]
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, code := range sortedKeys(r.services) {
		if r.services[code].Sniff(prefix) {
			return r.services[code], nil
		}
	}
	return nil, core.UnsupportedLanguageError("<buffer>")
}

// Codes lists the registered canonical language codes.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.services)
}

// Extensions lists every registered file extension.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.extensions)
}

func looksLikePath(s string) bool {
	if strings.ContainsAny(s, "\n") {
		return false
	}
	return len(s) < 4096 && filepath.Ext(s) != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
