package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's taxonomy. Callers branch with
// errors.Is; construction goes through the wrapping helpers so messages
// carry the file, path and mode context they need.
var (
	ErrParse               = errors.New("parse error")
	ErrPathSyntax          = errors.New("path syntax error")
	ErrElementNotFound     = errors.New("element not found")
	ErrWriteConflict       = errors.New("write conflict")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrValidation          = errors.New("validation error")
	ErrIO                  = errors.New("io error")
	ErrTimeout             = errors.New("timeout")
	ErrPlugin              = errors.New("plugin error")
)

// ParseError wraps a grammar or parser initialization failure.
func ParseError(lang string, cause error) error {
	return fmt.Errorf("%w: language %s: %v", ErrParse, lang, cause)
}

// PathSyntaxError reports a malformed path expression.
func PathSyntaxError(path, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrPathSyntax, path, reason)
}

// ElementNotFoundError reports a path that resolves to nothing. The hint
// tells the caller what to check first.
func ElementNotFoundError(path string) error {
	return fmt.Errorf("%w: %q (check the element name and kind tag against extract output)", ErrElementNotFound, path)
}

// WriteConflictError reports a fragment hash mismatch at write time.
func WriteConflictError(path, want, got string) error {
	return fmt.Errorf("%w: %q: expected fragment %s, found %s (re-read the element and retry)", ErrWriteConflict, path, short(want), short(got))
}

// UnsupportedLanguageError reports a missing plug-in.
func UnsupportedLanguageError(ident string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, ident)
}

// ValidationError reports invalid caller input.
func ValidationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// IOError wraps a read/write/lock failure on a file.
func IOError(file string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrIO, file, cause)
}

// TimeoutError reports an expired retry deadline.
func TimeoutError(op string) error {
	return fmt.Errorf("%w: %s", ErrTimeout, op)
}

// PluginError reports a plug-in contract violation.
func PluginError(lang, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrPlugin, lang, reason)
}

// IsTransient reports whether an error may succeed on retry. Only I/O
// failures qualify; logical errors never do.
func IsTransient(err error) bool {
	return errors.Is(err, ErrIO)
}

// ErrorKind returns the taxonomy name for err, or "unknown".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrPathSyntax):
		return "PathSyntaxError"
	case errors.Is(err, ErrElementNotFound):
		return "ElementNotFoundError"
	case errors.Is(err, ErrWriteConflict):
		return "WriteConflictError"
	case errors.Is(err, ErrUnsupportedLanguage):
		return "UnsupportedLanguageError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrIO):
		return "IOError"
	case errors.Is(err, ErrTimeout):
		return "TimeoutError"
	case errors.Is(err, ErrPlugin):
		return "PluginError"
	}
	return "unknown"
}

func short(hash string) string {
	if hash == "" {
		return "<none>"
	}
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
