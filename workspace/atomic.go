package workspace

import (
	"fmt"
	"os"
)

// AtomicConfig controls the write path.
type AtomicConfig struct {
	UseFsync   bool   // force fsync before the rename
	TempSuffix string // suffix for the temporary sibling
}

// DefaultAtomicConfig favors speed; hosts that need durability over
// crashes flip UseFsync on.
func DefaultAtomicConfig() AtomicConfig {
	return AtomicConfig{
		UseFsync:   false,
		TempSuffix: ".codehem.tmp",
	}
}

// writeAtomic writes content to a temporary sibling and renames it into
// place, preserving the original file's permissions. Callers hold the
// per-file lock; this function only does the I/O.
func writeAtomic(cfg AtomicConfig, path string, content []byte) error {
	var mode os.FileMode = 0o644
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tempPath := path + cfg.TempSuffix
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if cfg.UseFsync {
		if err := tempFile.Sync(); err != nil {
			tempFile.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to sync: %w", err)
		}
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// The rename is the atomic step; observers see old or new bytes,
	// never a mix.
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to atomic rename: %w", err)
	}
	return nil
}
