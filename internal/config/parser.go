package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks that the configuration describes a runnable update.
// Relative entries (subtrees, renames, prune targets) must stay inside the
// install root, and the two quarantine directories must be distinct.
func (c Config) Validate() error {
	for _, f := range []struct{ key, value string }{
		{"archive", c.Archive},
		{"extract_dir", c.ExtractDir},
		{"install_root", c.InstallRoot},
		{"old_files_dir", c.OldFilesDir},
		{"unused_files_dir", c.UnusedFilesDir},
		{"journal_file", c.JournalFile},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalid, f.key)
		}
	}

	if filepath.Clean(c.OldFilesDir) == filepath.Clean(c.UnusedFilesDir) {
		return fmt.Errorf("%w: old_files_dir and unused_files_dir must differ", ErrInvalid)
	}

	if len(c.Subtrees) == 0 {
		return fmt.Errorf("%w: at least one subtree is required", ErrInvalid)
	}
	for _, s := range c.Subtrees {
		if err := checkRelative("subtrees", s); err != nil {
			return err
		}
		if strings.Contains(path.Clean(filepath.ToSlash(s)), "/") {
			return fmt.Errorf("%w: subtree %q must be a single path element", ErrInvalid, s)
		}
	}
	for _, r := range c.Renames {
		if err := checkRelative("renames.from", r.From); err != nil {
			return err
		}
		if err := checkRelative("renames.to", r.To); err != nil {
			return err
		}
	}
	for _, p := range c.Prune {
		if err := checkRelative("prune", p); err != nil {
			return err
		}
	}
	return nil
}

// checkRelative rejects empty, absolute, and install-root-escaping entries.
func checkRelative(key, p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%w: %s entry must not be empty", ErrInvalid, key)
	}
	slashed := filepath.ToSlash(p)
	if path.IsAbs(slashed) || filepath.IsAbs(p) {
		return fmt.Errorf("%w: %s entry %q must be relative", ErrInvalid, key, p)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("%w: %s entry %q escapes the install root", ErrInvalid, key, p)
	}
	return nil
}

// InstallPath joins a path relative to the install root.
func (c Config) InstallPath(rel string) string {
	return filepath.Join(c.InstallRoot, filepath.FromSlash(rel))
}
