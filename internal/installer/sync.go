package installer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"sdk-updater/internal/config"
	"sdk-updater/internal/logger"
	"sdk-updater/internal/state"
)

var (
	// ErrArchiveMissing stops a run before anything is touched.
	ErrArchiveMissing = errors.New("archive not found")
	// ErrExtractDirExists stops a run instead of extracting over a previous extraction.
	ErrExtractDirExists = errors.New("extraction directory already exists")
	// ErrBadLayout stops a run when the extracted archive does not hold the expected subtrees.
	ErrBadLayout = errors.New("unexpected archive layout")
)

// Result counts what a run did. Errors counts non-fatal failures that were
// logged while the run carried on.
type Result struct {
	Extracted   int
	Quarantined int
	Installed   int
	Renamed     int
	Pruned      int
	Errors      int
}

// Updater replaces an installed SDK with the contents of a downloaded archive.
type Updater struct {
	fs      afero.Fs
	cfg     config.Config
	journal *state.Journal
	result  Result
}

// NewUpdater returns an Updater working on fsys with the given configuration.
func NewUpdater(fsys afero.Fs, cfg config.Config) *Updater {
	return &Updater{fs: fsys, cfg: cfg, journal: &state.Journal{Archive: cfg.Archive}}
}

// Journal returns the actions recorded so far.
func (u *Updater) Journal() *state.Journal {
	return u.journal
}

// Run performs the update in order: check the archive, extract it, move the
// installed subtrees into quarantine, copy the new ones in, apply renames,
// and prune unused files.
//
// A returned error means the run stopped early; the only possible side
// effect at that point is the extraction directory. Failures after extraction
// are logged, counted in Result.Errors, and the run continues without
// undoing earlier steps.
func (u *Updater) Run() (Result, error) {
	logger.Info("[INFO] Starting SDK update...\n")
	logger.Debug("[DEBUG] Run: archive=%s extract=%s install=%s\n", u.cfg.Archive, u.cfg.ExtractDir, u.cfg.InstallRoot)

	if err := u.checkArchive(); err != nil {
		logger.Error("[ERROR] No %s found. Move the SDK download here and name it %s\n", u.cfg.Archive, filepath.Base(u.cfg.Archive))
		return u.result, err
	}

	layoutRoot, err := u.extract()
	if err != nil {
		logger.Error("[ERROR] %v\n", err)
		return u.result, err
	}

	// From here on the filesystem changes, so the journal is always written.
	defer u.saveJournal()

	u.quarantineInstalled()
	u.installSubtrees(layoutRoot)
	u.applyRenames()
	u.prune()

	u.report()
	return u.result, nil
}

// checkArchive verifies the archive is a regular file without touching anything else.
func (u *Updater) checkArchive() error {
	info, err := u.fs.Stat(u.cfg.Archive)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchiveMissing, u.cfg.Archive, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrArchiveMissing, u.cfg.Archive)
	}
	return nil
}

// extract unpacks the archive and returns the directory that holds the
// configured subtrees.
func (u *Updater) extract() (string, error) {
	dir := u.cfg.ExtractDir
	if exists(u.fs, dir) {
		return "", fmt.Errorf("%w: %s (remove it or move it aside first)", ErrExtractDirExists, dir)
	}

	n, err := ExtractArchive(u.fs, u.cfg.Archive, dir)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", u.cfg.Archive, err)
	}
	u.result.Extracted = n
	logger.Info("[INFO] Extracted %s to %s (%d files)\n", u.cfg.Archive, dir, n)

	return u.layoutRoot(dir)
}

// layoutRoot returns dir when it holds every subtree, or its single child
// directory when the archive wrapped its content in one top-level folder.
func (u *Updater) layoutRoot(dir string) (string, error) {
	info, err := u.fs.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: no folder %s after extraction", ErrBadLayout, dir)
	}

	missing := u.missingSubtrees(dir)
	if len(missing) == 0 {
		return dir, nil
	}

	entries, err := afero.ReadDir(u.fs, dir)
	if err == nil && len(entries) == 1 && entries[0].IsDir() {
		nested := filepath.Join(dir, entries[0].Name())
		if len(u.missingSubtrees(nested)) == 0 {
			logger.Debug("[DEBUG] Using nested archive root %s\n", nested)
			return nested, nil
		}
	}
	return "", fmt.Errorf("%w: %s is missing %s", ErrBadLayout, dir, strings.Join(missing, ", "))
}

// missingSubtrees lists the configured subtrees that dir does not contain.
func (u *Updater) missingSubtrees(dir string) []string {
	var missing []string
	for _, s := range u.cfg.Subtrees {
		if !exists(u.fs, filepath.Join(dir, s)) {
			missing = append(missing, s)
		}
	}
	return missing
}

// installPath resolves rel below the install root without following symlinks
// out of it. A path that cannot be resolved is logged and counted.
func (u *Updater) installPath(rel string) (string, bool) {
	p, err := ScopedPath(u.fs, u.cfg.InstallRoot, rel)
	if err != nil {
		u.fail("[ERROR] %v\n", err)
		return "", false
	}
	if lexical := u.cfg.InstallPath(rel); p != lexical {
		logger.Warn("[WARN] %s goes through a symlink, using %s instead\n", lexical, p)
	}
	return p, true
}

// move relocates src to dst, journaling success and counting failure.
func (u *Updater) move(src, dst string) bool {
	if err := Move(u.fs, src, dst); err != nil {
		u.fail("[ERROR] Failed to move %s to %s: %v\n", src, dst, err)
		return false
	}
	u.journal.Record(state.OpMove, src, dst)
	logger.Info("[INFO] - Moved %s to %s\n", src, dst)
	return true
}

// fail logs a non-fatal error and counts it in the result.
func (u *Updater) fail(format string, a ...any) {
	u.result.Errors++
	logger.Error(format, a...)
}

// saveJournal writes the recorded actions so rollback can undo them.
func (u *Updater) saveJournal() {
	if err := state.SaveJournal(u.fs, u.cfg.JournalFile, u.journal); err != nil {
		logger.Error("[ERROR] %v\n", err)
		return
	}
	logger.Debug("[DEBUG] Recorded %d actions in %s\n", u.journal.Len(), u.cfg.JournalFile)
}

// report prints the completion line and what the operator can clean up.
func (u *Updater) report() {
	if u.result.Errors > 0 {
		logger.Warn("[WARN] Update complete with %d error(s). Review the messages above.\n", u.result.Errors)
	} else {
		logger.Info("[INFO] Update complete!\n")
	}
	logger.Info("[INFO] When satisfied, delete %s, %s, %s and %s.\n",
		u.cfg.Archive, u.cfg.ExtractDir, u.cfg.OldFilesDir, u.cfg.UnusedFilesDir)
}
