package installer

import (
	"path/filepath"

	"github.com/spf13/afero"

	"sdk-updater/internal/logger"
	"sdk-updater/internal/state"
)

// Rollback undoes the journaled actions of an update, newest first.
//
// A move is reversed when its destination is still present and its source
// location is free. A copy is removed only when its source still exists, so
// rolling back never destroys the last copy of any file. Every entry is
// checked before anything changes: if one of them cannot be undone, the tree
// is left as it is and the whole journal is returned. Entries that fail while
// undoing are returned in their original order so a later rollback can retry them.
func Rollback(fsys afero.Fs, j *state.Journal) *state.Journal {
	remaining := &state.Journal{Archive: j.Archive}

	if stuck := blocked(fsys, j.Entries); len(stuck) > 0 {
		for _, e := range stuck {
			logger.Warn("[WARN] Cannot undo %s of %s to %s\n", e.Op, e.From, e.To)
		}
		logger.Error("[ERROR] %d action(s) cannot be undone, nothing was changed\n", len(stuck))
		remaining.Entries = append(remaining.Entries, j.Entries...)
		return remaining
	}

	var kept []state.Entry

	for i := len(j.Entries) - 1; i >= 0; i-- {
		e := j.Entries[i]
		if !undo(fsys, e) {
			kept = append(kept, e)
		}
	}

	for i := len(kept) - 1; i >= 0; i-- {
		remaining.Entries = append(remaining.Entries, kept[i])
	}
	return remaining
}

// undo reverses a single entry and reports whether it is done with.
func undo(fsys afero.Fs, e state.Entry) bool {
	switch e.Op {
	case state.OpMove:
		if !exists(fsys, e.To) {
			logger.Warn("[WARN] %s is gone, cannot move it back to %s\n", e.To, e.From)
			return false
		}
		if err := Move(fsys, e.To, e.From); err != nil {
			logger.Error("[ERROR] Failed to move %s back to %s: %v\n", e.To, e.From, err)
			return false
		}
		logger.Info("[INFO] - Restored %s\n", e.From)
		return true

	case state.OpCopy:
		if !exists(fsys, e.To) {
			logger.Debug("[DEBUG] Copy %s already removed\n", e.To)
			return true
		}
		if !exists(fsys, e.From) {
			logger.Warn("[WARN] Keeping %s: its source %s no longer exists\n", e.To, e.From)
			return false
		}
		if err := fsys.RemoveAll(e.To); err != nil {
			logger.Error("[ERROR] Failed to remove copied %s: %v\n", e.To, err)
			return false
		}
		logger.Info("[INFO] - Removed copied %s\n", e.To)
		return true

	default:
		logger.Warn("[WARN] Unknown journal action %q for %s, skipping\n", e.Op, e.To)
		return false
	}
}

// blocked returns the entries that cannot be undone from the current state.
// A missing path still counts as available when undoing a newer entry brings
// it back, and an occupied path counts as free when undoing a newer entry
// clears it.
func blocked(fsys afero.Fs, entries []state.Entry) []state.Entry {
	var out []state.Entry
	for i, e := range entries {
		newer := entries[i+1:]
		switch e.Op {
		case state.OpMove:
			if !exists(fsys, e.To) && !restoredBy(newer, e.To) {
				out = append(out, e)
			} else if exists(fsys, e.From) && !clearedBy(newer, e.From) {
				out = append(out, e)
			}
		case state.OpCopy:
			if exists(fsys, e.To) && !exists(fsys, e.From) && !restoredBy(newer, e.From) {
				out = append(out, e)
			}
		default:
			out = append(out, e)
		}
	}
	return out
}

// restoredBy reports whether undoing one of entries moves something back to
// path or to a directory containing it.
func restoredBy(entries []state.Entry, path string) bool {
	for _, e := range entries {
		if e.Op == state.OpMove && within(path, e.From) {
			return true
		}
	}
	return false
}

// clearedBy reports whether undoing one of entries takes away path or a
// directory containing it.
func clearedBy(entries []state.Entry, path string) bool {
	for _, e := range entries {
		if within(path, e.To) {
			return true
		}
	}
	return false
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && filepath.IsLocal(rel)
}
