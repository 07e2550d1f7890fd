package installer

import (
	"path/filepath"
	"strings"

	"sdk-updater/internal/logger"
)

// QuarantinePath maps src to its place inside dir so the original location can
// be read back from the quarantine contents. Leading ".." elements and any
// root or volume prefix are dropped: ../Runtime/EOSSDK/SDK quarantined into
// OldSDKFiles becomes OldSDKFiles/Runtime/EOSSDK/SDK.
func QuarantinePath(dir, src string) string {
	cleaned := filepath.Clean(src)
	cleaned = strings.TrimPrefix(cleaned, filepath.VolumeName(cleaned))
	rel := strings.TrimLeft(filepath.ToSlash(cleaned), "/")
	for rel == ".." || strings.HasPrefix(rel, "../") {
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), "/")
	}
	if rel == "" || rel == "." {
		return filepath.Clean(dir)
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}

// quarantine moves src and its sidecar into dir. The sidecar is attempted
// whether or not src was moved, and a missing sidecar is not reported.
// It returns true when src itself was relocated.
func (u *Updater) quarantine(src, dir string) bool {
	moved := false
	if exists(u.fs, src) {
		moved = u.move(src, QuarantinePath(dir, src))
	} else {
		logger.Info("[INFO] - No file %s found to move to %s, skipping...\n", src, dir)
	}

	if u.cfg.SidecarSuffix == "" {
		return moved
	}
	sidecar := src + u.cfg.SidecarSuffix
	if exists(u.fs, sidecar) {
		u.move(sidecar, QuarantinePath(dir, sidecar))
	} else {
		logger.Debug("[DEBUG] No sidecar %s, nothing to move\n", sidecar)
	}
	return moved
}

// quarantineInstalled moves the currently installed subtrees out of the way
// before the new files are copied in.
func (u *Updater) quarantineInstalled() {
	logger.Info("[INFO] Moving current SDK files into %s\n", u.cfg.OldFilesDir)
	for _, s := range u.cfg.Subtrees {
		src, ok := u.installPath(s)
		if !ok {
			continue
		}
		if u.quarantine(src, u.cfg.OldFilesDir) {
			u.result.Quarantined++
		}
	}
}

// prune sets aside platform files the consuming project does not use.
func (u *Updater) prune() {
	logger.Info("[INFO] Moving unused SDK files into %s\n", u.cfg.UnusedFilesDir)
	for _, p := range u.cfg.Prune {
		src, ok := u.installPath(p)
		if !ok {
			continue
		}
		if u.quarantine(src, u.cfg.UnusedFilesDir) {
			u.result.Pruned++
		}
	}
}
