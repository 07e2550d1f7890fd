package installer

import (
	"path/filepath"

	"sdk-updater/internal/logger"
	"sdk-updater/internal/state"
)

// installSubtrees copies each configured subtree from the extracted layout
// into the install root. An existing destination is reported, never merged.
func (u *Updater) installSubtrees(layoutRoot string) {
	logger.Info("[INFO] Copying new SDK files into %s\n", u.cfg.InstallRoot)
	for _, s := range u.cfg.Subtrees {
		src := filepath.Join(layoutRoot, s)
		dst, ok := u.installPath(s)
		if !ok {
			continue
		}

		logger.Debug("[DEBUG] installSubtrees: copying %s to %s\n", src, dst)
		if err := CopyAll(u.fs, src, dst); err != nil {
			u.fail("[ERROR] Failed to copy %s to %s: %v\n", src, dst, err)
			continue
		}
		u.journal.Record(state.OpCopy, src, dst)
		u.result.Installed++
		logger.Info("[INFO] - Copied %s to %s\n", src, dst)
	}
}

// applyRenames restructures the freshly installed tree to what the consuming
// project expects, e.g. SDK/Bin becomes SDK/Plugins.
func (u *Updater) applyRenames() {
	for _, r := range u.cfg.Renames {
		from, ok := u.installPath(r.From)
		if !ok {
			continue
		}
		to, ok := u.installPath(r.To)
		if !ok {
			continue
		}

		logger.Info("[INFO] Renaming %s to %s\n", from, to)
		if u.move(from, to) {
			u.result.Renamed++
		}

		if u.cfg.SidecarSuffix == "" {
			continue
		}
		sidecar := from + u.cfg.SidecarSuffix
		if exists(u.fs, sidecar) {
			u.move(sidecar, to+u.cfg.SidecarSuffix)
		}
	}
}
