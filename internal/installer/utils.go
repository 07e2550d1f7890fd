package installer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/spf13/afero"

	"sdk-updater/internal/logger"
)

var (
	// ErrSourceMissing is returned when the path to copy or move does not exist.
	ErrSourceMissing = errors.New("source path does not exist")
	// ErrDestinationExists is returned instead of overwriting or merging into an existing path.
	ErrDestinationExists = errors.New("destination already exists")
)

// exists reports whether path is present on fsys. Errors other than
// "not exist" count as present so callers never treat an unreadable path as free.
func exists(fsys afero.Fs, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// CopyAll copies src to dst, recursing into directories. Modes and
// modification times are preserved. dst must not exist yet.
func CopyAll(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, src)
	}
	if err != nil {
		return err
	}
	if exists(fsys, dst) {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}

	if !info.IsDir() {
		if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("mkdir failed: %w", err)
		}
		return copyFile(fsys, src, dst, info)
	}
	return copyTree(fsys, src, dst)
}

// copyTree copies the directory src to dst. Directory modes and times are
// applied last: creating entries updates a directory's time, and a read-only
// source directory would otherwise block its own children.
func copyTree(fsys afero.Fs, src, dst string) error {
	var dirs []dirTime

	err := afero.Walk(fsys, src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			if err := fsys.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("mkdir failed: %w", err)
			}
			dirs = append(dirs, dirTime{path: target, modTime: info.ModTime(), perm: info.Mode().Perm()})
		case info.Mode().IsRegular():
			return copyFile(fsys, path, target, info)
		default:
			logger.Warn("[WARN] Skipping non-regular file %s (%s)\n", path, info.Mode().Type())
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first, so a parent losing its write bit does not stop its children.
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := fsys.Chmod(d.path, d.perm); err != nil {
			return err
		}
		if err := fsys.Chtimes(d.path, d.modTime, d.modTime); err != nil {
			logger.Debug("[DEBUG] Could not set times on %s: %v\n", d.path, err)
		}
	}
	return nil
}

// copyFile copies a single regular file, refusing to overwrite dst, and then
// restores the source mode and modification time on the copy.
func copyFile(fsys afero.Fs, src, dst string, info fs.FileInfo) error {
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm()|0200)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("create target failed: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy failed: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close target failed: %w", err)
	}

	if err := fsys.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return fsys.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Move relocates src to dst, creating dst's parent first. It refuses to
// replace an existing dst. When a rename cannot cross filesystems the tree is
// copied and the source removed only after the copy succeeded.
func Move(fsys afero.Fs, src, dst string) error {
	if _, err := fsys.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return err
	}
	if exists(fsys, dst) {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	err := fsys.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	logger.Debug("[DEBUG] Rename across devices, copying %s to %s\n", src, dst)
	if err := CopyAll(fsys, src, dst); err != nil {
		return err
	}
	return fsys.RemoveAll(src)
}

// ScopedPath joins rel below root the way filepath.Join does, except that
// symlinks in rel's parent directories are resolved with root treated as the
// filesystem root. A symlinked SDK/Plugins therefore cannot send a move of
// SDK/Plugins/Android outside root. The last element is kept as is, so a
// symlink there is moved as a link rather than followed.
// The result keeps root's original (possibly relative) spelling.
func ScopedPath(fsys afero.Fs, root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rel = filepath.Clean(filepath.FromSlash(rel))
	parent, err := securejoin.SecureJoinVFS(absRoot, filepath.Dir(rel), aferoVFS{fsys})
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s below %s: %w", rel, root, err)
	}
	inside, err := filepath.Rel(absRoot, parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, inside, filepath.Base(rel)), nil
}

// aferoVFS lets securejoin inspect symlinks through an afero.Fs. Filesystems
// without symlink support report plain Stat results, so nothing is a link.
type aferoVFS struct {
	fs afero.Fs
}

func (v aferoVFS) Lstat(name string) (os.FileInfo, error) {
	if l, ok := v.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return v.fs.Stat(name)
}

func (v aferoVFS) Readlink(name string) (string, error) {
	if r, ok := v.fs.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(name)
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
}
