package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/spf13/afero"
	"github.com/xi2/xz" // For reading .xz compressed data

	"sdk-updater/internal/logger"
)

// ErrUnsafeEntry is returned for archive entries that would land outside the
// extraction directory (absolute names or ".." components).
var ErrUnsafeEntry = errors.New("archive entry escapes extraction directory")

// archiveEntry is one member of an archive, independent of the archive format.
// link is set for tar hard links and names an earlier member.
type archiveEntry struct {
	name string
	link string
	info fs.FileInfo
	open func() (io.ReadCloser, error)
}

// ExtractArchive routes to the appropriate reader based on the archive suffix
// and writes every member below dest. It returns the number of regular files written.
func ExtractArchive(fsys afero.Fs, src, dest string) (int, error) {
	x := &extraction{fsys: fsys, dest: dest}
	if err := walkArchive(fsys, src, x.write); err != nil {
		return x.files, err
	}
	x.restoreDirTimes()
	return x.files, nil
}

// walkArchive calls fn for every member of src, in archive order.
func walkArchive(fsys afero.Fs, src string, fn func(archiveEntry) error) error {
	name := strings.ToLower(src)
	switch {
	case strings.HasSuffix(name, ".zip"):
		logger.Debug("[DEBUG] compression type is zip\n")
		return walkZip(fsys, src, fn)
	case strings.HasSuffix(name, ".7z"):
		logger.Debug("[DEBUG] compression type is .7z\n")
		return walk7z(fsys, src, fn)
	case strings.HasSuffix(name, ".tar"), strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"),
		strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tar.xz"):
		logger.Debug("[DEBUG] compression type is .tar.*\n")
		return walkTar(fsys, src, fn)
	default:
		return fmt.Errorf("unsupported archive format: %s", src)
	}
}

// openSized opens src and reports its size, as required by the random-access
// zip and 7z readers.
func openSized(fsys afero.Fs, src string) (afero.File, int64, error) {
	f, err := fsys.Open(src)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// walkZip reads a .zip archive
func walkZip(fsys afero.Fs, src string, fn func(archiveEntry) error) error {
	f, size, err := openSized(fsys, src)
	if err != nil {
		return err
	}
	defer f.Close()

	// Insecure names are rejected per entry by extraction.write.
	r, err := zip.NewReader(f, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	for _, zf := range r.File {
		if err := fn(archiveEntry{name: zf.Name, info: zf.FileInfo(), open: zf.Open}); err != nil {
			return err
		}
	}
	return nil
}

// walk7z reads a .7z archive using the sevenzip library
func walk7z(fsys afero.Fs, src string, fn func(archiveEntry) error) error {
	f, size, err := openSized(fsys, src)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := sevenzip.NewReader(f, size)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	for _, sf := range r.File {
		if err := fn(archiveEntry{name: sf.Name, info: sf.FileInfo(), open: sf.Open}); err != nil {
			return err
		}
	}
	return nil
}

// walkTar handles tar and compressed tar variants
func walkTar(fsys afero.Fs, src string, fn func(archiveEntry) error) error {
	f, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	name := strings.ToLower(src)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(name, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(name, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil // End of archive
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return err
		}

		entry := archiveEntry{
			name: hdr.Name,
			info: hdr.FileInfo(),
			open: func() (io.ReadCloser, error) { return io.NopCloser(tr), nil },
		}
		switch hdr.Typeflag {
		case tar.TypeXGlobalHeader:
			// Archive-wide pax records (git archive writes one), not a file.
			logger.Debug("[DEBUG] Skipping pax global header %s\n", hdr.Name)
			continue
		case tar.TypeLink:
			entry.link = hdr.Linkname
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}

// extraction writes archive members into dest on fsys.
type extraction struct {
	fsys  afero.Fs
	dest  string
	files int
	dirs  []dirTime
}

type dirTime struct {
	path    string
	modTime time.Time
	perm    fs.FileMode
}

func (x *extraction) write(e archiveEntry) error {
	rel := filepath.FromSlash(strings.TrimSuffix(e.name, "/"))
	if rel == "" || rel == "." {
		return nil
	}
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("%w: %s", ErrUnsafeEntry, e.name)
	}
	// dest is new and extraction writes no symlinks.
	target := filepath.Join(x.dest, rel)

	mode := e.info.Mode()
	switch {
	case e.link != "":
		return x.writeHardLink(target, e)
	case mode.IsDir():
		if err := x.fsys.MkdirAll(target, 0755); err != nil {
			return err
		}
		x.dirs = append(x.dirs, dirTime{path: target, modTime: e.info.ModTime()})
		return nil
	case mode.IsRegular():
		return x.writeFile(target, e)
	default:
		// Symlinks and devices are not part of an SDK drop.
		logger.Warn("[WARN] Skipping non-regular archive entry %s (%s)\n", e.name, mode.Type())
		return nil
	}
}

// writeHardLink extracts a tar hard link as a copy of the member it points to,
// which must already have been written.
func (x *extraction) writeHardLink(target string, e archiveEntry) error {
	linked := filepath.FromSlash(e.link)
	if !filepath.IsLocal(linked) {
		return fmt.Errorf("%w: %s links to %s", ErrUnsafeEntry, e.name, e.link)
	}
	src := filepath.Join(x.dest, linked)
	info, err := x.fsys.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("hard link %s points to %s, which was not extracted before it", e.name, e.link)
	}

	e.open = func() (io.ReadCloser, error) { return x.fsys.Open(src) }
	return x.writeFile(target, e)
}

// writeFile writes one regular member and restores its mode and modification time.
func (x *extraction) writeFile(target string, e archiveEntry) error {
	if err := x.fsys.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	perm := e.info.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}

	rc, err := e.open()
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", e.name, err)
	}
	defer rc.Close()

	out, err := x.fsys.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", e.name, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := x.fsys.Chmod(target, perm); err != nil {
		return err
	}
	if mt := e.info.ModTime(); !mt.IsZero() {
		if err := x.fsys.Chtimes(target, mt, mt); err != nil {
			return err
		}
	}
	x.files++
	logger.Debug("[DEBUG] Extracted %s\n", target)
	return nil
}

// restoreDirTimes applies directory modification times once all files are
// written, since creating a child bumps its directory's time.
func (x *extraction) restoreDirTimes() {
	for _, d := range x.dirs {
		if d.modTime.IsZero() {
			continue
		}
		if err := x.fsys.Chtimes(d.path, d.modTime, d.modTime); err != nil {
			logger.Debug("[DEBUG] Could not set times on %s: %v\n", d.path, err)
		}
	}
}
