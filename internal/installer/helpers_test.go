package installer_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"sdk-updater/internal/logger"
)

var fixtureTime = time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)

// captureLog sends log output to a buffer for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	noColor := color.NoColor
	color.NoColor = true
	prev := logger.SetOutput(&buf)
	t.Cleanup(func() {
		logger.SetOutput(prev)
		color.NoColor = noColor
	})
	return &buf
}

// writeTree creates files below root; keys are slash-separated relative paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

// readTree returns every regular file below root keyed by slash-separated relative path.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

// listPaths returns every path below root, directories included, sorted.
func listPaths(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

// writeZip builds a zip archive at path from slash-separated names.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: fixtureTime}
		hdr.SetMode(0644)
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = io.WriteString(w, files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

// writeTar builds a tar archive at path, compressed according to its suffix
// (.tar, .tar.gz or .tar.xz).
func writeTar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var members []tarMember
	for _, name := range sortedKeys(files) {
		members = append(members, tarMember{
			hdr:     tar.Header{Name: name, Mode: 0755, ModTime: fixtureTime, Typeflag: tar.TypeReg},
			content: files[name],
		})
	}
	writeTarMembers(t, path, members)
}

// tarMember is one header and its content for writeTarMembers.
type tarMember struct {
	hdr     tar.Header
	content string
}

// writeTarMembers writes members in order, compressed like writeTar.
func writeTarMembers(t *testing.T, path string, members []tarMember) {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := m.hdr
		hdr.Size = int64(len(m.content))
		require.NoError(t, tw.WriteHeader(&hdr))
		_, err := io.WriteString(tw, m.content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	data := buf.Bytes()
	switch {
	case strings.HasSuffix(path, ".tar.gz"):
		var out bytes.Buffer
		gw := gzip.NewWriter(&out)
		_, err := gw.Write(data)
		require.NoError(t, err)
		require.NoError(t, gw.Close())
		data = out.Bytes()
	case strings.HasSuffix(path, ".tar.xz"):
		var out bytes.Buffer
		xw, err := xz.NewWriter(&out)
		require.NoError(t, err)
		_, err = xw.Write(data)
		require.NoError(t, err)
		require.NoError(t, xw.Close())
		data = out.Bytes()
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// copyFixture copies a file from testdata to path. Fixtures cover formats
// without a writer in the standard library.
func copyFixture(name string) func(t *testing.T, path string, files map[string]string) {
	fixture, err := filepath.Abs(filepath.Join("testdata", name))
	return func(t *testing.T, path string, _ map[string]string) {
		t.Helper()
		require.NoError(t, err)
		data, err := os.ReadFile(fixture)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0644))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
