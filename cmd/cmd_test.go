package cmd

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdk-updater/internal/installer"
	"sdk-updater/internal/logger"
)

// runCLI executes the root command with args the way Execute does and returns
// stdout and the log output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	debug, configPath, workdir = false, "", ""

	var logs, stdout bytes.Buffer
	noColor := color.NoColor
	color.NoColor = true
	prev := logger.SetOutput(&logs)
	defer func() {
		logger.SetOutput(prev)
		color.NoColor = noColor
	}()

	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		reportError(err)
	}
	return stdout.String(), logs.String(), err
}

// project creates <root>/Tools with an archive and <root>/Runtime/EOSSDK with
// an installed SDK, moves the process into an unrelated directory, and returns root.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	chdir(t, t.TempDir())

	installed := filepath.Join(root, "Runtime", "EOSSDK", "SDK", "Plugins")
	require.NoError(t, os.MkdirAll(installed, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(installed, "EOSSDK-Win64-Shipping.dll"), []byte("v1"), 0644))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"SDK/Bin/EOSSDK-Win64-Shipping.dll": "v2",
		"ThirdPartyNotices/notices.txt":     "notices",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Tools"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Tools", "EOSUpdate.zip"), buf.Bytes(), 0644))
	return root
}

func TestRoot_NoArgsRunsUpdate(t *testing.T) {
	root := project(t)

	_, logs, err := runCLI(t, "-C", filepath.Join(root, "Tools"))
	require.NoError(t, err)
	assert.Contains(t, logs, "Update complete!")

	data, err := os.ReadFile(filepath.Join(root, "Runtime", "EOSSDK", "SDK", "Plugins", "EOSSDK-Win64-Shipping.dll"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestUpdate_MissingArchiveFails(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, logs, err := runCLI(t, "update")
	require.ErrorIs(t, err, installer.ErrArchiveMissing)
	assert.Contains(t, logs, "No EOSUpdate.zip found")
	assert.Equal(t, 1, strings.Count(logs, "[ERROR]"), "fatal error printed once:\n%s", logs)
}

func TestRollback_AfterUpdate(t *testing.T) {
	root := project(t)
	tools := filepath.Join(root, "Tools")

	_, _, err := runCLI(t, "-C", tools, "update")
	require.NoError(t, err)

	_, logs, err := runCLI(t, "-C", tools, "rollback")
	require.NoError(t, err)
	assert.Contains(t, logs, "Rollback complete!")

	data, err := os.ReadFile(filepath.Join(root, "Runtime", "EOSSDK", "SDK", "Plugins", "EOSSDK-Win64-Shipping.dll"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
	assert.NoDirExists(t, filepath.Join(root, "Runtime", "EOSSDK", "ThirdPartyNotices"))

	// A second rollback finds nothing left to undo.
	_, logs, err = runCLI(t, "-C", tools, "rollback")
	require.NoError(t, err)
	assert.Contains(t, logs, "Nothing to roll back")
}

func TestConfig_PrintsEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("custom.yaml", []byte("archive: EOS-SDK.zip\n"), 0644))

	out, _, err := runCLI(t, "config", "--config", "custom.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "archive: EOS-SDK.zip")
	assert.Contains(t, out, "old_files_dir: OldSDKFiles")
}

func TestConfig_MissingExplicitFileFails(t *testing.T) {
	chdir(t, t.TempDir())

	_, logs, err := runCLI(t, "config", "-c", "nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
	assert.Contains(t, logs, "[ERROR] failed to read config nope.yaml")
}

// chdir changes the working directory to dir for the duration of the test,
// restoring the previous directory on cleanup (stands in for testing.T.Chdir,
// which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
