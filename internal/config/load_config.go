package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no --config flag is given.
const DefaultConfigFile = "sdk-updater.yaml"

// Default returns the layout used by the EOS plugin: the tool runs from the
// plugin's Tools folder and the SDK lives in ../Runtime/EOSSDK.
func Default() Config {
	return Config{
		Archive:     "EOSUpdate.zip",
		ExtractDir:  "EOSUpdateExtracted",
		InstallRoot: "../Runtime/EOSSDK",
		Subtrees:    []string{"SDK", "ThirdPartyNotices"},
		Renames: []Rename{
			{From: "SDK/Bin", To: "SDK/Plugins"},
		},
		Prune: []string{
			"SDK/Tools",
			"SDK/Plugins/Android",
			"SDK/Plugins/IOS",
			"SDK/Plugins/libEOSSDK-LinuxArm64-Shipping.so",
		},
		OldFilesDir:    "OldSDKFiles",
		UnusedFilesDir: "UnusedSDKUpdateFiles",
		SidecarSuffix:  ".meta",
		JournalFile:    "sdk-update-journal.json",
	}
}

// LoadConfig reads a YAML config file from fsys and overlays it on Default().
// Keys missing from the file keep their default values; lists given in the file
// replace the default lists entirely.
//
// When required is false a missing file is not an error and the defaults are
// returned as-is. Unknown keys are rejected so a misspelled key does not
// silently fall back to its default. The result is always validated.
func LoadConfig(fsys afero.Fs, path string, required bool) (Config, error) {
	cfg := Default()

	raw, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
		return cfg, cfg.Validate()
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML, in the same shape LoadConfig accepts.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
