package config

// Config describes one SDK update run. Every path is either absolute or relative
// to the working directory the tool runs from (the project's Tools folder by default).
type Config struct {
	// Archive is the downloaded SDK archive, e.g. EOSUpdate.zip.
	Archive string `yaml:"archive"`
	// ExtractDir is created by extraction and is never written back to afterwards.
	ExtractDir string `yaml:"extract_dir"`
	// InstallRoot holds the installed SDK subtrees, e.g. ../Runtime/EOSSDK.
	InstallRoot string `yaml:"install_root"`

	// Subtrees are the top-level entries quarantined from InstallRoot and
	// then copied in from the extracted archive.
	Subtrees []string `yaml:"subtrees"`
	// Renames are applied inside InstallRoot once the new files are copied.
	Renames []Rename `yaml:"renames"`
	// Prune lists paths inside InstallRoot the consuming project does not need.
	Prune []string `yaml:"prune"`

	// OldFilesDir receives the previous installation.
	OldFilesDir string `yaml:"old_files_dir"`
	// UnusedFilesDir receives pruned platform subtrees.
	UnusedFilesDir string `yaml:"unused_files_dir"`

	// SidecarSuffix names the editor metadata file that travels with each
	// relocated path (path + suffix).
	SidecarSuffix string `yaml:"sidecar_suffix"`

	// JournalFile records every move and copy of the last run for rollback.
	JournalFile string `yaml:"journal_file"`
}

// Rename moves From to To, both relative to the install root.
// - From: e.g. SDK/Bin
// - To: e.g. SDK/Plugins
type Rename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}
