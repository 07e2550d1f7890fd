package main

import (
	"sdk-updater/cmd" // Import the cmd package which contains the CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// sdk-updater replaces the EOS SDK files vendored inside a project's plugin folder:
//   - Extracts the downloaded SDK archive (EOSUpdate.zip by default) next to the tool
//   - Moves the installed SDK and ThirdPartyNotices folders into OldSDKFiles instead of deleting them
//   - Copies the new files in, renames SDK/Bin to SDK/Plugins, and moves platform files
//     the project does not ship (Android, iOS, Linux ARM, SDK tools) into UnusedSDKUpdateFiles
//   - Moves each path's .meta sidecar along with it so the editor keeps no orphaned references
//   - Journals every move and copy so `sdk-updater rollback` can put the previous SDK back
//
// Error handling strategy:
//   - A missing archive or an unexpected archive layout stops the run before the installed SDK is touched
//   - Failures after that point are logged and the run continues, so one locked file
//     does not leave the rest of the SDK half migrated
func main() {
	cmd.Execute()
}
