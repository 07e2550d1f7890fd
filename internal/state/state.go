package state

import (
	"encoding/json" // For JSON encoding and decoding of the journal file
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/afero"

	"sdk-updater/internal/logger"
)

// Op identifies a reversible filesystem action.
type Op string

const (
	// OpMove records a rename (or copy-then-remove) from From to To.
	OpMove Op = "move"
	// OpCopy records a fresh copy of From at To; From is left in place.
	OpCopy Op = "copy"
)

// Entry is one recorded action of an update run.
type Entry struct {
	Op   Op        `json:"op"`   // Kind of action
	From string    `json:"from"` // Source path as the update saw it
	To   string    `json:"to"`   // Destination path created by the action
	Time time.Time `json:"time"` // When the action completed
}

// Journal is the ordered list of actions performed by the last update run.
// Entries are undone in reverse order by a rollback.
type Journal struct {
	Archive string  `json:"archive,omitempty"` // Archive the run installed from
	Entries []Entry `json:"entries"`
}

// Record appends a completed action to the journal.
func (j *Journal) Record(op Op, from, to string) {
	j.Entries = append(j.Entries, Entry{Op: op, From: from, To: to, Time: time.Now()})
}

// Len reports how many actions are recorded.
func (j *Journal) Len() int {
	return len(j.Entries)
}

// LoadJournal loads the saved journal from a JSON file at the given path.
// If the file does not exist it returns an empty journal.
// A file that exists but cannot be parsed is an error, since rolling back
// from a partial journal could leave the SDK half restored.
func LoadJournal(fsys afero.Fs, path string) (*Journal, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Journal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", path, err)
	}

	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse journal %s: %w", path, err)
	}
	return &j, nil
}

// SaveJournal writes the journal to a JSON file at the given path.
// It pretty-prints the JSON with indentation so operators can read it.
func SaveJournal(fsys afero.Fs, path string, j *Journal) error {
	if j.Entries == nil {
		j.Entries = []Entry{}
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	logger.Debug("[DEBUG] Writing journal to %s (%d entries)\n", path, len(j.Entries))

	if err := afero.WriteFile(fsys, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write journal %s: %w", path, err)
	}
	return nil
}
