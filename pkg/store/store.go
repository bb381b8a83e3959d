package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dojofetch/pkg/dojo"
)

// SnapshotFilename is the fixed name of the persisted feed snapshot
// under the output root.
const SnapshotFilename = "data.json"

// ErrDestinationExists is returned by SaveFile under the fail collision
// policy when the computed destination path is already occupied.
var ErrDestinationExists = errors.New("destination file already exists")

// CollisionPolicy decides what happens when two downloads compute the
// same destination path.
type CollisionPolicy int

const (
	// Overwrite keeps last-write-wins semantics.
	Overwrite CollisionPolicy = iota
	// Skip leaves the existing file untouched.
	Skip
	// Fail rejects the write with ErrDestinationExists.
	Fail
)

// ParseCollisionPolicy converts a policy name to a CollisionPolicy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "overwrite", "":
		return Overwrite, nil
	case "skip":
		return Skip, nil
	case "fail":
		return Fail, nil
	default:
		return Overwrite, fmt.Errorf("unknown collision policy %q", s)
	}
}

// Manager handles all writes under the output root: the feed snapshot
// and the downloaded attachments. Directory creation is idempotent and
// safe under concurrent callers targeting different subpaths.
type Manager struct {
	root   string
	policy CollisionPolicy
}

// NewManager creates a storage manager rooted at the given directory,
// creating it if needed.
func NewManager(root string, policy CollisionPolicy) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		root:   root,
		policy: policy,
	}, nil
}

// Root returns the output root directory.
func (m *Manager) Root() string {
	return m.root
}

// SaveFile writes the reader's content to destPath, creating intermediate
// directories as needed. destPath must already be under the output root
// (the resolver constructs it that way). Returns whether the file was
// written: false means the skip policy left an existing file in place.
func (m *Manager) SaveFile(r io.Reader, destPath string) (bool, error) {
	if _, err := os.Stat(destPath); err == nil {
		switch m.policy {
		case Skip:
			return false, nil
		case Fail:
			return false, fmt.Errorf("%w: %s", ErrDestinationExists, destPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := writeAtomic(destPath, r); err != nil {
		return false, err
	}

	return true, nil
}

// writeAtomic writes through a temp file and renames into place so a
// failed download never leaves a truncated file behind.
func writeAtomic(destPath string, r io.Reader) error {
	tempFile := destPath + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, destPath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// SnapshotPath returns the path of the feed snapshot file.
func (m *Manager) SnapshotPath() string {
	return filepath.Join(m.root, SnapshotFilename)
}

// SnapshotExists reports whether a previously saved snapshot is on disk.
func (m *Manager) SnapshotExists() bool {
	info, err := os.Stat(m.SnapshotPath())
	return err == nil && !info.IsDir()
}

// SaveSnapshot persists the accumulated feed items wholesale as a
// pretty-printed JSON array, overwriting any previous snapshot. Items
// are written exactly as received from the server.
func (m *Manager) SaveSnapshot(items []dojo.StoryItem) error {
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := writeAtomic(m.SnapshotPath(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads the whole persisted snapshot back into memory.
func (m *Manager) LoadSnapshot() ([]dojo.StoryItem, error) {
	data, err := os.ReadFile(m.SnapshotPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var items []dojo.StoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return items, nil
}
