package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dojofetch/pkg/dojo"
)

func TestSaveFileCreatesDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	manager, err := NewManager(tmpDir, Overwrite)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	dest := filepath.Join(tmpDir, "Class A", "05-10-2020-photo.jpg")
	written, err := manager.SaveFile(strings.NewReader("photo data"), dest)
	if err != nil {
		t.Fatalf("SaveFile returned error: %v", err)
	}
	if !written {
		t.Error("Expected written=true for a new file")
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(data) != "photo data" {
		t.Errorf("Unexpected file content: %q", string(data))
	}
}

func TestSaveFileNoTempFileLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()

	manager, err := NewManager(tmpDir, Overwrite)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	dest := filepath.Join(tmpDir, "file.jpg")
	if _, err := manager.SaveFile(strings.NewReader("data"), dest); err != nil {
		t.Fatalf("SaveFile returned error: %v", err)
	}

	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file should not remain after a successful save")
	}
}

func TestCollisionPolicyOverwrite(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Overwrite)
	dest := filepath.Join(tmpDir, "file.jpg")

	if _, err := manager.SaveFile(strings.NewReader("first"), dest); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	written, err := manager.SaveFile(strings.NewReader("second"), dest)
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if !written {
		t.Error("Overwrite policy should report written=true")
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "second" {
		t.Errorf("Expected last write to win, got %q", string(data))
	}
}

func TestCollisionPolicySkip(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Skip)
	dest := filepath.Join(tmpDir, "file.jpg")

	if _, err := manager.SaveFile(strings.NewReader("first"), dest); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	written, err := manager.SaveFile(strings.NewReader("second"), dest)
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if written {
		t.Error("Skip policy should report written=false for an existing file")
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "first" {
		t.Errorf("Expected existing content preserved, got %q", string(data))
	}
}

func TestCollisionPolicyFail(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Fail)
	dest := filepath.Join(tmpDir, "file.jpg")

	if _, err := manager.SaveFile(strings.NewReader("first"), dest); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	_, err := manager.SaveFile(strings.NewReader("second"), dest)
	if !errors.Is(err, ErrDestinationExists) {
		t.Errorf("Expected ErrDestinationExists, got %v", err)
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CollisionPolicy
		wantErr bool
	}{
		{"overwrite", Overwrite, false},
		{"", Overwrite, false},
		{"skip", Skip, false},
		{"fail", Fail, false},
		{"bogus", Overwrite, true},
	}

	for _, tt := range tests {
		got, err := ParseCollisionPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCollisionPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseCollisionPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Overwrite)

	items := []dojo.StoryItem{
		{
			Time:          "2020-05-10T14:30:00Z",
			HeaderSubtext: "Class A",
			Contents: dojo.Contents{Attachments: []dojo.Attachment{
				{Path: "https://cdn.example.com/b/x/y/photo.jpg"},
			}},
		},
		{
			Time:          "2020-05-11T09:00:00Z",
			HeaderSubtext: "Class B",
		},
	}

	if err := manager.SaveSnapshot(items); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}

	if !manager.SnapshotExists() {
		t.Fatal("SnapshotExists should be true after SaveSnapshot")
	}

	loaded, err := manager.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}

	if len(loaded) != len(items) {
		t.Fatalf("Expected %d items, got %d", len(items), len(loaded))
	}
	for i := range items {
		if loaded[i].Time != items[i].Time {
			t.Errorf("Item %d time mismatch: %q vs %q", i, loaded[i].Time, items[i].Time)
		}
		if loaded[i].HeaderSubtext != items[i].HeaderSubtext {
			t.Errorf("Item %d group mismatch: %q vs %q", i, loaded[i].HeaderSubtext, items[i].HeaderSubtext)
		}
	}
	if len(loaded[0].Contents.Attachments) != 1 {
		t.Errorf("Expected 1 attachment on item 0, got %d", len(loaded[0].Contents.Attachments))
	}
}

func TestSnapshotPreservesUnknownFields(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Overwrite)

	// Raw server payload with fields the typed model does not declare
	raw := `[
    {
        "time": "2020-05-10T14:30:00Z",
        "headerSubtext": "Class A",
        "senderName": "Ms. Teacher",
        "likes": 12,
        "contents": {
            "body": "Field trip!",
            "attachments": [
                {
                    "path": "https://cdn.example.com/b/x/y/photo.jpg"
                }
            ]
        }
    }
]`

	var items []dojo.StoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("Failed to unmarshal raw payload: %v", err)
	}

	if err := manager.SaveSnapshot(items); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}

	data, err := os.ReadFile(manager.SnapshotPath())
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}

	for _, field := range []string{"senderName", "Ms. Teacher", "likes", "Field trip!"} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Snapshot dropped server field %q", field)
		}
	}
}

func TestSnapshotExistsFalseWithoutSnapshot(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Overwrite)
	if manager.SnapshotExists() {
		t.Error("SnapshotExists should be false in an empty root")
	}
	if _, err := manager.LoadSnapshot(); err == nil {
		t.Error("LoadSnapshot should fail when no snapshot exists")
	}
}

func TestSnapshotPath(t *testing.T) {
	tmpDir := t.TempDir()

	manager, _ := NewManager(tmpDir, Overwrite)
	want := filepath.Join(tmpDir, "data.json")
	if got := manager.SnapshotPath(); got != want {
		t.Errorf("SnapshotPath() = %q, want %q", got, want)
	}
}
