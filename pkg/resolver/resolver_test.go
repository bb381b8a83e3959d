package resolver

import (
	"path/filepath"
	"testing"
	"time"

	"dojofetch/pkg/dojo"
)

func item(ts, group string, urls ...string) dojo.StoryItem {
	var atts []dojo.Attachment
	for _, u := range urls {
		atts = append(atts, dojo.Attachment{Path: u})
	}
	return dojo.StoryItem{
		Time:          ts,
		HeaderSubtext: group,
		Contents:      dojo.Contents{Attachments: atts},
	}
}

func TestTasksCutoffFilter(t *testing.T) {
	items := []dojo.StoryItem{
		item("2018-01-01T10:00:00Z", "Class A", "https://cdn.example.com/b/x/y/jan.jpg"),
		item("2018-08-01T10:00:00Z", "Class A", "https://cdn.example.com/b/x/y/aug.jpg"),
		item("2019-01-01T10:00:00Z", "Class A", "https://cdn.example.com/b/x/y/next.jpg"),
	}

	after := time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)

	tasks, err := Tasks(items, after, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].SourceURL != "https://cdn.example.com/b/x/y/aug.jpg" {
		t.Errorf("Expected first kept task to be the August item, got %s", tasks[0].SourceURL)
	}
	if tasks[1].SourceURL != "https://cdn.example.com/b/x/y/next.jpg" {
		t.Errorf("Expected second kept task to be the 2019 item, got %s", tasks[1].SourceURL)
	}
}

func TestTasksCutoffIsStrict(t *testing.T) {
	items := []dojo.StoryItem{
		item("2018-07-01T00:00:00Z", "Class A", "https://cdn.example.com/b/x/y/boundary.jpg"),
	}

	after := time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)

	tasks, err := Tasks(items, after, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Item exactly at the cutoff should be excluded, got %d tasks", len(tasks))
	}
}

func TestTasksZeroCutoffKeepsEverything(t *testing.T) {
	items := []dojo.StoryItem{
		item("2015-03-04T10:00:00Z", "Class A", "https://cdn.example.com/b/x/y/old.jpg"),
		item("2020-05-10T10:00:00Z", "Class A", "https://cdn.example.com/b/x/y/new.jpg"),
	}

	tasks, err := Tasks(items, time.Time{}, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks with zero cutoff, got %d", len(tasks))
	}
}

func TestTasksDestinationPath(t *testing.T) {
	items := []dojo.StoryItem{
		item("2020-05-10T14:30:00Z", "Room A/B", "https://host/bucket/x/img.png"),
	}

	tasks, err := Tasks(items, time.Time{}, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}

	expected := filepath.Join("out", "Room A_B", "05-10-2020-img.png")
	if tasks[0].DestPath != expected {
		t.Errorf("Expected destination %q, got %q", expected, tasks[0].DestPath)
	}
}

func TestTasksMalformedTimestamp(t *testing.T) {
	items := []dojo.StoryItem{
		item("not-a-timestamp", "Class A", "https://cdn.example.com/b/x/y/file.jpg"),
	}

	if _, err := Tasks(items, time.Time{}, "out"); err == nil {
		t.Error("Expected error for malformed timestamp")
	}
}

func TestTasksSkipsItemsWithoutAttachments(t *testing.T) {
	items := []dojo.StoryItem{
		item("2020-05-10T10:00:00Z", "Class A"),
		item("2020-05-11T10:00:00Z", "Class A", "https://cdn.example.com/b/x/y/one.jpg"),
	}

	tasks, err := Tasks(items, time.Time{}, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(tasks))
	}
}

func TestTasksPrefersMetadataFilename(t *testing.T) {
	it := item("2020-05-10T10:00:00Z", "Class A")
	it.Contents.Attachments = []dojo.Attachment{
		{
			Path:     "https://cdn.example.com/bucket/x/y/abc123.jpg",
			Metadata: &dojo.AttachmentMetadata{Filename: "field_trip.jpg"},
		},
	}

	tasks, err := Tasks([]dojo.StoryItem{it}, time.Time{}, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}

	expected := filepath.Join("out", "Class A", "05-10-2020-field_trip.jpg")
	if tasks[0].DestPath != expected {
		t.Errorf("Expected destination %q, got %q", expected, tasks[0].DestPath)
	}
}

func TestTasksMultipleAttachmentsPreserveOrder(t *testing.T) {
	items := []dojo.StoryItem{
		item("2020-05-10T10:00:00Z", "Class A",
			"https://cdn.example.com/b/x/y/first.jpg",
			"https://cdn.example.com/b/x/y/second.jpg",
			"https://cdn.example.com/b/x/y/third.jpg",
		),
	}

	tasks, err := Tasks(items, time.Time{}, "out")
	if err != nil {
		t.Fatalf("Tasks returned error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}

	wantOrder := []string{"first.jpg", "second.jpg", "third.jpg"}
	for i, want := range wantOrder {
		if tasks[i].SourceURL != "https://cdn.example.com/b/x/y/"+want {
			t.Errorf("Task %d out of order: got %s", i, tasks[i].SourceURL)
		}
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "bucket prefix dropped and hyphens replaced",
			url:      "https://host/bucket/x/y/photo-1.jpg",
			expected: "y_photo_1.jpg",
		},
		{
			name:     "short path keeps last segment",
			url:      "https://host/bucket/img.png",
			expected: "img.png",
		},
		{
			name:     "single segment",
			url:      "https://host/img.png",
			expected: "img.png",
		},
		{
			name:     "deep path joins remaining segments",
			url:      "https://host/a/b/c/d/e.mp4",
			expected: "c_d_e.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilenameFromURL(tt.url)
			if got != tt.expected {
				t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestSanitizeGroup(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Room A/B", "Room A_B"},
		{"Room A\\B", "Room A_B"},
		{"../escape", ".._escape"},
		{"Plain Class", "Plain Class"},
	}

	for _, tt := range tests {
		if got := SanitizeGroup(tt.in); got != tt.expected {
			t.Errorf("SanitizeGroup(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
