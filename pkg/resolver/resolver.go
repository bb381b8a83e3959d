// Package resolver converts accumulated story items into download tasks.
// It is pure: no I/O, operating entirely on in-memory structures, so the
// same items always resolve to the same tasks whether they came from a
// live traversal or a reloaded snapshot.
package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"dojofetch/pkg/dojo"
)

// dateLayout is the MM-DD-YYYY prefix of every downloaded filename.
const dateLayout = "01-02-2006"

// Task is a single unit of download work: fetch SourceURL, write the
// body to DestPath. Two attachments may resolve to the same DestPath;
// the storage collision policy decides what happens then.
type Task struct {
	SourceURL string
	DestPath  string
}

// Tasks filters items against the cutoff and derives one task per
// attachment of every kept item. Items strictly later than the cutoff
// are kept; a zero cutoff keeps everything. Item order and attachment
// order are preserved.
func Tasks(items []dojo.StoryItem, after time.Time, outputRoot string) ([]Task, error) {
	var tasks []Task

	for i := range items {
		item := &items[i]

		ts, err := item.ParsedTime()
		if err != nil {
			return nil, fmt.Errorf("item %d has malformed timestamp %q: %w", i, item.Time, err)
		}

		if !after.IsZero() && !ts.After(after) {
			continue
		}

		if len(item.Contents.Attachments) == 0 {
			continue
		}

		group := SanitizeGroup(item.HeaderSubtext)
		datePrefix := ts.Format(dateLayout)

		for _, att := range item.Contents.Attachments {
			name := attachmentFilename(att)
			tasks = append(tasks, Task{
				SourceURL: att.Path,
				DestPath:  filepath.Join(outputRoot, group, datePrefix+"-"+name),
			})
		}
	}

	return tasks, nil
}

// attachmentFilename prefers the server-supplied filename and falls back
// to deriving one from the URL.
func attachmentFilename(att dojo.Attachment) string {
	if att.Metadata != nil && att.Metadata.Filename != "" {
		return att.Metadata.Filename
	}
	return FilenameFromURL(att.Path)
}

// FilenameFromURL derives a filename from an attachment URL. The leading
// bucket-style prefix components of the path are dropped, the remaining
// segments are joined with underscores, and hyphens become underscores.
func FilenameFromURL(rawURL string) string {
	segs := urlPathSegments(rawURL)
	if len(segs) > 2 {
		segs = segs[2:]
	} else if len(segs) > 0 {
		segs = segs[len(segs)-1:]
	}

	name := strings.Join(segs, "_")
	return strings.ReplaceAll(name, "-", "_")
}

// urlPathSegments splits the path of a URL into its components.
func urlPathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Untrusted input; fall back to the last raw slash-separated
		// piece rather than failing the whole item.
		parts := strings.Split(rawURL, "/")
		return parts[len(parts)-1:]
	}

	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// SanitizeGroup replaces path-separator characters in the group label
// with underscores so untrusted label text cannot create subdirectories.
func SanitizeGroup(group string) string {
	group = strings.ReplaceAll(group, "/", "_")
	return strings.ReplaceAll(group, "\\", "_")
}
