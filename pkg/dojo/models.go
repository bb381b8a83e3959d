package dojo

import (
	"encoding/json"
	"time"
)

// StoryFeed is one page of the story feed as returned by the API.
type StoryFeed struct {
	Items []StoryItem `json:"_items"`
	Links Links       `json:"_links"`
}

// Links holds the pagination cursors embedded in a feed page.
type Links struct {
	Prev *Link `json:"prev,omitempty"`
	Next *Link `json:"next,omitempty"`
}

// Link is a single hypermedia reference.
type Link struct {
	Href string `json:"href"`
}

// PrevHref returns the previous-page cursor URL, or "" when the feed
// has no older pages.
func (f *StoryFeed) PrevHref() string {
	if f.Links.Prev == nil {
		return ""
	}
	return f.Links.Prev.Href
}

// StoryItem is one unit of the story feed. The struct exposes the fields
// the pipeline needs; Raw keeps the item byte-for-byte as the server sent
// it so the snapshot can be persisted without losing unknown fields.
type StoryItem struct {
	Time          string   `json:"time"`
	HeaderSubtext string   `json:"headerSubtext"`
	Contents      Contents `json:"contents"`

	Raw json.RawMessage `json:"-"`
}

// Contents holds the downloadable parts of a story item.
type Contents struct {
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a single downloadable object referenced by a story item.
type Attachment struct {
	Path     string              `json:"path"`
	Metadata *AttachmentMetadata `json:"metadata,omitempty"`
}

// AttachmentMetadata carries the server-preferred filename when present.
type AttachmentMetadata struct {
	Filename string `json:"filename,omitempty"`
}

// UnmarshalJSON decodes the known fields and retains the original bytes.
func (s *StoryItem) UnmarshalJSON(data []byte) error {
	type alias StoryItem
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = StoryItem(a)
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the original bytes when available so a persisted
// snapshot round-trips exactly, and falls back to the struct fields for
// items constructed in code.
func (s StoryItem) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type alias StoryItem
	return json.Marshal(alias(s))
}

// ParsedTime parses the item timestamp (ISO-8601 with fractional seconds).
func (s *StoryItem) ParsedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, s.Time)
}
