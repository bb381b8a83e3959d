package dojo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryItemRawRoundTrip(t *testing.T) {
	// Payload with fields the struct does not declare
	raw := `{"time":"2020-05-10T14:30:00Z","headerSubtext":"Class A","senderName":"Ms. Teacher","likes":12,"contents":{"attachments":[{"path":"https://cdn/b/x/y/p.jpg"}]}}`

	var item StoryItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, "2020-05-10T14:30:00Z", item.Time)
	assert.Equal(t, "Class A", item.HeaderSubtext)
	require.Len(t, item.Contents.Attachments, 1)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestStoryItemMarshalWithoutRaw(t *testing.T) {
	item := StoryItem{
		Time:          "2020-05-10T14:30:00Z",
		HeaderSubtext: "Class A",
	}

	out, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded StoryItem
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, item.Time, decoded.Time)
	assert.Equal(t, item.HeaderSubtext, decoded.HeaderSubtext)
}

func TestStoryItemParsedTime(t *testing.T) {
	item := StoryItem{Time: "2020-05-10T14:30:00.123Z"}

	ts, err := item.ParsedTime()
	require.NoError(t, err)
	assert.Equal(t, 2020, ts.Year())
	assert.Equal(t, time.May, ts.Month())
	assert.Equal(t, 10, ts.Day())

	item.Time = "yesterday"
	_, err = item.ParsedTime()
	assert.Error(t, err)
}

func TestPrevHref(t *testing.T) {
	feed := &StoryFeed{}
	assert.Empty(t, feed.PrevHref())

	feed.Links.Prev = &Link{Href: "https://home.classdojo.com/api/storyFeed?prev=abc"}
	assert.Equal(t, "https://home.classdojo.com/api/storyFeed?prev=abc", feed.PrevHref())
}

func TestStoryFeedDecodesWireFormat(t *testing.T) {
	raw := `{
		"_items": [
			{"time": "2020-05-10T14:30:00Z", "headerSubtext": "Class A", "contents": {"attachments": []}},
			{"time": "2020-05-11T09:00:00Z", "headerSubtext": "Class B", "contents": {}}
		],
		"_links": {
			"prev": {"href": "https://feed/prev"},
			"next": {"href": "https://feed/next"}
		}
	}`

	var feed StoryFeed
	require.NoError(t, json.Unmarshal([]byte(raw), &feed))

	require.Len(t, feed.Items, 2)
	assert.Equal(t, "https://feed/prev", feed.PrevHref())
	require.NotNil(t, feed.Links.Next)
	assert.Equal(t, "https://feed/next", feed.Links.Next.Href)
}
