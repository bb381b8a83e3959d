// Package feed walks the cursor-linked story feed.
//
// The feed is a circular list: each page links to the next older page
// through _links.prev, and the oldest page links back to the head.
// Traversal follows prev from the head and stops when the cursor is
// absent or points at any URL already visited. A configurable hop bound
// guards against a service that rewrites cursor URLs on every response,
// which would defeat the equality check.
package feed

import (
	"fmt"

	"dojofetch/pkg/dojo"
	"dojofetch/pkg/logger"
	"dojofetch/pkg/ratelimit"
)

// Client is the slice of the API client the traverser needs.
type Client interface {
	FetchFeedPage(url string) (*dojo.StoryFeed, error)
}

// Traverser accumulates the complete story feed page by page. Traversal
// is strictly sequential: each cursor is only known once the previous
// response has arrived.
type Traverser struct {
	client      Client
	rateLimiter ratelimit.Limiter
	maxHops     int
	logger      logger.Logger
}

// New creates a Traverser. Page fetches draw from rateLimiter, which the
// caller shares with the download workers so the portal sees one
// aggregate request rate. maxHops bounds the number of page fetches;
// 0 means unbounded (the visited-URL guard still terminates cycles).
func New(client Client, rateLimiter ratelimit.Limiter, maxHops int, log logger.Logger) *Traverser {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Traverser{
		client:      client,
		rateLimiter: rateLimiter,
		maxHops:     maxHops,
		logger:      log,
	}
}

// Walk fetches every page reachable from startURL and returns the
// concatenation of all pages' items, head page first, each page's items
// in arrival order. Any fetch failure aborts the whole traversal.
func (t *Traverser) Walk(startURL string) ([]dojo.StoryItem, error) {
	visited := map[string]bool{startURL: true}
	hops := 0

	t.logger.InfoWithFields("starting feed traversal", map[string]interface{}{
		"url": startURL,
	})

	var items []dojo.StoryItem
	url := startURL

	for {
		hops++
		if t.maxHops > 0 && hops > t.maxHops {
			return nil, fmt.Errorf("feed cursor chain exceeded %d pages without closing, aborting", t.maxHops)
		}

		if t.rateLimiter != nil && !t.rateLimiter.Allow() {
			t.rateLimiter.Wait()
		}

		page, err := t.client.FetchFeedPage(url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed page %s: %w", url, err)
		}

		items = append(items, page.Items...)

		t.logger.DebugWithFields("feed page accumulated", map[string]interface{}{
			"url":         url,
			"page_items":  len(page.Items),
			"total_items": len(items),
			"page":        hops,
		})

		prev := page.PrevHref()
		if prev == "" {
			break
		}
		if visited[prev] {
			// Back at a page we have seen, usually the head. The
			// feed has come full circle.
			if prev != startURL {
				t.logger.WarnWithFields("cursor revisited a non-head page, stopping", map[string]interface{}{
					"url": prev,
				})
			}
			break
		}

		visited[prev] = true
		url = prev
	}

	t.logger.InfoWithFields("feed traversal complete", map[string]interface{}{
		"pages": hops,
		"items": len(items),
	})

	return items, nil
}
