// Package dojo provides a client for the ClassDojo home portal API.
//
// This package includes:
//   - A configurable HTTP client with cookie-based authentication
//   - Type-safe models for story feed responses
//   - Built-in error types for better error handling
//
// The story feed is a circular linked list of pages. Each page carries an
// _items array and a _links.prev cursor pointing at the next older page;
// the last page points back at the head. Traversal logic lives in
// dojofetch/pkg/feed.
//
// Example usage:
//
//	client := dojo.NewClient(30*time.Second, nil)
//	client.SetCookie(dojo.CookieLogSessionID, "...")
//	client.SetCookie(dojo.CookieLoginSID, "...")
//	client.SetCookie(dojo.CookieHomeLoginSID, "...")
//
//	page, err := client.FetchFeedPage(dojo.DefaultFeedURL)
//	if err != nil {
//	    if dojoErr, ok := err.(*dojo.Error); ok && dojoErr.Type == dojo.ErrorTypeAuth {
//	        // Session cookies expired
//	    }
//	}
package dojo
