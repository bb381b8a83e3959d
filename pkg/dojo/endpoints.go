package dojo

const (
	// BaseURL is the base URL for the ClassDojo home portal.
	BaseURL = "https://home.classdojo.com"

	// DefaultFeedURL is the entry point of the story feed, private
	// stories included.
	DefaultFeedURL = BaseURL + "/api/storyFeed?includePrivate=true"
)

// Names of the session cookies the portal expects on every request.
// All three come from an authenticated browser session.
const (
	CookieLogSessionID = "dojo_log_session_id"
	CookieLoginSID     = "dojo_login.sid"
	CookieHomeLoginSID = "dojo_home_login.sid"
)
