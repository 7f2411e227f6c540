package scraper

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these when scraping breaks

const (
	// Post container on any timeline
	TweetContainer = `[data-testid="tweet"]`

	// Sidebar link to the logged-in user's profile
	ProfileLink = `a[data-testid="AppTabBar_Profile_Link"]`

	TweetTimestamp = `time`
	TweetLink      = `a[href*="/status/"]`

	// Last-resort text walk over these descendants
	TextFallbackNodes = `span, div`
)

// Field selectors in priority order. The first one yielding non-empty text wins.
var (
	TweetTextSelectors = []string{
		`[data-testid="tweetText"]`,
		`[lang]`,
		`div[dir="auto"]`,
		`.css-1rynq56`,
		`span`,
	}

	TweetAuthorSelectors = []string{
		`[data-testid="User-Name"]`,
		`a[role="link"] span`,
		`[data-testid="User-Names"]`,
	}
)

// Common wait conditions
const (
	WaitForProfile = ProfileLink
	WaitForTweets  = TweetContainer
)

// LikesURL is the likes timeline of the given handle
func LikesURL(handle string) string {
	return "https://x.com/" + handle + "/likes"
}
