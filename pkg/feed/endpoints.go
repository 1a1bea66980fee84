package feed

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the feed API host
	DefaultBaseURL = "https://api.twitter.com"

	// likedItemsEndpoint is the v2 paginated liked-items list
	likedItemsEndpoint = "/2/users/%s/liked_tweets"

	// itemDetailEndpoint is the v1.1 item detail lookup
	itemDetailEndpoint = "/1.1/statuses/show.json"
)

// likedItemsURL constructs the list URL for a user, with an optional
// opaque pagination token passed through unmodified.
func likedItemsURL(baseURL, userID, cursor string) string {
	params := url.Values{}
	params.Set("tweet.fields", "id")
	if cursor != "" {
		params.Set("pagination_token", cursor)
	}

	return fmt.Sprintf("%s%s?%s", baseURL, fmt.Sprintf(likedItemsEndpoint, url.PathEscape(userID)), params.Encode())
}

// itemDetailURL constructs the detail URL for a single item
func itemDetailURL(baseURL, itemID string) string {
	params := url.Values{}
	params.Set("id", itemID)

	return fmt.Sprintf("%s%s?%s", baseURL, itemDetailEndpoint, params.Encode())
}
