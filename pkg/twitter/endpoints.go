package twitter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the default API host
	BaseURL = "https://api.twitter.com"

	FollowersIDsEndpoint = "/1.1/followers/ids.json"
	FriendsIDsEndpoint   = "/1.1/friends/ids.json"
	UsersLookupEndpoint  = "/1.1/users/lookup.json"

	// StartCursor requests the first page of a cursored listing
	StartCursor = "-1"
	// EndCursor is returned as next_cursor_str on the last page
	EndCursor = "0"

	// MaxIDsPerPage is the largest page the ids endpoints serve
	MaxIDsPerPage = 5000
	// MaxLookupBatch is the most ids users/lookup accepts per request
	MaxLookupBatch = 100
)

// idsParams builds the query for a followers/ids or friends/ids call.
// A nil cursor starts at the beginning of the list.
func idsParams(handle string, cursor *string) url.Values {
	c := StartCursor
	if cursor != nil {
		c = *cursor
	}
	params := url.Values{}
	params.Set("screen_name", SanitizeHandle(handle))
	params.Set("stringify_ids", "true")
	params.Set("cursor", c)
	params.Set("count", strconv.Itoa(MaxIDsPerPage))
	return params
}

func lookupByIDParams(ids []string) url.Values {
	params := url.Values{}
	params.Set("user_id", strings.Join(ids, ","))
	params.Set("include_entities", "false")
	return params
}

func lookupByHandleParams(handle string) url.Values {
	params := url.Values{}
	params.Set("screen_name", SanitizeHandle(handle))
	params.Set("include_entities", "false")
	return params
}

// SanitizeHandle trims whitespace and a single leading @
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return handle
}

// IsValidHandle checks a handle against the platform's screen name rules
func IsValidHandle(handle string) bool {
	if handle == "" || len(handle) > 15 {
		return false
	}

	for _, char := range handle {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}
