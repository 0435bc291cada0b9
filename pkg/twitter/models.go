package twitter

import "followgraph/pkg/models"

// IDsPage is one page of a cursored ids listing
type IDsPage struct {
	IDs               []string `json:"ids"`
	NextCursorStr     string   `json:"next_cursor_str"`
	PreviousCursorStr string   `json:"previous_cursor_str"`
}

// Next returns the cursor of the following page, or nil on the last page
func (p *IDsPage) Next() *string {
	if p == nil || p.NextCursorStr == "" || p.NextCursorStr == EndCursor {
		return nil
	}
	next := p.NextCursorStr
	return &next
}

// User is the subset of a users/lookup record the collector reads
type User struct {
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Protected      bool   `json:"protected"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
}

// Profile converts the record to the collector's profile type
func (u User) Profile() models.Profile {
	return models.Profile{ID: u.IDStr, Handle: u.ScreenName}
}

// APIError is one entry of the error envelope
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body returned with non-2xx responses
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

// hasCode reports whether any entry carries code
func (r ErrorResponse) hasCode(code int) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (r ErrorResponse) message() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}
