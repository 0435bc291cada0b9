// Package twitter is a small client for the v1.1 endpoints the collector
// needs: followers/ids and friends/ids (cursored id listings) and
// users/lookup (profiles for up to 100 ids, or one screen name).
//
// Requests are signed with OAuth 1.0a user-context credentials, paced by a
// shared ratelimit.Limiter, and retried with exponential backoff on network
// and server errors. Responses map to typed errors from pkg/errors; HTTP 429
// or error code 88 becomes ErrorTypeRateLimit and is returned unretried so
// the paginator can apply its own backoff.
//
//	client := twitter.NewClient(cfg, limiter, log)
//	page, err := client.FollowerIDs(ctx, "jack", nil)
//	if err != nil {
//	    if errors.IsRateLimit(err) {
//	        // wait and retry the same cursor
//	    }
//	}
//	next := page.Next() // nil on the last page
package twitter
