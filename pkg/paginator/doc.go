// Package paginator drains cursor-based id listings.
//
// CollectIDs starts from a nil cursor, appends each page's ids in order and
// stops when a page returns no next cursor. After each page that has a
// successor it waits PageDelay. Every fetch result is classified:
//
//   - Continue: adopt the page and advance
//   - RetryWait: rate limited; wait RateLimitBackoff and fetch the same
//     cursor again, with no cap on attempts
//   - Fatal: log the cursor at ERROR and return the error to the caller
package paginator
