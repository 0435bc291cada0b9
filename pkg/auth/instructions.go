package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCredentialGuide explains where the four OAuth secrets come from
func WriteCredentialGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "API CREDENTIALS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "followgraph signs requests with OAuth 1.0a user context and needs four values.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Open the developer portal and select (or create) a project app.")
	fmt.Fprintln(w, "2. Under 'Keys and tokens', copy the API Key and API Key Secret.")
	fmt.Fprintln(w, "   These are the consumer key and consumer secret.")
	fmt.Fprintln(w, "3. Generate an Access Token and Secret for your own account.")
	fmt.Fprintln(w, "   Read-only permission is enough.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   consumer key          ~25 characters")
	fmt.Fprintln(w, "   consumer secret       ~50 characters")
	fmt.Fprintln(w, "   access token          <numeric id>-<random>")
	fmt.Fprintln(w, "   access token secret   ~45 characters")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Alternatively export FOLLOWGRAPH_CONSUMER_KEY, FOLLOWGRAPH_CONSUMER_SECRET,")
	fmt.Fprintln(w, "FOLLOWGRAPH_ACCESS_TOKEN and FOLLOWGRAPH_ACCESS_TOKEN_SECRET.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "These secrets act as your account. Never share them.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
