package linkedin

import (
	"context"
	"fmt"

	"linkharvest/lib/osutil"
	"linkharvest/lib/telemetry"
)

var tracer = telemetry.Tracer("linkharvest.lib.scrapers.linkedin")

var ErrLoginFailed = fmt.Errorf("failed to login to your account")

// Browser is the capability surface the session driver needs from a
// real browser. Chrome implements it over CDP; tests substitute a fake
// returning canned page HTML so none of the pipeline logic needs a
// browser to be exercised.
type Browser interface {
	// Authenticate logs the account in. One attempt; the session
	// driver owns retries.
	Authenticate(ctx context.Context, creds osutil.Credentials) error
	// Search navigates to the content-search results for query.
	Search(ctx context.Context, query string) error
	// Scroll advances the results view one step and reports whether
	// the document grew (false means the feed is exhausted).
	Scroll(ctx context.Context) (grew bool, err error)
	// ExpandPosts clicks through "see more" style truncation on the
	// currently loaded posts.
	ExpandPosts(ctx context.Context) error
	// PageHTML returns the rendered page markup.
	PageHTML(ctx context.Context) (string, error)
}
