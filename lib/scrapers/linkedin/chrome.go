package linkedin

import (
	"context"
	"net/url"
	"os"
	"time"

	"linkharvest/lib/osutil"

	"github.com/chromedp/chromedp"
)

const loginURL = "https://www.linkedin.com/login"
const searchBaseURL = "https://www.linkedin.com/search/results/content/"

const scrollScript = `window.scrollTo(0, document.body.scrollHeight);`
const documentHeightScript = `document.body.scrollHeight`

// clicks every visible "see more" toggle so truncated post bodies are
// present in the DOM before we read it
const expandScript = `(function () {
	const buttons = document.querySelectorAll(
		'button.feed-shared-inline-show-more-text__see-more-less-toggle, ' +
		'button[aria-label*="see more"], button[aria-label*="See more"]'
	);
	let clicked = 0;
	for (const b of buttons) {
		try { b.click(); clicked++; } catch (e) {}
	}
	return clicked;
})();`

type ChromeOptions struct {
	Headless bool
	// UserAgent overrides the browser's default when set.
	UserAgent string
	// NavTimeout bounds each navigation/wait. Defaults to 30s.
	NavTimeout time.Duration
}

// Chrome drives a real Chrome over CDP. It satisfies Browser.
type Chrome struct {
	ctx        context.Context
	navTimeout time.Duration
}

// NewChrome starts a browser and returns it with a cleanup func that
// shuts the browser down.
func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, func(), error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = time.Second * 30
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("window-size", "1200,900"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(p))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank"))
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, nil, err
	}

	cleanup := func() {
		cancelBrowser()
		cancelAlloc()
	}
	return &Chrome{ctx: browserCtx, navTimeout: opts.NavTimeout}, cleanup, nil
}

func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.navTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

func (c *Chrome) Authenticate(ctx context.Context, creds osutil.Credentials) error {
	err := c.run(ctx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(`#username`, chromedp.ByQuery),
		chromedp.SetValue(`#username`, creds.Username, chromedp.ByQuery),
		chromedp.SetValue(`#password`, creds.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}

	// the global nav search box only renders once a session exists
	err = c.run(ctx,
		chromedp.WaitVisible(`#global-nav-search`, chromedp.ByQuery),
	)
	if err != nil {
		return ErrLoginFailed
	}
	return nil
}

func (c *Chrome) Search(ctx context.Context, query string) error {
	params := url.Values{}
	params.Set("keywords", query)
	params.Set("datePosted", `"past-24h"`)
	params.Set("origin", "FACETED_SEARCH")

	return c.run(ctx,
		chromedp.Navigate(searchBaseURL+"?"+params.Encode()),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (c *Chrome) Scroll(ctx context.Context) (bool, error) {
	var before, after int
	err := c.run(ctx,
		chromedp.Evaluate(documentHeightScript, &before),
		chromedp.Evaluate(scrollScript, nil),
		chromedp.Sleep(time.Millisecond*500),
		chromedp.Evaluate(documentHeightScript, &after),
	)
	if err != nil {
		return false, err
	}
	return after > before, nil
}

func (c *Chrome) ExpandPosts(ctx context.Context) error {
	var clicked int
	return c.run(ctx, chromedp.Evaluate(expandScript, &clicked))
}

func (c *Chrome) PageHTML(ctx context.Context) (string, error) {
	var pageHTML string
	err := c.run(ctx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	return pageHTML, nil
}
