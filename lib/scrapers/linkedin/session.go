package linkedin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkharvest/lib/extract"
	"linkharvest/lib/osutil"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"
)

type SessionOptions struct {
	// MaxScrolls bounds how far down one query's results we load.
	MaxScrolls int
	// ScrollPause is the settle time between scrolls.
	ScrollPause time.Duration
	// LoginAttempts bounds authentication retries. Defaults to 3.
	LoginAttempts int
	// LoginBackoff is the delay before the second attempt; it doubles
	// each further attempt. Defaults to 2s.
	LoginBackoff time.Duration
	// Sleep is injected so tests can run without wall-clock waits.
	// Defaults to a jittered time.Sleep.
	Sleep func(time.Duration)
}

func (o *SessionOptions) defaults() {
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = 15
	}
	if o.ScrollPause <= 0 {
		o.ScrollPause = time.Second * 2
	}
	if o.LoginAttempts <= 0 {
		o.LoginAttempts = 3
	}
	if o.LoginBackoff <= 0 {
		o.LoginBackoff = time.Second * 2
	}
	if o.Sleep == nil {
		o.Sleep = JitterSleep
	}
}

// JitterSleep sleeps for d stretched by up to half again, so paced
// browser actions do not tick with machine regularity. Never shorter
// than d.
func JitterSleep(d time.Duration) {
	extra, err := random.IntRange(0, int(d/2)+1)
	if err != nil {
		extra = 0
	}
	time.Sleep(d + time.Duration(extra))
}

// Session owns one authenticated browsing session and runs the
// per-query action sequence: search, scroll, expand, read text.
type Session struct {
	browser Browser
	opts    SessionOptions
}

func NewSession(browser Browser, opts SessionOptions) *Session {
	opts.defaults()
	return &Session{browser: browser, opts: opts}
}

// Login authenticates with bounded retries and exponential backoff.
// Exhausting the attempts is fatal for the run: nothing can be scraped
// without a session.
func (s *Session) Login(ctx context.Context, creds osutil.Credentials) error {
	ctx, span := tracer.Start(ctx, "session:Login")
	defer span.End()

	backoff := s.opts.LoginBackoff
	var lastErr error
	for attempt := 1; attempt <= s.opts.LoginAttempts; attempt++ {
		lastErr = s.browser.Authenticate(ctx, creds)
		if lastErr == nil {
			slog.InfoContext(ctx, "logged in", "attempt", attempt)
			return nil
		}

		slog.WarnContext(ctx, "login attempt failed",
			"attempt", attempt, "of", s.opts.LoginAttempts, "err", lastErr)
		if attempt < s.opts.LoginAttempts {
			s.opts.Sleep(backoff)
			backoff *= 2
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "authentication exhausted")
	return fmt.Errorf("%w: %d attempts: %v", ErrLoginFailed, s.opts.LoginAttempts, lastErr)
}

// Collect runs one query end to end and returns the distinct post
// texts currently visible. Scrolling stops early once the document
// stops growing.
func (s *Session) Collect(ctx context.Context, query string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "session:Collect")
	defer span.End()

	err := s.browser.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search navigation failed")
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	for i := 0; i < s.opts.MaxScrolls; i++ {
		s.opts.Sleep(s.opts.ScrollPause)
		grew, err := s.browser.Scroll(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scroll failed")
			return nil, fmt.Errorf("scroll %q: %w", query, err)
		}
		if !grew {
			slog.DebugContext(ctx, "feed exhausted", "query", query, "scrolls", i+1)
			break
		}
	}

	err = s.browser.ExpandPosts(ctx)
	if err != nil {
		// truncated posts just yield less text, not a lost query
		slog.WarnContext(ctx, "failed to expand truncated posts", "query", query, "err", err)
	}

	pageHTML, err := s.browser.PageHTML(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page")
		return nil, fmt.Errorf("read page for %q: %w", query, err)
	}

	posts, err := extract.Posts(pageHTML)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page")
		return nil, fmt.Errorf("parse page for %q: %w", query, err)
	}
	return posts, nil
}
