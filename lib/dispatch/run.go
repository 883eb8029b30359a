package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"linkharvest/lib/catalog"
	"linkharvest/lib/mailcheck"
	"linkharvest/lib/scrapers/linkedin"
	"linkharvest/lib/sentlog"

	"go.opentelemetry.io/otel/codes"
)

type Options struct {
	// Delay is the pause after each send attempt, success or not,
	// except after the last recipient.
	Delay time.Duration
	// Limit caps recipients processed this invocation. 0 means all.
	Limit int
	// DryRun renders everything but transmits nothing and records
	// nothing in the sent log.
	DryRun bool
	// AttachmentPath, when set, is attached to every message. It must
	// exist at send time unless DryRun is on.
	AttachmentPath string
	// Checker, when set, skips recipients whose domain cannot
	// receive mail.
	Checker mailcheck.Checker
	// SendAttempts bounds retries of a transiently failing send.
	// Defaults to 3.
	SendAttempts int
	// RetryWait is the wait before the first retry; later retries
	// wait two and three times as long. Defaults to 5s.
	RetryWait time.Duration
	// Sleep is injected for tests. Defaults to a jittered sleep.
	Sleep func(time.Duration)
}

func (o *Options) defaults() {
	if o.Delay <= 0 {
		o.Delay = time.Second * 5
	}
	if o.SendAttempts <= 0 {
		o.SendAttempts = 3
	}
	if o.RetryWait <= 0 {
		o.RetryWait = time.Second * 5
	}
	if o.Sleep == nil {
		o.Sleep = linkedin.JitterSleep
	}
}

type Summary struct {
	Sent    int
	Failed  int
	Skipped int
}

// Dispatcher sends one templated message per recipient, recording each
// successful send in the sent log before moving on. It never touches
// the ledger.
type Dispatcher struct {
	sender    Sender
	templates catalog.Templates
	sent      sentlog.Log
	opts      Options
}

func NewDispatcher(sender Sender, templates catalog.Templates, sent sentlog.Log, opts Options) *Dispatcher {
	opts.defaults()
	return &Dispatcher{sender: sender, templates: templates, sent: sent, opts: opts}
}

// Run processes recipients in order. Per-recipient failures are logged
// and skipped; the batch always runs to the end (or the limit).
func (d *Dispatcher) Run(ctx context.Context, recipients []Recipient) (Summary, error) {
	ctx, span := tracer.Start(ctx, "dispatcher:Run")
	defer span.End()

	if d.opts.Limit > 0 && len(recipients) > d.opts.Limit {
		slog.InfoContext(ctx, "limiting recipients this run",
			"limit", d.opts.Limit, "total", len(recipients))
		recipients = recipients[:d.opts.Limit]
	}

	summary := Summary{}
	for i, recipient := range recipients {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		err := d.process(ctx, recipient)
		switch {
		case err == nil:
			summary.Sent++
		case isSkip(err):
			summary.Skipped++
			slog.WarnContext(ctx, "skipping recipient",
				"to", recipient.Email, "category", recipient.Category, "reason", err)
		default:
			summary.Failed++
			slog.ErrorContext(ctx, "failed to send",
				"to", recipient.Email, "category", recipient.Category, "err", err)
		}

		if !d.opts.DryRun && i < len(recipients)-1 {
			d.opts.Sleep(d.opts.Delay)
		}
	}

	slog.InfoContext(ctx, "dispatch complete",
		"sent", summary.Sent, "failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// skip errors are expected conditions (no template, undeliverable
// domain), distinct from a send that was attempted and failed
type skipError struct{ err error }

func (e skipError) Error() string { return e.err.Error() }
func (e skipError) Unwrap() error { return e.err }

func isSkip(err error) bool {
	_, ok := err.(skipError)
	return ok
}

func (d *Dispatcher) process(ctx context.Context, recipient Recipient) error {
	ctx, span := tracer.Start(ctx, "dispatcher:process")
	defer span.End()

	subject, body, err := d.templates.Render(recipient.Category, recipient.Query)
	if err != nil {
		span.RecordError(err)
		return skipError{err}
	}

	if d.opts.Checker != nil && !d.opts.Checker.Deliverable(ctx, recipient.Email) {
		return skipError{fmt.Errorf("domain of %s cannot receive mail", recipient.Email)}
	}

	if d.opts.DryRun {
		slog.InfoContext(ctx, "dry run, not sending",
			"to", recipient.Email, "subject", subject, "preview", preview(body))
		return nil
	}

	if d.opts.AttachmentPath != "" {
		_, err := os.Stat(d.opts.AttachmentPath)
		if err != nil {
			span.RecordError(err)
			return skipError{fmt.Errorf("%w: %s", ErrAttachmentNotFound, d.opts.AttachmentPath)}
		}
	}

	err = d.send(ctx, Message{
		To:             recipient.Email,
		Subject:        subject,
		Body:           body,
		AttachmentPath: d.opts.AttachmentPath,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return err
	}

	// record the send before anything else can happen: a crash here
	// must never forget a message that already went out
	err = d.sent.Append(recipient.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sent but failed to update sent log")
		return fmt.Errorf("sent to %s but failed to update sent log: %w", recipient.Email, err)
	}

	slog.InfoContext(ctx, "sent", "to", recipient.Email, "subject", subject)
	return nil
}

func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	var lastErr error
	for attempt := 1; attempt <= d.opts.SendAttempts; attempt++ {
		lastErr = d.sender.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < d.opts.SendAttempts {
			wait := d.opts.RetryWait * time.Duration(attempt)
			slog.WarnContext(ctx, "transient send failure, retrying",
				"to", msg.To, "attempt", attempt, "wait", wait, "err", lastErr)
			d.opts.Sleep(wait)
		}
	}
	return fmt.Errorf("after %d attempts: %w", d.opts.SendAttempts, lastErr)
}

func preview(body string) string {
	const n = 100
	if len(body) <= n {
		return body
	}
	return body[:n] + "..."
}
