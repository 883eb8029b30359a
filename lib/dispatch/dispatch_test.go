package dispatch

import (
	"context"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"linkharvest/lib/catalog"
	"linkharvest/lib/ledger"
	"linkharvest/lib/sentlog"

	"github.com/stretchr/testify/require"
)

func TestSelectRecipients(t *testing.T) {
	rows := []ledger.Row{
		{Email: "a@x.com", Category: "c1", Query: "q1", Count: 3, Date: "2025-11-04"},
		{Email: "A@X.com", Category: "c2", Query: "q2", Count: 1, Date: "2025-11-04"},
		{Email: "b@x.com", Category: "c2", Query: "q3", Count: 1, Date: "2025-11-05"},
		{Email: "c@x.com", Category: "c1", Query: "q1", Count: 2, Date: "2025-11-05"},
	}
	sent := map[string]bool{"a@x.com": true}

	recipients := SelectRecipients(rows, sent)
	require.Equal(t, []Recipient{
		{Email: "b@x.com", Category: "c2", Query: "q3"},
		{Email: "c@x.com", Category: "c1", Query: "q1"},
	}, recipients)
}

func TestSelectRecipientsFirstCategoryWins(t *testing.T) {
	rows := []ledger.Row{
		{Email: "a@x.com", Category: "first", Query: "q1", Count: 1, Date: "2025-11-04"},
		{Email: "a@x.com", Category: "second", Query: "q2", Count: 9, Date: "2025-11-04"},
	}

	recipients := SelectRecipients(rows, nil)
	require.Equal(t, []Recipient{
		{Email: "a@x.com", Category: "first", Query: "q1"},
	}, recipients)
}

type fakeSender struct {
	sent      []Message
	failFirst int
	transient bool
	calls     int
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	f.calls++
	if f.calls <= f.failFirst {
		if f.transient {
			return context.DeadlineExceeded
		}
		return &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	}
	f.sent = append(f.sent, msg)
	return nil
}

var testTemplates = catalog.Templates{
	"internship_searches": {
		Subject: "Intern Application",
		Body:    "Hi, saw your post about {query}.",
	},
}

func newTestDispatcher(t *testing.T, sender Sender, opts Options) (*Dispatcher, sentlog.Log) {
	t.Helper()
	log := sentlog.New(filepath.Join(t.TempDir(), "sent.log"))
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	return NewDispatcher(sender, testTemplates, log, opts), log
}

func TestRunSendsAndRecords(t *testing.T) {
	sender := &fakeSender{}
	d, log := newTestDispatcher(t, sender, Options{})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "swe intern"},
		{Email: "b@x.com", Category: "internship_searches", Query: "swe intern"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 2}, summary)

	require.Len(t, sender.sent, 2)
	require.Equal(t, "a@x.com", sender.sent[0].To)
	require.Equal(t, "Intern Application", sender.sent[0].Subject)
	require.Contains(t, sender.sent[0].Body, "swe intern")

	recorded, err := log.Load()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"a@x.com": true, "b@x.com": true}, recorded)
}

func TestRunUnknownCategorySkips(t *testing.T) {
	sender := &fakeSender{}
	d, log := newTestDispatcher(t, sender, Options{})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "no_such_category", Query: "q"},
		{Email: "b@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 1, Skipped: 1}, summary)

	recorded, err := log.Load()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"b@x.com": true}, recorded)
}

func TestRunDryRun(t *testing.T) {
	sender := &fakeSender{}
	d, log := newTestDispatcher(t, sender, Options{
		DryRun: true,
		// attachment that doesn't exist; dry run must not care
		AttachmentPath: filepath.Join(t.TempDir(), "missing.pdf"),
	})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 1}, summary)

	require.Empty(t, sender.sent)
	recorded, err := log.Load()
	require.NoError(t, err)
	require.Empty(t, recorded)
}

func TestRunMissingAttachmentSkips(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender, Options{
		AttachmentPath: filepath.Join(t.TempDir(), "missing.pdf"),
	})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Skipped: 1}, summary)
	require.Empty(t, sender.sent)
}

func TestRunAttachmentPresent(t *testing.T) {
	attachment := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(attachment, []byte("%PDF-1.4"), 0o644))

	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender, Options{AttachmentPath: attachment})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 1}, summary)
	require.Equal(t, attachment, sender.sent[0].AttachmentPath)
}

func TestRunRetriesTransientFailure(t *testing.T) {
	sender := &fakeSender{failFirst: 1, transient: true}
	var slept []time.Duration
	d, log := newTestDispatcher(t, sender, Options{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 1}, summary)
	require.Equal(t, 2, sender.calls)
	require.Equal(t, []time.Duration{time.Second * 5}, slept)

	recorded, err := log.Load()
	require.NoError(t, err)
	require.Len(t, recorded, 1)
}

func TestRunPermanentFailureDoesNotRetry(t *testing.T) {
	sender := &fakeSender{failFirst: 99, transient: false}
	d, log := newTestDispatcher(t, sender, Options{})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "q"},
		{Email: "b@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	// both fail permanently, batch still completes
	require.Equal(t, Summary{Failed: 2}, summary)
	require.Equal(t, 2, sender.calls)

	recorded, err := log.Load()
	require.NoError(t, err)
	require.Empty(t, recorded)
}

func TestRunLimit(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender, Options{Limit: 1})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@x.com", Category: "internship_searches", Query: "q"},
		{Email: "b@x.com", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 1}, summary)
}

type denyAllChecker struct{}

func (denyAllChecker) Deliverable(ctx context.Context, email string) bool { return false }

func TestRunCheckerSkipsUndeliverable(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender, Options{Checker: denyAllChecker{}})

	summary, err := d.Run(context.Background(), []Recipient{
		{Email: "a@nonexistent-domain.invalid", Category: "internship_searches", Query: "q"},
	})
	require.NoError(t, err)
	require.Equal(t, Summary{Skipped: 1}, summary)
	require.Empty(t, sender.sent)
}
