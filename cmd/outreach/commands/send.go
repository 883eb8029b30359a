package commands

import (
	"fmt"
	"log/slog"
	"time"

	"linkharvest/lib/catalog"
	"linkharvest/lib/configutil"
	"linkharvest/lib/dispatch"
	"linkharvest/lib/ledger"
	"linkharvest/lib/mailcheck"
	"linkharvest/lib/osutil"
	"linkharvest/lib/sentlog"
	"linkharvest/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sendLedger *string
var sendTemplates *string
var sendSentLog *string
var sendAttachment *string
var sendDate *string
var sendLimit *int
var sendDelay *float64
var sendDryRun *bool
var sendResetLog *bool
var sendVerifyMx *bool

func init() {
	sendLedger = sendCmd.Flags().String("ledger", "mail.csv", "The CSV ledger to draw recipients from.")
	sendTemplates = sendCmd.Flags().String("templates", "templates.yaml", "The per-category message templates.")
	sendSentLog = sendCmd.Flags().String("sent-log", "sent.log", "The log of addresses already contacted.")
	sendAttachment = sendCmd.Flags().String("attachment", "", "A file to attach to every message.")
	sendDate = sendCmd.Flags().String("date", "", "Only contact addresses recorded on this date (YYYY-MM-DD).")
	sendLimit = sendCmd.Flags().Int("limit", 0, "Cap on messages this run. 0 means no cap.")
	sendDelay = sendCmd.Flags().Float64("delay", 5, "Seconds to pause between recipients.")
	sendDryRun = sendCmd.Flags().Bool("dry-run", false, "Render everything, transmit nothing, record nothing.")
	sendResetLog = sendCmd.Flags().Bool("reset-log", false, "Forget every recorded send before starting.")
	sendVerifyMx = sendCmd.Flags().Bool("verify-mx", false, "Skip addresses whose domain has no mail records.")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send [--ledger <mail.csv>] [--templates <templates.yaml>] [--dry-run]",
	Short: "Sends one templated message to every ledger address not yet in the sent log.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if *sendDate != "" && !timezone.ValidDate(*sendDate) {
			osutil.Fatal("invalid --date", fmt.Errorf("%q is not a YYYY-MM-DD date", *sendDate))
		}

		templates, err := catalog.LoadTemplates(*sendTemplates)
		if err != nil {
			osutil.Fatal("failed to load templates", err)
		}

		sent := sentlog.New(*sendSentLog)
		if *sendResetLog {
			err = sent.Reset()
			if err != nil {
				osutil.Fatal("failed to reset sent log", err)
			}
			slog.InfoContext(ctx, "sent log reset", "path", sent.Path())
		}
		sentSet, err := sent.Load()
		if err != nil {
			osutil.Fatal("failed to read sent log", err)
		}

		rows, err := ledger.NewStore(*sendLedger).ReadDate(ctx, *sendDate)
		if err != nil {
			osutil.Fatal("failed to read ledger", err)
		}

		recipients := dispatch.SelectRecipients(rows, sentSet)
		if len(recipients) == 0 {
			fmt.Println("nothing to send: every ledger address is already in the sent log")
			return
		}
		slog.InfoContext(ctx, "selected recipients",
			"total", len(recipients), "already_sent", len(sentSet))

		var sender dispatch.Sender = dispatch.SmtpSender{}
		if !*sendDryRun {
			config, err := configutil.ReadConfig[dispatch.SmtpConfig]("outreach.json5")
			if err != nil {
				osutil.Fatal("failed to read outreach.json5", err)
			}
			if config.Server == "" || config.Port == 0 {
				osutil.Fatal("incomplete SMTP config", fmt.Errorf("outreach.json5 needs server and port"))
			}
			creds, err := osutil.ResolveCredentials("SMTP_EMAIL", "SMTP_PASSWORD")
			if err != nil {
				osutil.Fatal("failed to resolve SMTP credentials", err)
			}
			config.EmailAddress = creds.Username
			config.Password = creds.Password
			sender = dispatch.NewSmtpSender(config)
		}

		var checker mailcheck.Checker
		if *sendVerifyMx {
			checker = mailcheck.NewResolver()
		}

		if *sendDryRun {
			printPlan(recipients)
		}

		dispatcher := dispatch.NewDispatcher(sender, templates, sent, dispatch.Options{
			Delay:          seconds(*sendDelay),
			Limit:          *sendLimit,
			DryRun:         *sendDryRun,
			AttachmentPath: *sendAttachment,
			Checker:        checker,
		})
		summary, err := dispatcher.Run(ctx, recipients)
		if err != nil {
			osutil.Fatal("dispatch interrupted", err)
		}

		fmt.Printf("sent %d, skipped %d, failed %d\n",
			summary.Sent, summary.Skipped, summary.Failed)
	},
}

func printPlan(recipients []dispatch.Recipient) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"To", "Category", "Query"})
	for _, r := range recipients {
		t.AppendRow(table.Row{r.Email, r.Category, r.Query})
	}
	fmt.Println(t.Render())
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
