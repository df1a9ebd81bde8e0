// Package mailer renders and delivers the weekly summary email. Delivery
// is an external collaborator; the service layer only sees the interface.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/models"
)

type Mailer interface {
	SendSummary(ctx context.Context, to string, from, until time.Time, agg models.SalesAggregates, summary string) error
}

func renderHTML(agg models.SalesAggregates, summary string) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family:Arial,sans-serif;">`)
	b.WriteString("<h2>Weekly Sales Report</h2>")
	fmt.Fprintf(&b, "<p>%s</p>", summary)
	b.WriteString("<h4>Sales summary:</h4><ul>")
	fmt.Fprintf(&b, "<li><b>Total units:</b> %d</li>", agg.TotalUnits)
	fmt.Fprintf(&b, "<li><b>Total revenue:</b> $%.2f</li>", agg.TotalRevenue)
	fmt.Fprintf(&b, "<li><b>Top SKU:</b> %s</li>", agg.TopSKU)
	fmt.Fprintf(&b, "<li><b>Top branch:</b> %s</li>", agg.TopBranch)
	b.WriteString("</ul></body></html>")
	return b.String()
}

// SMTP delivers through a plain SMTP relay.
type SMTP struct {
	Addr string
	From string
}

func (m *SMTP) SendSummary(ctx context.Context, to string, from, until time.Time, agg models.SalesAggregates, summary string) error {
	subject := fmt.Sprintf("Weekly Sales Report - %s to %s",
		from.Format("2006-01-02"), until.Format("2006-01-02"))

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(renderHTML(agg, summary))

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send summary email: %w", err)
	}
	return nil
}

// Log is the dev/test stand-in used when no SMTP relay is configured.
type Log struct{}

func (Log) SendSummary(ctx context.Context, to string, from, until time.Time, agg models.SalesAggregates, summary string) error {
	logging.FromContext(ctx).Info("summary_email",
		"to", to,
		"from", from.Format("2006-01-02"),
		"until", until.Format("2006-01-02"),
		"total_units", agg.TotalUnits,
		"total_revenue", agg.TotalRevenue,
		"summary", summary,
	)
	return nil
}
