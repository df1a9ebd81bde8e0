package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/mailer"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/repo"
	"github.com/oreoinsight/backoffice/internal/summarize"
)

const (
	reportTopic    = "report_events"
	processTimeout = 60 * time.Second
)

// SummaryRequest carries a validated weekly-summary request. Handlers
// apply branch policy before handing it over.
type SummaryRequest struct {
	From    time.Time
	To      time.Time
	Branch  string
	EmailTo string
}

type SummaryService struct {
	Repo       *repo.GormRepo
	Agg        *AggregationService
	Mailer     mailer.Mailer
	Summarizer summarize.Summarizer
	Producer   EventPublisher

	base *slog.Logger
}

func NewSummaryService(rp *repo.GormRepo, agg *AggregationService, m mailer.Mailer, sum summarize.Summarizer, prod EventPublisher, base *slog.Logger) *SummaryService {
	return &SummaryService{Repo: rp, Agg: agg, Mailer: m, Summarizer: sum, Producer: prod, base: base}
}

// Dispatch records the request as PROCESSING, publishes the domain event
// and kicks off the async pipeline. The returned id is the requestId the
// caller reports back with 202.
func (s *SummaryService) Dispatch(ctx context.Context, req SummaryRequest, requestedBy string) (*models.ReportRequest, error) {
	l := logging.FromContext(ctx).With("svc", "summary.dispatch")

	report := &models.ReportRequest{
		Branch:      req.Branch,
		FromDate:    req.From,
		ToDate:      req.To,
		EmailTo:     req.EmailTo,
		Status:      models.ReportProcessing,
		RequestedAt: time.Now(),
		RequestedBy: requestedBy,
	}
	if err := s.Repo.CreateReport(ctx, report); err != nil {
		l.Error("create_report_error", "error", err)
		return nil, err
	}

	if s.Producer != nil {
		event := map[string]any{
			"type":        "report_requested",
			"requestId":   report.ID,
			"branch":      report.Branch,
			"emailTo":     report.EmailTo,
			"requestedBy": requestedBy,
			"fromDate":    report.FromDate.Format("2006-01-02"),
			"toDate":      report.ToDate.Format("2006-01-02"),
		}
		if err := s.Producer.PublishEvent(ctx, reportTopic, report.ID, event); err != nil {
			l.Error("kafka_publish_error", "error", err)
		}
	}

	go func() {
		// The request context dies with the HTTP response; the pipeline
		// runs on its own bounded context.
		bg := context.Background()
		if s.base != nil {
			bg = logging.IntoContext(bg, s.base)
		}
		bg, cancel := context.WithTimeout(bg, processTimeout)
		defer cancel()
		s.Process(bg, report.ID)
	}()

	l.Info("report_dispatched", "request_id", report.ID)
	return report, nil
}

// Process runs the summary pipeline for a stored report request:
// aggregate, summarize, email, then record the terminal status.
func (s *SummaryService) Process(ctx context.Context, reportID string) {
	l := logging.FromContext(ctx).With("svc", "summary.process", "request_id", reportID)

	report, err := s.Repo.ReportByID(ctx, reportID)
	if err != nil {
		l.Error("report_lookup_error", "error", err)
		return
	}

	agg, err := s.Agg.Calculate(ctx, report.FromDate, report.ToDate, report.Branch)
	if err != nil {
		l.Error("aggregation_error", "error", err)
		s.finish(ctx, reportID, models.ReportFailed, "aggregation failed: "+err.Error())
		return
	}

	text, err := s.Summarizer.Summarize(ctx, agg)
	if err != nil {
		l.Warn("summarizer_unavailable", "error", err)
		text = summarize.Fallback(agg)
	}

	if err := s.Mailer.SendSummary(ctx, report.EmailTo, report.FromDate, report.ToDate, agg, text); err != nil {
		l.Error("send_email_error", "error", err)
		s.finish(ctx, reportID, models.ReportFailed, "email delivery failed")
		return
	}

	s.finish(ctx, reportID, models.ReportSent, text)
	l.Info("report_sent", "email_to", report.EmailTo)
}

func (s *SummaryService) finish(ctx context.Context, id string, status models.ReportStatus, message string) {
	if err := s.Repo.SetReportOutcome(ctx, id, status, message); err != nil {
		logging.FromContext(ctx).Error("report_outcome_error", "request_id", id, "error", err)
	}
}
