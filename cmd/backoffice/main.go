package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"

	"github.com/oreoinsight/backoffice/internal/config"
	"github.com/oreoinsight/backoffice/internal/httpserver"
	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/mailer"
	authmw "github.com/oreoinsight/backoffice/internal/middleware/auth"
	"github.com/oreoinsight/backoffice/internal/mykafka"
	"github.com/oreoinsight/backoffice/internal/observability"
	"github.com/oreoinsight/backoffice/internal/repo"
	"github.com/oreoinsight/backoffice/internal/search"
	"github.com/oreoinsight/backoffice/internal/service"
	"github.com/oreoinsight/backoffice/internal/summarize"
	"github.com/oreoinsight/backoffice/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := config.InitDB(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}
	store := &repo.GormRepo{DB: db}

	var producer *mykafka.Producer
	if cfg.KafkaAddress != "" {
		producer = mykafka.NewProducer([]string{cfg.KafkaAddress})
		logger.Info("kafka_enabled", "address", cfg.KafkaAddress)
	} else {
		logger.Warn("kafka_disabled")
	}

	var indexer *search.SaleIndexer
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Error("elasticsearch_init_error", "error", err)
			os.Exit(1)
		}
		indexer = &search.SaleIndexer{ES: es}
		logger.Info("elasticsearch_enabled", "url", cfg.ESURL)
	} else {
		logger.Warn("elasticsearch_disabled")
	}

	var mail mailer.Mailer = mailer.Log{}
	if cfg.SMTPAddr != "" {
		mail = &mailer.SMTP{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	}

	var sum summarize.Summarizer = summarize.Static{}
	if cfg.ModelsURL != "" && cfg.GithubToken != "" {
		sum = summarize.NewModelsClient(cfg.ModelsURL, cfg.ModelID, cfg.GithubToken)
	}

	codec := tokens.NewCodec(cfg.JWTSecret, cfg.TokenTTL)

	authSvc := &service.AuthService{Repo: store, Codec: codec, Producer: publisher(producer)}
	saleSvc := &service.SaleService{Repo: store, Producer: publisher(producer), Indexer: saleIndexer(indexer)}
	aggSvc := &service.AggregationService{Repo: store}
	reportSvc := &service.ReportService{Repo: store}
	summarySvc := service.NewSummaryService(store, aggSvc, mail, sum, publisher(producer), logger)

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Logger:  logger,
		AuthMW:  authmw.NewMiddleware(codec, store),
		Metrics: observability.NewMetrics(),
		Ready: func(c echo.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(c.Request().Context())
		},
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Sales:   &httpserver.SaleHTTP{Svc: saleSvc},
		Reports: &httpserver.ReportHTTP{Svc: reportSvc},
		Summary: &httpserver.SummaryHTTP{Svc: summarySvc},
	})

	sched := cron.New()
	if cfg.SummaryEmailTo != "" {
		_, err := sched.AddFunc(cfg.SummaryCron, func() {
			bg := logging.IntoContext(context.Background(), logger)
			_, err := summarySvc.Dispatch(bg, service.SummaryRequest{EmailTo: cfg.SummaryEmailTo}, "scheduler")
			if err != nil {
				logger.Error("scheduled_summary_error", "error", err)
			}
		})
		if err != nil {
			logger.Error("cron_schedule_error", "spec", cfg.SummaryCron, "error", err)
			os.Exit(1)
		}
		sched.Start()
		logger.Info("summary_schedule_enabled", "spec", cfg.SummaryCron, "email_to", cfg.SummaryEmailTo)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server_starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown_started")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	cronCtx := sched.Stop()
	<-cronCtx.Done()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	logger.Info("shutdown_complete")
}

// publisher converts a possibly nil concrete producer into the service
// interface without producing a non-nil interface holding a nil pointer.
func publisher(p *mykafka.Producer) service.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func saleIndexer(s *search.SaleIndexer) service.SaleIndexer {
	if s == nil {
		return nil
	}
	return s
}
