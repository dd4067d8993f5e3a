package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"TWPull/internal/domain/models"
	"TWPull/internal/usecase"
	pkgch "TWPull/pkg/clickhouse"
	"TWPull/pkg/config"
	xhttp "TWPull/pkg/http"
	pkgkafka "TWPull/pkg/kafka"
	applogger "TWPull/pkg/logger"
	"TWPull/pkg/queue"

	"github.com/robfig/cron/v3"
)

// App encapsulates the collector lifecycle for both one-shot CLI methods
// and the long-running serve mode.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.InstrumentCollector
	checker   *usecase.HealthChecker

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	jobQueue    *queue.RedisQueue
	cron        *cron.Cron
}

// New creates a new App instance. consumer, chClient and jobQueue may be nil
// when the corresponding infrastructure is not configured.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.InstrumentCollector,
	checker *usecase.HealthChecker,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	jobQueue *queue.RedisQueue,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		checker:   checker,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		jobQueue:  jobQueue,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler for serve mode.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// CollectOnce runs a single collection for index and exits.
func (a *App) CollectOnce(ctx context.Context, index models.Index) error {
	res, err := a.collector.Collect(ctx, index)
	if err != nil {
		return err
	}
	a.log.Info("instruments parsed",
		applogger.String("index", string(res.Index)),
		applogger.Int("instruments", res.Instruments))
	return a.closeInfra(ctx)
}

// SaveCompanies fetches the roster for index and writes the companies CSV.
func (a *App) SaveCompanies(ctx context.Context, index models.Index) error {
	path, err := a.collector.SaveNewCompanies(ctx, index)
	if err != nil {
		return err
	}
	a.log.Info("companies saved", applogger.String("path", path))
	return a.closeInfra(ctx)
}

// CheckHealth validates a CSV data directory and reports problems.
func (a *App) CheckHealth(dir string) error {
	report, err := a.checker.CheckDir(dir)
	if err != nil {
		return err
	}
	for _, p := range report.Problems {
		a.log.Warn("data problem",
			applogger.String("instrument", p.Instrument),
			applogger.String("check", p.Check),
			applogger.String("column", p.Column),
			applogger.String("detail", p.Detail))
	}
	if !report.OK() {
		return fmt.Errorf("data health check found %d problems in %d files", len(report.Problems), report.Checked)
	}
	a.log.Info("data health check passed", applogger.Int("checked", report.Checked))
	return nil
}

// Serve starts the HTTP API, the scheduled collections, the job queue and
// the change-event consumer, then blocks until interrupted.
func (a *App) Serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			return fmt.Errorf("job queue start: %w", err)
		}
		a.jobQueue.StartRetryProcessor()
		a.log.Info("job queue started")
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if spec := a.cfg.Collector.CronSpec; spec != "" {
		a.cron = cron.New()
		if _, err := a.cron.AddFunc(spec, func() { a.collectAll(ctx) }); err != nil {
			return fmt.Errorf("cron spec %q: %w", spec, err)
		}
		a.cron.Start()
		a.log.Info("scheduled collection enabled", applogger.String("spec", spec))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// collectAll refreshes every supported index sequentially.
func (a *App) collectAll(ctx context.Context) {
	for _, index := range models.Indices() {
		if _, err := a.collector.Collect(ctx, index); err != nil {
			a.log.Error("scheduled collect failed",
				applogger.String("index", string(index)),
				applogger.Error(err))
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cron != nil {
		stopCtx := a.cron.Stop()
		<-stopCtx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			a.log.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if err := a.closeInfra(ctx); err != nil {
		a.log.Warn("infra close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeInfra(_ context.Context) error {
	var firstErr error
	if a.collector != nil {
		a.collector.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
