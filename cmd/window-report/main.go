// Command window-report loads proposals from the SALT database and publishes
// an observing report for each: blocks with their observing windows bucketed
// around tonight, investigators, partner time shares, and observations.
//
//	window-report [-window strict|extended|strict_extended] [-metrics-addr :9102] CODE...
//
// Storage, metrics, and the report sink are configured through SALTAPI_*
// environment variables (see internal/config).
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"saltapi/internal/config"
	"saltapi/internal/dataloader"
	"saltapi/internal/infra/blob/s3"
	"saltapi/internal/infra/metrics"
	"saltapi/internal/infra/rowstore"
	"saltapi/internal/loaders"
	"saltapi/internal/report"
	"saltapi/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("window-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	window := fs.String("window", string(domain.WindowStrict), "observing window type: strict, extended or strict_extended")
	metricsAddr := fs.String("metrics-addr", "", "serve loader metrics on this address while running")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	windowType := domain.WindowType(*window)
	if !windowType.Valid() {
		_, _ = fmt.Fprintf(stderr, "unknown window type %q\n", *window)
		return 2
	}
	codes := fs.Args()
	if len(codes) == 0 {
		_, _ = fmt.Fprintln(stderr, "at least one proposal code required")
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 2
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logger: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, codes, windowType, *metricsAddr, stdout, logger); err != nil {
		logger.Error("window report failed", zap.Error(err))
		_, _ = fmt.Fprintf(stderr, "window-report: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, codes []string, windowType domain.WindowType, metricsAddr string, stdout io.Writer, logger *zap.Logger) error {
	db, err := rowstore.Open(ctx, cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	recorder, handler := newRecorder(cfg.Metrics)
	if metricsAddr != "" && handler != nil {
		srv := &http.Server{Addr: metricsAddr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	publisher, err := newPublisher(ctx, cfg, stdout)
	if err != nil {
		return err
	}

	set := loaders.NewSet(db,
		loaders.WithLogger(zapLogger{s: logger.Sugar()}),
		loaders.WithMetrics(recorder),
	)
	started := time.Now()
	reports, err := report.Build(ctx, set, codes, windowType)
	if err != nil {
		return err
	}
	for _, r := range reports {
		if err := publisher.Publish(ctx, r); err != nil {
			return err
		}
	}
	logger.Info("reports published",
		zap.Int("proposals", len(reports)),
		zap.String("window_type", string(windowType)),
		zap.String("sink", string(cfg.ReportSink)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// newRecorder returns a nil recorder for the "none" backend.
func newRecorder(backend config.MetricsBackend) (dataloader.MetricsRecorder, http.Handler) {
	switch backend {
	case config.MetricsPrometheus:
		r := metrics.NewPrometheusRecorder()
		return r, r.Handler()
	case config.MetricsExpvar:
		return metrics.NewExpvarRecorder(""), expvar.Handler()
	}
	return nil, nil
}

func newPublisher(ctx context.Context, cfg config.Config, stdout io.Writer) (report.Publisher, error) {
	if cfg.ReportSink != config.SinkS3 {
		return report.NewWriterPublisher(stdout), nil
	}
	store, err := s3.New(ctx, s3.Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return report.NewObjectPublisher(store), nil
}
