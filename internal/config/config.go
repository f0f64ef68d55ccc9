// Package config reads the process configuration from SALTAPI_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"saltapi/internal/infra/rowstore"
)

// MetricsBackend selects the loader metrics recorder.
type MetricsBackend string

const (
	MetricsNone       MetricsBackend = "none"
	MetricsPrometheus MetricsBackend = "prometheus"
	MetricsExpvar     MetricsBackend = "expvar"
)

// ReportSink selects where reports are published.
type ReportSink string

const (
	SinkStdout ReportSink = "stdout"
	SinkS3     ReportSink = "s3"
)

// Config is the resolved process configuration.
type Config struct {
	StorageDriver rowstore.Dialect
	DatabaseDSN   string
	Metrics       MetricsBackend
	ReportSink    ReportSink
	S3            S3Config
	LogLevel      string
	LogFormat     string
}

// S3Config addresses the report bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Load reads the environment:
//
//	SALTAPI_STORAGE_DRIVER: mysql|postgres|sqlite (default mysql)
//	SALTAPI_DATABASE_DSN: data source name (required unless mysql)
//	SALTAPI_METRICS: prometheus|expvar|none (default none)
//	SALTAPI_REPORT_SINK: stdout|s3 (default stdout)
//	SALTAPI_REPORT_S3_BUCKET: bucket (required for s3)
//	SALTAPI_REPORT_S3_REGION: region (default us-east-1)
//	SALTAPI_REPORT_S3_ENDPOINT: custom endpoint, e.g. MinIO
//	SALTAPI_REPORT_S3_PATH_STYLE: true|false (default false)
//	SALTAPI_LOG_LEVEL: debug|info|warn|error (default info)
//	SALTAPI_LOG_FORMAT: json|console (default json)
func Load() (Config, error) {
	cfg := Config{
		StorageDriver: rowstore.Dialect(strings.ToLower(env("SALTAPI_STORAGE_DRIVER", string(rowstore.DialectMySQL)))),
		DatabaseDSN:   os.Getenv("SALTAPI_DATABASE_DSN"),
		Metrics:       MetricsBackend(strings.ToLower(env("SALTAPI_METRICS", string(MetricsNone)))),
		ReportSink:    ReportSink(strings.ToLower(env("SALTAPI_REPORT_SINK", string(SinkStdout)))),
		S3: S3Config{
			Bucket:    os.Getenv("SALTAPI_REPORT_S3_BUCKET"),
			Region:    env("SALTAPI_REPORT_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("SALTAPI_REPORT_S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("SALTAPI_REPORT_S3_PATH_STYLE"), "true"),
		},
		LogLevel:  strings.ToLower(env("SALTAPI_LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env("SALTAPI_LOG_FORMAT", "json")),
	}
	return cfg, cfg.Validate()
}

// Validate checks the enumerated settings and their dependencies.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case rowstore.DialectMySQL:
	case rowstore.DialectPostgres, rowstore.DialectSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("SALTAPI_DATABASE_DSN required for %s driver", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %s", c.StorageDriver)
	}
	switch c.Metrics {
	case MetricsNone, MetricsPrometheus, MetricsExpvar:
	default:
		return fmt.Errorf("unknown metrics backend %s", c.Metrics)
	}
	switch c.ReportSink {
	case SinkStdout:
	case SinkS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("SALTAPI_REPORT_S3_BUCKET required for s3 sink")
		}
	default:
		return fmt.Errorf("unknown report sink %s", c.ReportSink)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %s", c.LogFormat)
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
