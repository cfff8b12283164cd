// Command projectdocs serves the project document and season operations over HTTP.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/projectdocs"
	"github.com/rise-and-shine/projectdocs/blobstore/miniowr"
	"github.com/rise-and-shine/projectdocs/cfgloader"
	"github.com/rise-and-shine/projectdocs/http/server"
	"github.com/rise-and-shine/projectdocs/http/server/middleware"
	"github.com/rise-and-shine/projectdocs/httpapi"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/alert"
	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/observability/metrics"
	"github.com/rise-and-shine/projectdocs/observability/tracing"
	"github.com/rise-and-shine/projectdocs/recordstore/airtable"
)

const shutdownTimeout = 15 * time.Second

// Config is the whole service configuration, loaded from ./config/${ENVIRONMENT}.yaml.
type Config struct {
	ServiceName    string `yaml:"service_name"    validate:"required" default:"projectdocs"`
	ServiceVersion string `yaml:"service_version" validate:"required" default:"dev"`

	Logger      logger.Config      `yaml:"logger"`
	HTTP        server.Config      `yaml:"http"`
	BlobStore   miniowr.Config     `yaml:"blob_store"`
	RecordStore airtable.Config    `yaml:"record_store"`
	Documents   projectdocs.Config `yaml:"documents"`
	Alert       alert.Config       `yaml:"alert"`
	Tracing     tracing.Config     `yaml:"tracing"`
}

func main() {
	cfg := cfgloader.MustLoad[Config]()

	meta.SetServiceInfo(cfg.ServiceName, cfg.ServiceVersion)
	logger.SetGlobal(cfg.Logger)

	if err := run(cfg); err != nil {
		logger.Fatalx(err)
	}
}

func run(cfg Config) error {
	log := logger.Named("main")

	shutdownTracer, err := tracing.InitGlobalTracer(cfg.Tracing)
	if err != nil {
		return errx.Wrap(err)
	}

	alerts, err := alert.NewProvider(cfg.Alert, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return errx.Wrap(err)
	}
	if err = alert.SetGlobal(alerts); err != nil {
		return errx.Wrap(err)
	}

	appLog, err := logger.New(cfg.Logger)
	if err != nil {
		return errx.Wrap(err)
	}

	blobs, err := miniowr.New(cfg.BlobStore, appLog)
	if err != nil {
		return errx.Wrap(err)
	}
	if !blobs.IsConfigured() {
		log.Warn("blob store is not configured, uploads will be rejected")
	}

	rec := metrics.New()
	svc, err := projectdocs.New(cfg.Documents, blobs, airtable.New(cfg.RecordStore, appLog), alerts, rec, appLog)
	if err != nil {
		return errx.Wrap(err)
	}

	srv := server.NewHTTPServer(cfg.HTTP, []server.Middleware{
		middleware.NewRecoveryMW(appLog),
		middleware.NewTracingMW(),
		middleware.NewTimeoutMW(cfg.HTTP.HandleTimeout),
		middleware.NewMetaInjectMW(cfg.ServiceName, cfg.ServiceVersion),
		middleware.NewAlertingMW(),
		middleware.NewLoggerMW(appLog),
		middleware.NewErrorHandlerMW(cfg.HTTP.HideErrorDetails),
	})
	srv.RegisterRouter(httpapi.New(svc, rec).Register)

	errCh := make(chan error, 1)
	go func() {
		log.With("address", cfg.HTTP.Address()).Info("http server started")
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.With("signal", sig.String()).Info("shutting down")
	case err = <-errCh:
		log.Errorx(errx.Wrap(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := srv.Stop(ctx); stopErr != nil {
		log.Errorx(errx.Wrap(stopErr))
	}
	svc.Close()

	if c, ok := alerts.(io.Closer); ok {
		if closeErr := c.Close(); closeErr != nil {
			log.Errorx(errx.Wrap(closeErr))
		}
	}

	if tracerErr := shutdownTracer(); tracerErr != nil {
		log.Errorx(errx.Wrap(tracerErr))
	}
	_ = logger.Sync()

	return errx.Wrap(err)
}
