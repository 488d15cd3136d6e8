package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/tournevent/dhlbridge/internal/config"
	"github.com/tournevent/dhlbridge/internal/telemetry"
	"github.com/tournevent/dhlbridge/pkg/dhl"
	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

var loadedConfig *config.Config

func configuredAccounts() []string {
	if loadedConfig == nil {
		return nil
	}
	return loadedConfig.DHLAccountNumbers
}

// withGateway wires config, telemetry and the gateway around a
// command body, prints the JSON result and tears tracing down.
func withGateway(run func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		loadedConfig = cfg

		logger, err := telemetry.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var tracer trace.Tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
		if cfg.OTELEnabled {
			t, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
			if err != nil {
				logger.Warn("Failed to initialize tracer", zap.Error(err))
			} else {
				tracer = t
				defer shutdown(ctx)
			}
		}

		gw := buildGateway(cfg, logger, tracer)

		start := time.Now()
		result, err := run(ctx, gw, args)
		recordOutcome(cmd.Name(), err, time.Since(start))
		if err != nil {
			return err
		}
		return printResult(result)
	}
}

var metrics = telemetry.NewMetrics()

func recordOutcome(operation string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
		rec := dhl.MapError(err)
		metrics.RecordError(operation, string(rec.Kind))
		metrics.RecordRetries(operation, rec.RetriesConsumed)
	}
	metrics.RecordRequest(operation, status, d.Seconds())
}

func buildGateway(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *dhl.Gateway {
	gwCfg := dhl.Config{
		Credentials: dhl.Credentials{
			Username:       cfg.DHLUsername,
			Password:       cfg.DHLPassword,
			AccountNumbers: cfg.DHLAccountNumbers,
			SOAPBaseURL:    cfg.DHLSOAPBaseURL,
			RESTBaseURL:    cfg.DHLRESTBaseURL,
			Environment:    cfg.DHLEnvironment,
		},
		ShipWindowMin: cfg.ShipWindowMin,
		ShipWindowMax: cfg.ShipWindowMax,
		Timeout:       cfg.Timeout,
	}
	if cfg.DHLUseMock {
		gwCfg.Client = transport.NewMockClient()
	} else if cfg.TLSSkipVerify {
		gwCfg.Client = transport.NewHTTPClient(transport.Config{
			Username:           cfg.DHLUsername,
			Password:           cfg.DHLPassword,
			Timeout:            cfg.Timeout,
			InsecureSkipVerify: true,
			Logger:             logger,
		})
	}
	return dhl.New(gwCfg, logger, tracer)
}
