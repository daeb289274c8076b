package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/uav-trace-synth/core"
	"github.com/signalsfoundry/uav-trace-synth/internal/logging"
	"github.com/signalsfoundry/uav-trace-synth/internal/observability"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario driving the whole run")
	tracePath := flag.String("trace", "", "source trace to ingest (when no scenario is given)")
	outPath := flag.String("out", "", "export path (when no scenario is given)")
	planar := flag.Bool("planar", false, "re-project the export to planar metres")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (optional)")

	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewSynthCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *metricsAddr != "" {
		go serveMetrics(ctx, *metricsAddr, collector, log)
	}

	if err := run(ctx, *scenarioPath, *tracePath, *outPath, *planar, log, collector); err != nil {
		log.Error(ctx, "run failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, scenarioPath, tracePath, outPath string, planar bool, log logging.Logger, collector *observability.SynthCollector) error {
	if log == nil {
		log = logging.Noop()
	}
	tracer := otel.Tracer("synthesizer")
	sim := core.NewSimulation(log, collector)

	if scenarioPath != "" {
		f, err := os.Open(scenarioPath)
		if err != nil {
			return err
		}
		scenario, err := core.LoadScenario(f)
		f.Close()
		if err != nil {
			return err
		}

		ctx, ingestSpan := tracer.Start(ctx, "ingest")
		err = sim.LoadTraceFile(scenario.Trace)
		ingestSpan.End()
		if err != nil {
			return err
		}

		ctx, synthSpan := tracer.Start(ctx, "synthesize")
		result, err := scenario.Run(sim, log)
		synthSpan.End()
		if err != nil {
			return err
		}
		log.Info(ctx, "scenario complete",
			logging.Int("drones", len(result.DroneIDs)),
			logging.Int("skipped", result.Skipped),
		)
		return nil
	}

	if tracePath == "" || outPath == "" {
		return flagError("either -scenario or both -trace and -out are required")
	}

	ctx, ingestSpan := tracer.Start(ctx, "ingest")
	err := sim.LoadTraceFile(tracePath)
	ingestSpan.End()
	if err != nil {
		return err
	}

	_, exportSpan := tracer.Start(ctx, "export")
	err = sim.ExportTraceFile(outPath, planar)
	exportSpan.End()
	return err
}

func serveMetrics(ctx context.Context, addr string, collector *observability.SynthCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	log.Info(ctx, "serving metrics", logging.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
	}
}

type flagError string

func (e flagError) Error() string { return string(e) }
