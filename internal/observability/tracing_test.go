package observability

import (
	"context"
	"testing"
)

func TestTracingConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("SYNTH_TRACING_ENABLED", "")
	t.Setenv("SYNTH_TRACING_EXPORTER", "")
	t.Setenv("SYNTH_TRACING_SERVICE_NAME", "")
	t.Setenv("SYNTH_TRACING_SAMPLE_RATIO", "")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Errorf("tracing enabled by default")
	}
	if cfg.Exporter != "stdout" {
		t.Errorf("default exporter: got %q, want %q", cfg.Exporter, "stdout")
	}
	if cfg.ServiceName != "uav-trace-synth" {
		t.Errorf("default service name: got %q", cfg.ServiceName)
	}
	if cfg.SampleRatio != 1.0 {
		t.Errorf("default sample ratio: got %v, want 1.0", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnv_ParsesOverrides(t *testing.T) {
	t.Setenv("SYNTH_TRACING_ENABLED", "TRUE")
	t.Setenv("SYNTH_TRACING_EXPORTER", "OTLP")
	t.Setenv("SYNTH_TRACING_SERVICE_NAME", "synth-test")
	t.Setenv("SYNTH_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("SYNTH_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled {
		t.Errorf("enabled override ignored")
	}
	if cfg.Exporter != "otlp" {
		t.Errorf("exporter: got %q, want %q", cfg.Exporter, "otlp")
	}
	if cfg.ServiceName != "synth-test" {
		t.Errorf("service name: got %q", cfg.ServiceName)
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("sample ratio: got %v, want 0.25", cfg.SampleRatio)
	}
	if cfg.Endpoint != "collector:4317" {
		t.Errorf("endpoint: got %q", cfg.Endpoint)
	}
}

func TestTracingConfigFromEnv_RejectsOutOfRangeRatio(t *testing.T) {
	t.Setenv("SYNTH_TRACING_SAMPLE_RATIO", "7")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1.0 {
		t.Errorf("out-of-range ratio accepted: got %v", cfg.SampleRatio)
	}
}

func TestInitTracing_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("InitTracing returned error: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("InitTracing returned nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned error: %v", err)
	}
}

func TestInitTracing_UnknownExporterFails(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "carrier-pigeon"}, nil)
	if err == nil {
		t.Fatalf("unknown exporter accepted")
	}
}
