package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SynthCollector bundles Prometheus metrics for the synthesis engine
// and satisfies core.Recorder so the Simulation can drive them directly
// from its mutators.
type SynthCollector struct {
	gatherer prometheus.Gatherer

	DronesCreated  *prometheus.CounterVec
	SamplesTotal   prometheus.Counter
	IngestDuration prometheus.Histogram
	ExportDuration prometheus.Histogram

	RegistryVehicles prometheus.Gauge
	TraceTicks       prometheus.Gauge
}

// NewSynthCollector registers synthesis metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSynthCollector(reg prometheus.Registerer) (*SynthCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	drones := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "synth_drones_created_total",
		Help: "Total number of drones created, labeled by pattern.",
	}, []string{"pattern"})
	drones, err := registerCounterVec(reg, drones, "synth_drones_created_total")
	if err != nil {
		return nil, err
	}

	samples, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "synth_samples_generated_total",
		Help: "Total number of trajectory samples generated across all drones.",
	}), "synth_samples_generated_total")
	if err != nil {
		return nil, err
	}

	ingest, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "synth_trace_ingest_duration_seconds",
		Help:    "Source trace ingestion latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "synth_trace_ingest_duration_seconds")
	if err != nil {
		return nil, err
	}

	export, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "synth_trace_export_duration_seconds",
		Help:    "Trace export latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "synth_trace_export_duration_seconds")
	if err != nil {
		return nil, err
	}

	vehicles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synth_registry_vehicles",
		Help: "Current number of agents in the simulation registry.",
	}), "synth_registry_vehicles")
	if err != nil {
		return nil, err
	}

	ticks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synth_trace_ticks",
		Help: "Highest tick ingested from the source trace.",
	}), "synth_trace_ticks")
	if err != nil {
		return nil, err
	}

	return &SynthCollector{
		gatherer:         gatherer,
		DronesCreated:    drones,
		SamplesTotal:     samples,
		IngestDuration:   ingest,
		ExportDuration:   export,
		RegistryVehicles: vehicles,
		TraceTicks:       ticks,
	}, nil
}

// DroneCreated implements core.Recorder.
func (c *SynthCollector) DroneCreated(pattern string) {
	if c == nil || c.DronesCreated == nil {
		return
	}
	c.DronesCreated.WithLabelValues(pattern).Inc()
}

// SamplesGenerated implements core.Recorder.
func (c *SynthCollector) SamplesGenerated(n int) {
	if c == nil || c.SamplesTotal == nil {
		return
	}
	c.SamplesTotal.Add(float64(n))
}

// IngestObserved implements core.Recorder.
func (c *SynthCollector) IngestObserved(ticks int, seconds float64) {
	if c == nil {
		return
	}
	if c.IngestDuration != nil {
		c.IngestDuration.Observe(seconds)
	}
	if c.TraceTicks != nil {
		c.TraceTicks.Set(float64(ticks))
	}
}

// ExportObserved implements core.Recorder.
func (c *SynthCollector) ExportObserved(seconds float64) {
	if c == nil || c.ExportDuration == nil {
		return
	}
	c.ExportDuration.Observe(seconds)
}

// RegistrySize implements core.Recorder.
func (c *SynthCollector) RegistrySize(vehicles int) {
	if c == nil || c.RegistryVehicles == nil {
		return
	}
	c.RegistryVehicles.Set(float64(vehicles))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SynthCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
