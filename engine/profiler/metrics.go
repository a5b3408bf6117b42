package profiler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oxy_particles"

// Metrics holds the prometheus collectors for the particle pool, the GPU mirror and the frame loop.
// All methods are safe to call on a nil *Metrics, in which case they do nothing.
type Metrics struct {
	LiveParticles    prometheus.Gauge
	PoolCapacity     prometheus.Gauge
	MirrorState      prometheus.Gauge
	Dispatches       prometheus.Counter
	UploadedBytes    prometheus.Counter
	DownloadFailures prometheus.Counter
	Frames           prometheus.Counter
	FPS              prometheus.Gauge
	Heap             *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
//
// Parameters:
//   - reg: the registerer to use, typically prometheus.NewRegistry() or prometheus.DefaultRegisterer
//
// Returns:
//   - *Metrics: the registered collectors
//   - error: an error if any collector is already registered
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		LiveParticles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_particles",
			Help:      "Number of live particles in the pool",
		}),
		PoolCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_capacity",
			Help:      "Maximum number of particles the pool manages",
		}),
		MirrorState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mirror_state",
			Help:      "GPU mirror state (0 unallocated, 1 allocated, 2 consistent, 3 dirty)",
		}),
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Compute dispatches issued",
		}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes written to the GPU mirror buffer",
		}),
		DownloadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_failures_total",
			Help:      "GPU mirror downloads that failed to map",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames rendered",
		}),
		FPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Frames per second over the last profiler interval",
		}),
		Heap: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_stats",
			Help:      "Heap memory statistics",
		}, []string{"type"}),
	}

	for _, c := range []prometheus.Collector{
		m.LiveParticles, m.PoolCapacity, m.MirrorState, m.Dispatches,
		m.UploadedBytes, m.DownloadFailures, m.Frames, m.FPS, m.Heap,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SetPool records the pool's live count and capacity.
func (m *Metrics) SetPool(live, capacity int) {
	if m == nil {
		return
	}
	m.LiveParticles.Set(float64(live))
	m.PoolCapacity.Set(float64(capacity))
}

// SetMirrorState records the mirror's state as its ordinal.
func (m *Metrics) SetMirrorState(state int) {
	if m == nil {
		return
	}
	m.MirrorState.Set(float64(state))
}

// ObserveUpload counts bytes written to the mirror buffer.
func (m *Metrics) ObserveUpload(bytes int) {
	if m == nil {
		return
	}
	m.UploadedBytes.Add(float64(bytes))
}

// ObserveDispatch counts one compute dispatch.
func (m *Metrics) ObserveDispatch() {
	if m == nil {
		return
	}
	m.Dispatches.Inc()
}

// ObserveDownloadFailure counts one failed download.
func (m *Metrics) ObserveDownloadFailure() {
	if m == nil {
		return
	}
	m.DownloadFailures.Inc()
}

// ObserveFrame counts one rendered frame.
func (m *Metrics) ObserveFrame() {
	if m == nil {
		return
	}
	m.Frames.Inc()
}

// ObserveRuntime records frame rate and heap statistics.
func (m *Metrics) ObserveRuntime(fps float64, stats *runtime.MemStats) {
	if m == nil {
		return
	}
	m.FPS.Set(fps)
	m.Heap.WithLabelValues("alloc").Set(float64(stats.HeapAlloc))
	m.Heap.WithLabelValues("sys").Set(float64(stats.HeapSys))
	m.Heap.WithLabelValues("inuse").Set(float64(stats.HeapInuse))
	m.Heap.WithLabelValues("objects").Set(float64(stats.HeapObjects))
}

// NewServer creates an HTTP server exposing the gatherer's metrics on /metrics.
//
// Parameters:
//   - addr: the listen address
//   - gatherer: the registry to expose
//
// Returns:
//   - *http.Server: the configured, not yet started server
func NewServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
