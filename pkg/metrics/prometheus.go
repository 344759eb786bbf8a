// Package metrics provides Prometheus metrics for the grove service.
package metrics

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Progression
	ritualsToggled       *prometheus.CounterVec
	totalXP              prometheus.Gauge
	todayXP              prometheus.Gauge
	stage                prometheus.Gauge
	ritualCompletion     prometheus.Gauge
	stageTransitions     *prometheus.CounterVec
	dailyResets          prometheus.Counter
	onboardingCompletion *prometheus.CounterVec
	moodChanges          *prometheus.CounterVec

	// Settings persistence
	settingsWrites prometheus.Counter
	settingsErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// global pairs the package-level manager with the registry it exports.
type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

// active is swapped by Init; readers always see a complete pair.
var active atomic.Pointer[global] //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	Init()
}

// Init replaces the package-level manager with one built from opts on a
// fresh custom registry, which keeps default Go metrics out. Call it before
// serving; handlers built earlier keep exporting the previous registry.
func Init(opts ...Option) {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	active.Store(&global{manager: m, registry: reg})
}

func current() *Manager { return active.Load().manager }

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "grove",
		subsystem:        "growth",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ritualsToggled = auto.NewCounterVec(
		m.counterOpts("rituals_toggled_total", "Ritual toggles by resulting state"),
		[]string{"state"},
	)
	m.totalXP = auto.NewGauge(m.gaugeOpts("xp_total", "Accumulated lifetime XP"))
	m.todayXP = auto.NewGauge(m.gaugeOpts("xp_today", "XP earned since the last daily reset"))
	m.stage = auto.NewGauge(m.gaugeOpts("stage", "Current growth stage ordinal (0 seed .. 4 flourishing)"))
	m.ritualCompletion = auto.NewGauge(m.gaugeOpts("ritual_completion_ratio", "Completed rituals over total for today"))
	m.stageTransitions = auto.NewCounterVec(
		m.counterOpts("stage_transitions_total", "Stage changes by direction"),
		[]string{"direction", "to"},
	)
	m.dailyResets = auto.NewCounter(m.counterOpts("daily_resets_total", "Daily resets performed"))
	m.onboardingCompletion = auto.NewCounterVec(
		m.counterOpts("onboarding_completions_total", "Completed onboarding questionnaires by starting stage"),
		[]string{"stage"},
	)
	m.moodChanges = auto.NewCounterVec(
		m.counterOpts("mood_changes_total", "Mood selections"),
		[]string{"mood"},
	)

	m.settingsWrites = auto.NewCounter(m.counterOpts("settings_writes_total", "Successful settings writes"))
	m.settingsErrors = auto.NewCounterVec(
		m.counterOpts("settings_errors_total", "Settings store failures by operation"),
		[]string{"op"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordRitualToggled counts a toggle that left the ritual completed or not.
func RecordRitualToggled(completed bool) {
	state := "cleared"
	if completed {
		state = "completed"
	}
	current().ritualsToggled.WithLabelValues(state).Inc()
}

// UpdateProgress sets the XP, stage and completion gauges.
func UpdateProgress(totalXP, todayXP, stage int, completion float64) {
	current().totalXP.Set(float64(totalXP))
	current().todayXP.Set(float64(todayXP))
	current().stage.Set(float64(stage))
	current().ritualCompletion.Set(completion)
}

// RecordStageTransition counts a promotion or demotion into stage to.
func RecordStageTransition(direction, to string) {
	current().stageTransitions.WithLabelValues(direction, to).Inc()
}

// RecordDailyReset increments the daily reset counter.
func RecordDailyReset() {
	current().dailyResets.Inc()
}

// RecordOnboardingCompleted counts a finished questionnaire.
func RecordOnboardingCompleted(stage string) {
	current().onboardingCompletion.WithLabelValues(stage).Inc()
}

// RecordMoodChange counts a mood selection.
func RecordMoodChange(mood string) {
	current().moodChanges.WithLabelValues(mood).Inc()
}

// RecordSettingsWrite increments the settings write counter.
func RecordSettingsWrite() {
	current().settingsWrites.Inc()
}

// RecordSettingsError counts a failed settings operation.
func RecordSettingsError(op string) {
	current().settingsErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	current().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	current().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	current().errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemStats samples heap usage and goroutine count.
func UpdateSystemStats() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	current().systemMemoryUsage.Set(float64(ms.HeapInuse))
	current().systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RunSystemCollector samples runtime gauges every refresh interval until ctx
// is done.
func RunSystemCollector(ctx context.Context) {
	UpdateSystemStats()
	ticker := time.NewTicker(current().refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateSystemStats()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return active.Load().registry
}
