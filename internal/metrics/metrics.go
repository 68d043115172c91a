package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// TimerMetric captures timing information
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
}

// ErrorRateMetric captures error rates
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

// Metrics is an in-process collector for counters, gauges, timers, error
// rates and component health.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]*int64
	gauges   map[string]*int64
	timers   map[string]*timerState
	errors   map[string]*errorState
	health   map[string]*int64

	startTime time.Time
}

type timerState struct {
	count       int64
	totalTimeMs int64
}

type errorState struct {
	total  int64
	errors int64
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:  make(map[string]*int64),
		gauges:    make(map[string]*int64),
		timers:    make(map[string]*timerState),
		errors:    make(map[string]*errorState),
		health:    make(map[string]*int64),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	atomic.AddInt64(m.counter(name), 1)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if gauge, exists = m.gauges[name]; !exists {
			var g int64
			gauge = &g
			m.gauges[name] = gauge
		}
		m.mu.Unlock()
	}

	atomic.StoreInt64(gauge, value)
}

// RecordTimer records a timing measurement
func (m *Metrics) RecordTimer(name string, duration time.Duration) {
	m.mu.RLock()
	timer, exists := m.timers[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if timer, exists = m.timers[name]; !exists {
			timer = &timerState{}
			m.timers[name] = timer
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&timer.count, 1)
	atomic.AddInt64(&timer.totalTimeMs, duration.Milliseconds())
}

// RecordSuccess records a successful operation for error rate tracking
func (m *Metrics) RecordSuccess(name string) {
	m.recordOutcome(name, false)
}

// RecordError records an error for error rate tracking
func (m *Metrics) RecordError(name string) {
	m.recordOutcome(name, true)
}

// SetHealth sets the health status of a component
func (m *Metrics) SetHealth(component string, isHealthy bool) {
	m.mu.RLock()
	health, exists := m.health[component]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if health, exists = m.health[component]; !exists {
			var h int64
			health = &h
			m.health[component] = health
		}
		m.mu.Unlock()
	}

	var value int64
	if isHealthy {
		value = 1
	}
	atomic.StoreInt64(health, value)
}

func (m *Metrics) counter(name string) *int64 {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		// Check again to avoid racing another creator
		if counter, exists = m.counters[name]; !exists {
			var c int64
			counter = &c
			m.counters[name] = counter
		}
		m.mu.Unlock()
	}
	return counter
}

func (m *Metrics) recordOutcome(name string, isError bool) {
	m.mu.RLock()
	state, exists := m.errors[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if state, exists = m.errors[name]; !exists {
			state = &errorState{}
			m.errors[name] = state
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&state.total, 1)
	if isError {
		atomic.AddInt64(&state.errors, 1)
	}
}

// GetCounters returns all counters
func (m *Metrics) GetCounters() map[string]int64 {
	counters := make(map[string]int64)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, counter := range m.counters {
		counters[name] = atomic.LoadInt64(counter)
	}
	return counters
}

// GetGauges returns all gauges
func (m *Metrics) GetGauges() map[string]int64 {
	gauges := make(map[string]int64)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, gauge := range m.gauges {
		gauges[name] = atomic.LoadInt64(gauge)
	}
	return gauges
}

// GetTimers returns all timers
func (m *Metrics) GetTimers() map[string]TimerMetric {
	timers := make(map[string]TimerMetric)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, timer := range m.timers {
		count := atomic.LoadInt64(&timer.count)
		total := atomic.LoadInt64(&timer.totalTimeMs)

		var average float64
		if count > 0 {
			average = float64(total) / float64(count)
		}

		timers[name] = TimerMetric{
			Count:         count,
			TotalTimeMs:   total,
			AverageTimeMs: average,
		}
	}
	return timers
}

// GetErrorRates returns all error rates
func (m *Metrics) GetErrorRates() map[string]ErrorRateMetric {
	rates := make(map[string]ErrorRateMetric)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, state := range m.errors {
		total := atomic.LoadInt64(&state.total)
		errs := atomic.LoadInt64(&state.errors)

		var rate float64
		if total > 0 {
			rate = float64(errs) / float64(total) * 100.0
		}

		rates[name] = ErrorRateMetric{
			Total:     total,
			Errors:    errs,
			ErrorRate: rate,
		}
	}
	return rates
}

// GetHealthChecks returns all health checks
func (m *Metrics) GetHealthChecks() map[string]bool {
	checks := make(map[string]bool)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, health := range m.health {
		checks[name] = atomic.LoadInt64(health) > 0
	}
	return checks
}

// GetUptimeSeconds returns the service uptime in seconds
func (m *Metrics) GetUptimeSeconds() int64 {
	return int64(time.Since(m.startTime).Seconds())
}

// GetAllMetrics returns all metrics in a structured format
func (m *Metrics) GetAllMetrics() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": m.GetUptimeSeconds(),
		"counters":       m.GetCounters(),
		"gauges":         m.GetGauges(),
		"timers":         m.GetTimers(),
		"error_rates":    m.GetErrorRates(),
		"health_checks":  m.GetHealthChecks(),
	}
}
