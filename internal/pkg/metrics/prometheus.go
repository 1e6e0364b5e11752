package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/urlutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "aihub_smoke"

// maxLabelLength ограничивает длину значения label.
const maxLabelLength = 128

// NewCollector возвращает NopCollector при выключенных метриках
// и PrometheusCollector при включённых.
func NewCollector(config Config, logger logging.Logger) (Collector, error) {
	if !config.Enabled {
		return NewNopCollector(), nil
	}
	return NewPrometheusCollector(config, logger)
}

// PrometheusCollector копит метрики в собственном registry и
// отправляет их в Pushgateway при Push().
type PrometheusCollector struct {
	config   Config
	logger   logging.Logger
	registry *prometheus.Registry
	instance string

	commandDuration *prometheus.HistogramVec
	runTotal        *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	stepTotal       *prometheus.CounterVec
}

// NewPrometheusCollector регистрирует метрики:
//   - aihub_smoke_command_duration_seconds (histogram)
//   - aihub_smoke_run_total{command,scenario,status} (counter)
//   - aihub_smoke_step_duration_seconds (histogram)
//   - aihub_smoke_step_total{scenario,step,status} (counter)
func NewPrometheusCollector(config Config, logger logging.Logger) (*PrometheusCollector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	instance := config.InstanceLabel
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logger.Warn("не удалось получить hostname для instance label", "error", err.Error())
			hostname = "unknown"
		}
		instance = hostname
	}

	c := &PrometheusCollector{
		config:   config,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		instance: instance,
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of a smoke command in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"command", "scenario", "status"}),
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_total",
			Help:      "Total number of smoke runs by outcome",
		}, []string{"command", "scenario", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of a single smoke step in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"scenario", "step"}),
		stepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_total",
			Help:      "Total number of smoke steps by status",
		}, []string{"scenario", "step", "status"}),
	}

	for _, m := range []prometheus.Collector{c.commandDuration, c.runTotal, c.stepDuration, c.stepTotal} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("ошибка регистрации метрики: %w", err)
		}
	}
	return c, nil
}

// RecordCommandEnd записывает длительность и исход команды.
func (c *PrometheusCollector) RecordCommandEnd(command, scenario string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	command, scenario = sanitizeLabel(command), sanitizeLabel(scenario)

	c.commandDuration.WithLabelValues(command, scenario, status).Observe(duration.Seconds())
	c.runTotal.WithLabelValues(command, scenario, status).Inc()
}

// RecordStep записывает длительность и статус шага.
func (c *PrometheusCollector) RecordStep(scenario, step, status string, duration time.Duration) {
	scenario, step = sanitizeLabel(scenario), sanitizeLabel(step)

	c.stepDuration.WithLabelValues(scenario, step).Observe(duration.Seconds())
	c.stepTotal.WithLabelValues(scenario, step, sanitizeLabel(status)).Inc()
}

// Push отправляет метрики в Pushgateway. Ошибка отправки не критична
// для smoke-прогона, поэтому только логируется.
func (c *PrometheusCollector) Push(ctx context.Context) error {
	if ctx.Err() != nil {
		c.logger.Debug("metrics push отменён")
		return nil
	}

	pushCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	pusher := push.New(c.config.PushgatewayURL, c.config.JobName).
		Gatherer(c.registry).
		Grouping("instance", c.instance)

	if err := pusher.PushContext(pushCtx); err != nil {
		c.logger.Error("ошибка отправки метрик в Pushgateway",
			"error", err.Error(),
			"url", urlutil.MaskURL(c.config.PushgatewayURL),
		)
		return nil
	}

	c.logger.Info("метрики отправлены в Pushgateway",
		"url", urlutil.MaskURL(c.config.PushgatewayURL),
		"job", c.config.JobName,
	)
	return nil
}

// Registry возвращает внутренний registry. Используется в тестах.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// sanitizeLabel заменяет управляющие символы и обрезает значение по рунам.
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, value)

	runes := []rune(clean)
	if len(runes) > maxLabelLength {
		return string(runes[:maxLabelLength])
	}
	return clean
}
