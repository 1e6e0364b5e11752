// Package metrics собирает метрики прогонов и отправляет их в Prometheus Pushgateway.
//
// При отключённых метриках используется NopCollector, поэтому вызывающий
// код не проверяет конфигурацию сам.
package metrics

import (
	"context"
	"time"
)

// Collector — сбор метрик команды и её шагов.
// Реализации: PrometheusCollector и NopCollector.
type Collector interface {
	// RecordCommandEnd записывает завершение команды для сценария.
	RecordCommandEnd(command, scenario string, duration time.Duration, success bool)

	// RecordStep записывает результат одного шага сценария.
	// status: "pass", "fail" или "skip".
	RecordStep(scenario, step, status string, duration time.Duration)

	// Push отправляет накопленные метрики. Ошибки отправки только логируются,
	// все реализации возвращают nil.
	Push(ctx context.Context) error
}

// NopCollector ничего не собирает.
type NopCollector struct{}

// NewNopCollector создаёт NopCollector.
func NewNopCollector() *NopCollector {
	return &NopCollector{}
}

func (c *NopCollector) RecordCommandEnd(string, string, time.Duration, bool) {}
func (c *NopCollector) RecordStep(string, string, string, time.Duration)     {}
func (c *NopCollector) Push(context.Context) error                           { return nil }
