package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"

	"github.com/nats-io/nats.go"
)

// Publisher — часть *nats.Conn, нужная NATSAlerter.
type Publisher interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSAlerter публикует алерты в NATS subject, откуда их забирают
// дашборды и on-call боты.
type NATSAlerter struct {
	config NATSConfig
	conn   Publisher
	logger logging.Logger
}

// DialNATS подключается к NATS и создаёт NATSAlerter.
func DialNATS(config NATSConfig, logger logging.Logger) (*NATSAlerter, error) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultNATSTimeout
	}

	conn, err := nats.Connect(config.URL,
		nats.Name(config.ClientID),
		nats.Timeout(timeout),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err.Error())
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewNATSAlerter(config, conn, logger), nil
}

// NewNATSAlerter создаёт NATSAlerter поверх готового соединения.
func NewNATSAlerter(config NATSConfig, conn Publisher, logger logging.Logger) *NATSAlerter {
	if config.Subject == "" {
		config.Subject = DefaultNATSSubject
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultNATSTimeout
	}
	return &NATSAlerter{config: config, conn: conn, logger: logger}
}

// natsEvent — тело сообщения в subject.
type natsEvent struct {
	Type        string    `json:"type"`
	ErrorCode   string    `json:"error_code"`
	Message     string    `json:"message"`
	Scenario    string    `json:"scenario"`
	Target      string    `json:"target"`
	FailedSteps []string  `json:"failed_steps,omitempty"`
	Severity    string    `json:"severity"`
	TraceID     string    `json:"trace_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// Send публикует алерт в <subject>.<scenario>.
func (n *NATSAlerter) Send(_ context.Context, alert Alert) error {
	eventType := "smoke.failed"
	if alert.Resolved {
		eventType = "smoke.recovered"
	}

	data, err := json.Marshal(natsEvent{
		Type:        eventType,
		ErrorCode:   alert.ErrorCode,
		Message:     alert.Message,
		Scenario:    alert.Scenario,
		Target:      alert.Target,
		FailedSteps: alert.FailedSteps,
		Severity:    alert.Severity.String(),
		TraceID:     alert.TraceID,
		Timestamp:   alert.Timestamp,
	})
	if err != nil {
		n.logger.Error("не удалось сериализовать NATS алерт", "error", err.Error())
		return nil
	}

	subject := n.subjectFor(alert.Scenario)
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error("ошибка публикации NATS алерта", "error", err.Error(), "subject", subject)
		return nil
	}
	if err := n.conn.FlushTimeout(n.config.Timeout); err != nil {
		n.logger.Warn("NATS flush не подтверждён", "error", err.Error(), "subject", subject)
		return nil
	}

	n.logger.Info("NATS алерт опубликован", "subject", subject, "error_code", alert.ErrorCode)
	return nil
}

func (n *NATSAlerter) subjectFor(scenario string) string {
	if scenario == "" {
		return n.config.Subject
	}
	return n.config.Subject + "." + scenario
}

// Close закрывает соединение с NATS.
func (n *NATSAlerter) Close() error {
	n.conn.Close()
	return nil
}
