package repository

import (
	"context"
	"fmt"
	"time"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
)

// RunCompletedEvent is the message type of finished forecast runs.
const RunCompletedEvent = "forecast.run.completed"

// messageWriter is the part of pkg/kafka.Producer the publisher needs.
type messageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// RunEvent is the payload published for every finished run. Points are left out.
type RunEvent struct {
	Type      string                 `json:"type"`
	RunID     string                 `json:"run_id"`
	Scope     string                 `json:"scope"`
	Target    string                 `json:"target"`
	Engine    string                 `json:"engine"`
	Status    models.RunStatus       `json:"status"`
	Error     string                 `json:"error,omitempty"`
	MAPE      *float64               `json:"mape"`
	Horizon   models.Horizon         `json:"horizon"`
	Summary   models.ForecastSummary `json:"summary"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewRunEvent(run *models.ForecastRun) RunEvent {
	return RunEvent{
		Type:      RunCompletedEvent,
		RunID:     run.ID,
		Scope:     run.Scope,
		Target:    run.Target,
		Engine:    run.Engine,
		Status:    run.Status,
		Error:     run.Error,
		MAPE:      run.MAPE,
		Horizon:   run.Horizon,
		Summary:   run.Summary,
		CreatedAt: run.CreatedAt,
	}
}

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by run id.
type KafkaPublisher struct {
	producer messageWriter
	topic    string
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishRun(ctx context.Context, run *models.ForecastRun) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(run.ID), NewRunEvent(run)); err != nil {
		return fmt.Errorf("publish run %s: %w", run.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
