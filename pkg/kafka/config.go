package kafka

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

var validate = validator.New()

// ProducerConfig shapes the writer that publishes forecast run events. Zero
// fields take the tagged defaults, so a zero RequiredAcks waits for all replicas.
// A nil Metrics registerer disables producer metrics.
type ProducerConfig struct {
	HashByKey bool

	Brokers      []string              `validate:"min=1,dive,required"`
	Metrics      prometheus.Registerer `validate:"-"`
	RequiredAcks int                   `default:"-1" validate:"oneof=-1 1"`
	Compression  string                `default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	MaxAttempts  int                   `default:"3" validate:"gte=1"`
	BatchSize    int                   `default:"100" validate:"gte=1"`
	BatchBytes   int                   `default:"1048576" validate:"gte=1"`
	BatchTimeout time.Duration         `default:"10ms"`
	WriteTimeout time.Duration         `default:"10s"`
	ReadTimeout  time.Duration         `default:"10s"`
}

func (c ProducerConfig) normalize() (ProducerConfig, error) {
	if err := defaults.Set(&c); err != nil {
		return c, fmt.Errorf("producer defaults: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("producer config: %w", err)
	}
	return c, nil
}
