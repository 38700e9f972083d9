package clickhouse

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ClientConfig locates the ClickHouse server that keeps forecast runs. Zero
// fields take the tagged defaults. MaxExecTime is sent in whole seconds.
type ClientConfig struct {
	Password string
	UseHTTP  bool

	Host            string        `validate:"required"`
	User            string        `default:"default"`
	Port            int           `default:"9000" validate:"gte=1,lte=65535"`
	Database        string        `default:"salescast"`
	MaxOpenConns    int           `default:"4" validate:"gte=1"`
	MaxIdleConns    int           `default:"2" validate:"gte=0"`
	ConnMaxLifetime time.Duration `default:"5m"`
	DialTimeout     time.Duration `default:"5s"`
	ReadTimeout     time.Duration `default:"30s"`
	MaxExecTime     time.Duration `default:"60s"`
}

func (c ClientConfig) normalize() (ClientConfig, error) {
	if err := defaults.Set(&c); err != nil {
		return c, fmt.Errorf("clickhouse defaults: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("clickhouse config: %w", err)
	}
	return c, nil
}
