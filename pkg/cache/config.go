package cache

import (
	"time"

	"github.com/creasty/defaults"
)

// RedisConfig locates the shared cache that backs the per-process layer when
// several API replicas serve the same run store. Zero fields take the tagged
// defaults.
type RedisConfig struct {
	Password string
	DB       int

	Addr         string        `default:"localhost:6379"`
	Prefix       string        `default:"salescast:"`
	PoolSize     int           `default:"10"`
	MinIdleConns int           `default:"2"`
	PoolTimeout  time.Duration `default:"4s"`
	PingTimeout  time.Duration `default:"5s"`
}

// MemoryConfig sizes the in-process cache. Reports and run listings are small,
// so entries are counted rather than weighed.
type MemoryConfig struct {
	MaxSize         int           `default:"1000"`
	CleanupInterval time.Duration `default:"5m"`
}

// withDefaults fills zero fields of a config struct from its tags.
func withDefaults[T any](cfg T) T {
	// only fails on malformed tags, which are fixed above
	_ = defaults.Set(&cfg)
	return cfg
}
