package redisstage

import "time"

// Config holds the connection and key layout of the staging side-table.
// An empty ConnectionURL means Redis staging is disabled.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"` // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	KeyPrefix string        `env:"STAGE_PREFIX" envDefault:"statekit:stage:"`
	TTL       time.Duration `env:"STAGE_TTL" envDefault:"24h"` // zero keeps unconsumed metadata forever
}
