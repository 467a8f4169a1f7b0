package config

import (
	"time"

	"github.com/code-and-chill/txdeadline/pkg/logger"
	"github.com/code-and-chill/txdeadline/pkg/mysql"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Prefix of every environment variable read by Load.
const Prefix = "txdeadline"

// ReproConfig tunes the reference scenarios.
type ReproConfig struct {
	// Timeout of the transaction in the deadline scenarios.
	Timeout time.Duration `default:"2s"`
	// Delay before the statement in the delayed scenarios. It should exceed Timeout.
	Delay time.Duration `default:"3s"`
}

// Config is the whole configuration.
type Config struct {
	MySQL   mysql.Config
	Replica ReplicaConfig
	Logger  logger.Config
	Repro   ReproConfig
}

// ReplicaConfig optionally routes reads to a replica.
type ReplicaConfig struct {
	Enabled    bool
	Connection mysql.ConnectionConfig
}

// Load reads the configuration from TXDEADLINE_* environment variables, e.g.
// TXDEADLINE_MYSQL_MASTER_HOST or TXDEADLINE_REPRO_TIMEOUT.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, errors.WithStack(err)
	}
	if cfg.Replica.Enabled {
		replica := cfg.Replica.Connection
		cfg.MySQL.Slave = &replica
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	if c.Repro.Timeout < 0 {
		return errors.Errorf("repro timeout must not be negative, got %s", c.Repro.Timeout)
	}
	if c.Repro.Delay <= c.Repro.Timeout {
		return errors.Errorf("repro delay %s must exceed timeout %s", c.Repro.Delay, c.Repro.Timeout)
	}
	if c.MySQL.QueryTimeout < 0 {
		return errors.Errorf("query timeout must not be negative, got %d", c.MySQL.QueryTimeout)
	}
	return nil
}
