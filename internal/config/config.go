package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the service configuration, loaded from the environment.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}
	Catalog struct {
		// Path points to a YAML catalog. Empty selects the built-in
		// turbofan catalog.
		Path string `env:"CATALOG_PATH"`
	}
	Evaluation struct {
		Timeout time.Duration `env:"EVAL_TIMEOUT" envDefault:"30s"`
	}
	Optimization struct {
		PopSize     int `env:"OPT_POP_SIZE" envDefault:"40"`
		Generations int `env:"OPT_GENERATIONS" envDefault:"30"`
		Workers     int `env:"OPT_WORKER_COUNT" envDefault:"10"`
	}
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
