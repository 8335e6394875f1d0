// internal/workers/food-agent/get-nutrition-info/config.go
package getnutritioninfo

import (
	"time"

	"github.com/nurlan6812/food-agent/internal/common/config"
)

const defaultTimeout = 60 * time.Second

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{Timeout: config.GetDuration(wcfg.Timeout)}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}
