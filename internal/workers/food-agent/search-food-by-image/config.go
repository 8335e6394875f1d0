// internal/workers/food-agent/search-food-by-image/config.go
package searchfoodbyimage

import (
	"time"

	"github.com/nurlan6812/food-agent/internal/common/config"
)

// Upload, two lens providers and up to three blog crawls run in sequence.
const defaultTimeout = 180 * time.Second

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
