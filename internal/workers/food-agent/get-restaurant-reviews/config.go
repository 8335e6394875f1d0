// internal/workers/food-agent/get-restaurant-reviews/config.go
package getrestaurantreviews

import (
	"time"

	"github.com/nurlan6812/food-agent/internal/common/config"
)

// One browser session with scrolling rounds on the review tab.
const defaultTimeout = 120 * time.Second

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
