// internal/workers/food-agent/search-restaurant-info/config.go
package searchrestaurantinfo

import (
	"time"

	"github.com/nurlan6812/food-agent/internal/common/config"
)

// Place search plus one browser session for the menu tab.
const defaultTimeout = 90 * time.Second

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
