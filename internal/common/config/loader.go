// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Task types served by this process.
const (
	TaskSearchFoodByImage    = "search-food-by-image"
	TaskSearchRestaurantInfo = "search-restaurant-info"
	TaskGetRestaurantReviews = "get-restaurant-reviews"
	TaskSearchRecipeOnline   = "search-recipe-online"
	TaskGetNutritionInfo     = "get-nutrition-info"
)

// TaskTypes lists every worker task type.
var TaskTypes = []string{
	TaskSearchFoodByImage,
	TaskSearchRestaurantInfo,
	TaskGetRestaurantReviews,
	TaskSearchRecipeOnline,
	TaskGetNutritionInfo,
}

// Load reads configs/config.yaml merged with config.<APP_ENVIRONMENT>.yaml.
// When CONFIG_FILE is set, that single file is read instead.
func Load() (*Config, error) {
	loadEnvFile()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return LoadFromFile(path)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig fills credentials from the conventional env names.
func overrideEmptyConfig(cfg *Config) {
	fill := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = os.Getenv(envKey)
		}
	}

	fill(&cfg.Providers.SerpAPI.APIKey, "SERPAPI_KEY")
	fill(&cfg.Providers.Serper.APIKey, "SERPER_API_KEY")
	fill(&cfg.Providers.Kakao.APIKey, "KAKAO_API_KEY")
	fill(&cfg.Upload.ImgBB.APIKey, "IMGBB_API_KEY")
	fill(&cfg.Upload.FreeImage.APIKey, "FREEIMAGE_API_KEY")
	fill(&cfg.Cache.Redis.Address, "REDIS_ADDRESS")
	fill(&cfg.Browser.ExecPath, "CHROME_PATH")
	fill(&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS")
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "food-agent"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Workers == nil {
		cfg.Workers = make(map[string]WorkerConfig)
	}
	for _, taskType := range TaskTypes {
		if _, ok := cfg.Workers[taskType]; !ok {
			cfg.Workers[taskType] = WorkerConfig{Enabled: true}
		}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	setString(&cfg.Providers.SerpAPI.BaseURL, "https://serpapi.com/search")
	setInt(&cfg.Providers.SerpAPI.Timeout, 30000)
	setString(&cfg.Providers.Serper.BaseURL, "https://google.serper.dev")
	setInt(&cfg.Providers.Serper.Timeout, 30000)
	setString(&cfg.Providers.Kakao.BaseURL, "https://dapi.kakao.com")
	setString(&cfg.Providers.Kakao.PlaceBaseURL, "https://place.map.kakao.com")
	setInt(&cfg.Providers.Kakao.Timeout, 10000)
	setInt(&cfg.Providers.Kakao.PageSize, 5)

	setString(&cfg.Upload.Litterbox.URL, "https://litterbox.catbox.moe/resources/internals/api.php")
	setInt(&cfg.Upload.Litterbox.Timeout, 60000)
	setString(&cfg.Upload.Litterbox.Expiry, "1h")
	setString(&cfg.Upload.ImgBB.URL, "https://api.imgbb.com/1/upload")
	setInt(&cfg.Upload.ImgBB.Timeout, 30000)
	setString(&cfg.Upload.ImgBB.Expiry, "600")
	setString(&cfg.Upload.FreeImage.URL, "https://freeimage.host/api/1/upload")
	setInt(&cfg.Upload.FreeImage.Timeout, 30000)

	setInt(&cfg.Browser.NavigationTimeout, 15000)
	setInt(&cfg.Browser.FlowTimeout, 60000)
	setInt(&cfg.Browser.SettleDelay, 2000)
	setInt(&cfg.Browser.ScrollPause, 400)
	setInt(&cfg.Browser.ScrollRounds, 5)
	setInt(&cfg.Browser.MaxMenuLines, 60)
	setInt(&cfg.Browser.MaxReviews, 15)

	setInt(&cfg.Pipeline.MaxBlogs, 3)
	setInt(&cfg.Pipeline.BlogExcerptRunes, 1000)
	setInt(&cfg.Pipeline.MaxPlaces, 3)

	setInt(&cfg.Cache.TTL, 600000)
	setString(&cfg.Cache.Prefix, "food-agent")

	setInt(&cfg.HTTP.Timeout, 10000)
	setString(&cfg.HTTP.UserAgent,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	setString(&cfg.HTTP.MobileAgent,
		"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1")
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 5 << 20
	}
	if cfg.Browser.UserAgent == "" {
		cfg.Browser.UserAgent = cfg.HTTP.UserAgent
	}

	setString(&cfg.Logging.Level, "info")
	setString(&cfg.Logging.Format, "json")
	setString(&cfg.Logging.Output, "stdout")

	setString(&cfg.Metrics.Address, ":8080")
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Cache.Enabled && cfg.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when cache is enabled")
	}
	for key, worker := range cfg.Workers {
		if worker.Timeout < 0 || worker.MaxJobsActive < 0 {
			return fmt.Errorf("workers.%s has negative limits", key)
		}
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
