// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Providers ProvidersConfig         `mapstructure:"providers"`
	Upload    UploadConfig            `mapstructure:"upload"`
	Browser   BrowserConfig           `mapstructure:"browser"`
	Search    SearchConfig            `mapstructure:"search"`
	Pipeline  PipelineConfig          `mapstructure:"pipeline"`
	Cache     CacheConfig             `mapstructure:"cache"`
	HTTP      HTTPConfig              `mapstructure:"http"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Provider Configuration ---

// ProvidersConfig holds credentials and endpoints of the search and map APIs.
type ProvidersConfig struct {
	SerpAPI ProviderConfig `mapstructure:"serpapi"`
	Serper  ProviderConfig `mapstructure:"serper"`
	Kakao   KakaoConfig    `mapstructure:"kakao"`
}

type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type KakaoConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	PlaceBaseURL string `mapstructure:"place_base_url"`
	APIKey       string `mapstructure:"api_key"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	PageSize     int    `mapstructure:"page_size"`
}

// UploadConfig holds the image hosting backends, tried in order.
type UploadConfig struct {
	Litterbox UploadBackendConfig `mapstructure:"litterbox"`
	ImgBB     UploadBackendConfig `mapstructure:"imgbb"`
	FreeImage UploadBackendConfig `mapstructure:"freeimage"`
}

type UploadBackendConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	Expiry  string `mapstructure:"expiry"`
}

// BrowserConfig controls the headless browser used for menu and review pages.
type BrowserConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ExecPath          string `mapstructure:"exec_path"`
	ShowWindow        bool   `mapstructure:"show_window"`
	UserAgent         string `mapstructure:"user_agent"`
	NavigationTimeout int    `mapstructure:"navigation_timeout"` // milliseconds
	FlowTimeout       int    `mapstructure:"flow_timeout"`       // milliseconds
	SettleDelay       int    `mapstructure:"settle_delay"`       // milliseconds
	ScrollPause       int    `mapstructure:"scroll_pause"`       // milliseconds
	ScrollRounds      int    `mapstructure:"scroll_rounds"`
	MaxMenuLines      int    `mapstructure:"max_menu_lines"`
	MaxReviews        int    `mapstructure:"max_reviews"`
}

// SearchConfig controls the visual search cascade.
type SearchConfig struct {
	MergeSecondary bool `mapstructure:"merge_secondary"`
}

// PipelineConfig controls optional steps of the tools.
type PipelineConfig struct {
	ImagePlaceLookup bool `mapstructure:"image_place_lookup"`
	MaxBlogs         int  `mapstructure:"max_blogs"`
	BlogExcerptRunes int  `mapstructure:"blog_excerpt_runes"`
	MaxPlaces        int  `mapstructure:"max_places"`
}

// CacheConfig enables the Redis cache of provider payloads.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // milliseconds
	Prefix  string      `mapstructure:"prefix"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPConfig holds shared outbound HTTP settings.
type HTTPConfig struct {
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	UserAgent    string `mapstructure:"user_agent"`
	MobileAgent  string `mapstructure:"mobile_user_agent"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// RegistryConfig points at the activity registry used for input validation.
type RegistryConfig struct {
	Path     string `mapstructure:"path"`
	Validate bool   `mapstructure:"validate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics server settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
