package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nurlan6812/food-agent/internal/browser"
	"github.com/nurlan6812/food-agent/internal/common/cache"
	"github.com/nurlan6812/food-agent/internal/common/camunda"
	"github.com/nurlan6812/food-agent/internal/common/config"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/observability"
	"github.com/nurlan6812/food-agent/internal/common/validation"
	"github.com/nurlan6812/food-agent/internal/crawl"
	"github.com/nurlan6812/food-agent/internal/pipeline"
	"github.com/nurlan6812/food-agent/internal/place"
	"github.com/nurlan6812/food-agent/internal/search"
	"github.com/nurlan6812/food-agent/internal/upload"
	"github.com/nurlan6812/food-agent/pkg/registry"

	grr "github.com/nurlan6812/food-agent/internal/workers/food-agent/get-restaurant-reviews"
	gni "github.com/nurlan6812/food-agent/internal/workers/food-agent/get-nutrition-info"
	sfi "github.com/nurlan6812/food-agent/internal/workers/food-agent/search-food-by-image"
	sro "github.com/nurlan6812/food-agent/internal/workers/food-agent/search-recipe-online"
	sri "github.com/nurlan6812/food-agent/internal/workers/food-agent/search-restaurant-info"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("broker", cfg.Camunda.BrokerAddress))

	// --- Provider cache ---
	providerCache, redisClient := buildCache(cfg, zapLog)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- Registry & validation ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if errs := reg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			zapLog.Error("activity registry invalid", zap.Error(e))
		}
		zapLog.Fatal("activity registry has errors", zap.Int("count", len(errs)))
	}
	var validator *validation.Validator
	if cfg.Registry.Validate {
		validator = validation.NewValidator(reg)
	}

	tools := buildPipeline(cfg, providerCache, log)
	zapLog.Info("Pipeline clients initialized",
		zap.Bool("browser", cfg.Browser.Enabled),
		zap.Bool("cache", redisClient != nil),
	)

	// --- Register workers ---
	client := zeebe.GetClient()
	jobs := func(taskType string) *camunda.Jobs {
		return camunda.NewJobs(taskType, obs, zeebe, log.WithFields(map[string]interface{}{"taskType": taskType}))
	}

	imageHandler := sfi.NewHandler(sfi.LoadConfig(cfg.Workers[sfi.TaskType]), tools, validator, jobs(sfi.TaskType), log)
	startWorker(client, sfi.TaskType, cfg.Workers[sfi.TaskType], imageHandler.Handle, zapLog)

	restaurantHandler := sri.NewHandler(sri.LoadConfig(cfg.Workers[sri.TaskType]), tools, validator, jobs(sri.TaskType), log)
	startWorker(client, sri.TaskType, cfg.Workers[sri.TaskType], restaurantHandler.Handle, zapLog)

	reviewsHandler := grr.NewHandler(grr.LoadConfig(cfg.Workers[grr.TaskType]), tools, validator, jobs(grr.TaskType), log)
	startWorker(client, grr.TaskType, cfg.Workers[grr.TaskType], reviewsHandler.Handle, zapLog)

	recipeHandler := sro.NewHandler(sro.LoadConfig(cfg.Workers[sro.TaskType]), tools, validator, jobs(sro.TaskType), log)
	startWorker(client, sro.TaskType, cfg.Workers[sro.TaskType], recipeHandler.Handle, zapLog)

	nutritionHandler := gni.NewHandler(gni.LoadConfig(cfg.Workers[gni.TaskType]), tools, validator, jobs(gni.TaskType), log)
	startWorker(client, gni.TaskType, cfg.Workers[gni.TaskType], nutritionHandler.Handle, zapLog)

	zapLog.Info("All workers registered", zap.Int("count", len(config.TaskTypes)))

	// --- Health & Metrics Server ---
	mux := http.DefaultServeMux
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildCache returns the Redis-backed provider cache, or a no-op cache when
// caching is disabled or Redis cannot be reached.
func buildCache(cfg *config.Config, log *zap.Logger) (cache.Cache, *redis.Client) {
	if !cfg.Cache.Enabled {
		return cache.Noop{}, nil
	}

	client := cache.NewRedisClient(cfg.Cache.Redis)
	rc := cache.NewRedisCache(client, cfg.Cache.Prefix, config.GetDuration(cfg.Cache.TTL))
	err := retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return rc.Ping(ctx)
	}, 3, time.Second, log, "Redis connection")
	if err != nil {
		log.Warn("provider cache disabled", zap.Error(err))
		_ = client.Close()
		return cache.Noop{}, nil
	}

	log.Info("Redis connected successfully", zap.String("address", cfg.Cache.Redis.Address))
	return rc, client
}

// buildPipeline constructs every provider client once and hands them to the pipeline.
func buildPipeline(cfg *config.Config, c cache.Cache, log logger.Logger) *pipeline.Pipeline {
	httpOpts := []httpclient.Option{
		httpclient.WithUserAgent(cfg.HTTP.UserAgent),
		httpclient.WithSizeCap(cfg.HTTP.MaxBodyBytes),
	}
	newClient := func(provider string, timeoutMs int) *httpclient.Client {
		timeout := config.GetDuration(timeoutMs)
		if timeout <= 0 {
			timeout = config.GetDuration(cfg.HTTP.Timeout)
		}
		return httpclient.NewClient(provider, timeout, httpOpts...)
	}

	uploader := upload.NewCascade(upload.NewExifNormalizer(), []upload.Backend{
		upload.NewLitterbox(cfg.Upload.Litterbox.URL, cfg.Upload.Litterbox.Expiry, newClient("litterbox", cfg.Upload.Litterbox.Timeout)),
		upload.NewImgBB(cfg.Upload.ImgBB.URL, cfg.Upload.ImgBB.APIKey, cfg.Upload.ImgBB.Expiry, newClient("imgbb", cfg.Upload.ImgBB.Timeout)),
		upload.NewFreeImage(cfg.Upload.FreeImage.URL, cfg.Upload.FreeImage.APIKey, newClient("freeimage", cfg.Upload.FreeImage.Timeout)),
	}, log)

	serper := search.NewSerper(cfg.Providers.Serper.BaseURL, cfg.Providers.Serper.APIKey,
		newClient("serper", cfg.Providers.Serper.Timeout), c, log)
	searcher := search.NewOrchestrator(
		search.NewSerpAPI(cfg.Providers.SerpAPI.BaseURL, cfg.Providers.SerpAPI.APIKey, newClient("serpapi", cfg.Providers.SerpAPI.Timeout)),
		serper,
		serper,
		cfg.Search.MergeSecondary,
		log,
	)

	kakaoClient := newClient("kakao", cfg.Providers.Kakao.Timeout)
	places := place.NewKakao(cfg.Providers.Kakao.BaseURL, cfg.Providers.Kakao.APIKey, cfg.Providers.Kakao.PageSize, kakaoClient, c, log)
	static := place.NewStaticMenu(cfg.Providers.Kakao.PlaceBaseURL, kakaoClient, cfg.HTTP.MobileAgent, log)
	acquirer := browser.NewAcquirer(browser.NewChromeLauncher(cfg.Browser), cfg.Browser, cfg.Providers.Kakao.PlaceBaseURL, log)

	crawler := crawl.NewCrawler(newClient("crawler", cfg.HTTP.Timeout), cfg.HTTP.MobileAgent, log)

	return pipeline.New(pipeline.Deps{
		Uploader: uploader,
		Searcher: searcher,
		Places:   places,
		Static:   static,
		Browser:  acquirer,
		Crawler:  crawler,
	}, pipeline.OptionsFromConfig(cfg), log)
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
