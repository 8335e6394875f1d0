// Package pipeline wires the upload, search, extraction, place and acquisition
// components into the five text-returning tools.
//
// Every tool returns a string in every case. Provider failures are logged and
// rendered as user-facing text, never returned as errors.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nurlan6812/food-agent/internal/common/config"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	defaultMaxBlogs         = 3
	defaultBlogExcerptRunes = 1000
	defaultMaxPlaces        = 3
	defaultMaxReviews       = 15
	maxCrawledPages         = 3
	maxResultLines          = 10
	maxSnippetRunes         = 100
	maxImageTexts           = 5
	maxMenuSnippets         = 5
)

type Uploader interface {
	Resolve(ctx context.Context, source string) (string, error)
}

type Searcher interface {
	SearchImage(ctx context.Context, imageURL string) (*models.VisualResult, error)
	SearchText(ctx context.Context, query string) (*models.TextResult, error)
}

type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]models.Place, error)
}

type MenuScraper interface {
	Menu(ctx context.Context, placeID string) []models.MenuItem
}

// Browser runs the interactive place-page flows.
type Browser interface {
	Menu(ctx context.Context, placeID string) (string, error)
	Reviews(ctx context.Context, placeID string, max int) (*models.ReviewSummary, error)
}

type Crawler interface {
	BlogExcerpt(ctx context.Context, url string) string
	Recipe(ctx context.Context, url string) string
	Nutrition(ctx context.Context, url string) string
}

// Deps are the long-lived clients shared by every tool call.
type Deps struct {
	Uploader Uploader
	Searcher Searcher
	Places   PlaceSearcher
	Static   MenuScraper
	Browser  Browser
	Crawler  Crawler
}

// Options tune the optional steps. Zero values fall back to defaults.
type Options struct {
	ImagePlaceLookup bool
	MaxBlogs         int
	BlogExcerptRunes int
	MaxPlaces        int
	MaxReviews       int
}

// OptionsFromConfig reads the pipeline and browser sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ImagePlaceLookup: cfg.Pipeline.ImagePlaceLookup,
		MaxBlogs:         cfg.Pipeline.MaxBlogs,
		BlogExcerptRunes: cfg.Pipeline.BlogExcerptRunes,
		MaxPlaces:        cfg.Pipeline.MaxPlaces,
		MaxReviews:       cfg.Browser.MaxReviews,
	}
}

type Pipeline struct {
	deps   Deps
	opts   Options
	logger logger.Logger
}

func New(deps Deps, opts Options, log logger.Logger) *Pipeline {
	if opts.MaxBlogs <= 0 {
		opts.MaxBlogs = defaultMaxBlogs
	}
	if opts.BlogExcerptRunes <= 0 {
		opts.BlogExcerptRunes = defaultBlogExcerptRunes
	}
	if opts.MaxPlaces <= 0 {
		opts.MaxPlaces = defaultMaxPlaces
	}
	if opts.MaxReviews <= 0 {
		opts.MaxReviews = defaultMaxReviews
	}
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

// crawlAll runs fn over urls with bounded parallelism and keeps the input order.
func crawlAll(ctx context.Context, urls []string, fn func(context.Context, string) string) []string {
	out := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCrawledPages)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			out[i] = fn(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
