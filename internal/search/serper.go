package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nurlan6812/food-agent/internal/common/cache"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
	"github.com/nurlan6812/food-agent/internal/models"
)

const textSearchNamespace = "serper-search"

// Serper serves both the fallback lens endpoint and keyword search.
type Serper struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
	cache   cache.Cache
	logger  logger.Logger
}

func NewSerper(baseURL, apiKey string, client *httpclient.Client, c cache.Cache, log logger.Logger) *Serper {
	if c == nil {
		c = cache.Noop{}
	}
	return &Serper{baseURL: baseURL, apiKey: apiKey, client: client, cache: c, logger: log}
}

func (s *Serper) Name() string { return "serper" }

func (s *Serper) Configured() bool { return s.apiKey != "" }

type serperOrganic struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	Snippet      string `json:"snippet"`
	Source       string `json:"source"`
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type serperResponse struct {
	Organic        []serperOrganic `json:"organic"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	AnswerBox *models.AnswerBox `json:"answerBox"`
}

func (s *Serper) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewProviderRequestError(s.Name(), err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return s.client.Send(ctx, req)
}

// Lens runs the fallback lens search and maps organic hits to visual matches.
func (s *Serper) Lens(ctx context.Context, imageURL string) (result *models.VisualResult, err error) {
	if !s.Configured() {
		return nil, apperrors.NewNotConfiguredError(s.Name(), "SERPER_API_KEY가 설정되지 않았습니다.")
	}
	defer func(start time.Time) { metrics.ObserveProvider(s.Name(), start, err) }(time.Now())

	data, err := s.post(ctx, "/lens", map[string]string{"url": imageURL, "gl": "kr", "hl": "ko"})
	if err != nil {
		return nil, err
	}
	var resp serperResponse
	if err := httpclient.DecodeJSON(s.Name(), data, &resp); err != nil {
		return nil, err
	}

	result = &models.VisualResult{
		VisualMatches: make([]models.VisualMatch, 0, len(resp.Organic)),
		Providers:     []string{s.Name()},
	}
	if kg := resp.KnowledgeGraph; kg != nil && (kg.Title != "" || kg.Description != "") {
		result.KnowledgeGraph = &models.KnowledgeGraph{Title: kg.Title, Description: kg.Description}
	}
	for _, o := range resp.Organic {
		thumb := o.ThumbnailURL
		if thumb == "" {
			thumb = o.ImageURL
		}
		result.VisualMatches = append(result.VisualMatches, models.VisualMatch{
			Title:     o.Title,
			Snippet:   o.Snippet,
			Link:      o.Link,
			Source:    o.Source,
			Thumbnail: thumb,
		})
	}
	return result, nil
}

// Search runs a keyword search. Raw replies are cached per query.
func (s *Serper) Search(ctx context.Context, query string) (*models.TextResult, error) {
	if !s.Configured() {
		return nil, apperrors.NewNotConfiguredError(s.Name(), "SERPER_API_KEY가 설정되지 않았습니다.")
	}

	data, err := cache.Fetch(ctx, s.cache, s.logger, textSearchNamespace, query, func(ctx context.Context) (data []byte, err error) {
		defer func(start time.Time) { metrics.ObserveProvider(s.Name(), start, err) }(time.Now())
		return s.post(ctx, "/search", map[string]string{"q": query, "gl": "kr", "hl": "ko"})
	})
	if err != nil {
		return nil, err
	}

	var resp serperResponse
	if err := httpclient.DecodeJSON(s.Name(), data, &resp); err != nil {
		return nil, err
	}

	result := &models.TextResult{Organic: make([]models.OrganicResult, 0, len(resp.Organic))}
	for _, o := range resp.Organic {
		result.Organic = append(result.Organic, models.OrganicResult{Title: o.Title, Snippet: o.Snippet, Link: o.Link})
	}
	if ab := resp.AnswerBox; ab != nil && (ab.Answer != "" || ab.Snippet != "" || ab.Title != "") {
		result.AnswerBox = ab
	}
	return result, nil
}
