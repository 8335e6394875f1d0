// Package search talks to the lens and keyword search providers.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
	"github.com/nurlan6812/food-agent/internal/models"
)

// LensProvider is a reverse image search backend.
type LensProvider interface {
	Name() string
	Configured() bool
	Lens(ctx context.Context, imageURL string) (*models.VisualResult, error)
}

// SerpAPI is the primary lens provider (engine=google_lens).
type SerpAPI struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

func NewSerpAPI(baseURL, apiKey string, client *httpclient.Client) *SerpAPI {
	return &SerpAPI{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Configured() bool { return s.apiKey != "" }

type serpAPILensResponse struct {
	VisualMatches []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Source    string `json:"source"`
		Snippet   string `json:"snippet"`
		Thumbnail string `json:"thumbnail"`
	} `json:"visual_matches"`
	TextResults []struct {
		Text string `json:"text"`
	} `json:"text_results"`
	RelatedSearches []struct {
		Query string `json:"query"`
	} `json:"related_searches"`
	KnowledgeGraph json.RawMessage `json:"knowledge_graph"`
	Error          string          `json:"error"`
}

func (s *SerpAPI) Lens(ctx context.Context, imageURL string) (result *models.VisualResult, err error) {
	if !s.Configured() {
		return nil, apperrors.NewNotConfiguredError(s.Name(), "SERPAPI_KEY가 설정되지 않았습니다.")
	}
	defer func(start time.Time) { metrics.ObserveProvider(s.Name(), start, err) }(time.Now())

	q := url.Values{}
	q.Set("engine", "google_lens")
	q.Set("url", imageURL)
	q.Set("api_key", s.apiKey)
	q.Set("hl", "ko")
	q.Set("country", "kr")

	req, err := http.NewRequest(http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewProviderRequestError(s.Name(), err)
	}

	var resp serpAPILensResponse
	if err := s.client.SendJSON(ctx, req, &resp); err != nil {
		return nil, err
	}

	result = &models.VisualResult{
		KnowledgeGraph: decodeKnowledgeGraph(resp.KnowledgeGraph),
		VisualMatches:  make([]models.VisualMatch, 0, len(resp.VisualMatches)),
		Providers:      []string{s.Name()},
	}
	for _, m := range resp.VisualMatches {
		result.VisualMatches = append(result.VisualMatches, models.VisualMatch{
			Title:     m.Title,
			Snippet:   m.Snippet,
			Link:      m.Link,
			Source:    m.Source,
			Thumbnail: m.Thumbnail,
		})
	}
	for _, t := range resp.TextResults {
		if t.Text != "" {
			result.TextResults = append(result.TextResults, t.Text)
		}
	}
	for _, r := range resp.RelatedSearches {
		if r.Query != "" {
			result.RelatedSearches = append(result.RelatedSearches, r.Query)
		}
	}
	return result, nil
}

// decodeKnowledgeGraph accepts both an object and a list of objects.
func decodeKnowledgeGraph(raw json.RawMessage) *models.KnowledgeGraph {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var kg models.KnowledgeGraph
	if raw[0] == '[' {
		var list []models.KnowledgeGraph
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil
		}
		kg = list[0]
	} else if err := json.Unmarshal(raw, &kg); err != nil {
		return nil
	}

	if kg.Title == "" && kg.Description == "" {
		return nil
	}
	return &kg
}
