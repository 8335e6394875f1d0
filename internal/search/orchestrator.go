package search

import (
	"context"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	msgNoSearchKey     = "API 키가 설정되지 않았습니다. SERPAPI_KEY 또는 SERPER_API_KEY를 .env에 추가해주세요."
	msgNoVisualResults = "이미지 검색 결과를 찾지 못했습니다."
)

// TextSearcher runs keyword searches.
type TextSearcher interface {
	Search(ctx context.Context, query string) (*models.TextResult, error)
}

// Orchestrator runs the lens cascade and forwards text searches.
type Orchestrator struct {
	primary        LensProvider
	secondary      LensProvider
	text           TextSearcher
	mergeSecondary bool
	logger         logger.Logger
}

func NewOrchestrator(primary, secondary LensProvider, text TextSearcher, mergeSecondary bool, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		primary:        primary,
		secondary:      secondary,
		text:           text,
		mergeSecondary: mergeSecondary,
		logger:         log.With(map[string]interface{}{"component": "search"}),
	}
}

// SearchImage tries the primary lens provider, then the secondary one.
// With mergeSecondary the secondary also runs after a primary success and both are merged.
func (o *Orchestrator) SearchImage(ctx context.Context, imageURL string) (*models.VisualResult, error) {
	var (
		successes []*models.VisualResult
		errs      []error
	)

	// An unconfigured primary is skipped silently; the secondary's missing
	// credential is what gets reported.
	attempt := func(p LensProvider, last bool) bool {
		if p == nil {
			return false
		}
		if !p.Configured() && !last {
			return false
		}
		res, err := p.Lens(ctx, imageURL)
		switch {
		case err != nil:
			if apperrors.KindOf(err) != apperrors.KindConfig {
				o.logger.Warn("lens search failed", map[string]interface{}{
					"provider": p.Name(),
					"error":    err.Error(),
				})
			}
			errs = append(errs, err)
			return false
		case len(res.VisualMatches) == 0:
			o.logger.Debug("lens search returned no matches", map[string]interface{}{"provider": p.Name()})
			errs = append(errs, apperrors.NewNoResultsError(msgNoVisualResults))
			return false
		}
		successes = append(successes, res)
		return true
	}

	if !attempt(o.primary, o.secondary == nil) || o.mergeSecondary {
		attempt(o.secondary, true)
	}

	if len(successes) == 0 {
		return nil, pickError(errs)
	}
	return Merge(successes...), nil
}

// SearchText forwards to the keyword search provider.
func (o *Orchestrator) SearchText(ctx context.Context, query string) (*models.TextResult, error) {
	return o.text.Search(ctx, query)
}

// Merge combines provider results in order. The knowledge graph comes from the
// first result that has one; lists are concatenated without dedup.
func Merge(results ...*models.VisualResult) *models.VisualResult {
	merged := &models.VisualResult{VisualMatches: []models.VisualMatch{}}
	for _, r := range results {
		if r == nil {
			continue
		}
		if merged.KnowledgeGraph == nil && r.KnowledgeGraph != nil {
			merged.KnowledgeGraph = r.KnowledgeGraph
		}
		merged.VisualMatches = append(merged.VisualMatches, r.VisualMatches...)
		merged.TextResults = append(merged.TextResults, r.TextResults...)
		merged.RelatedSearches = append(merged.RelatedSearches, r.RelatedSearches...)
		merged.Providers = append(merged.Providers, r.Providers...)
	}
	return merged
}

// pickError returns the most specific failure: a missing credential beats a
// provider failure, which beats an empty reply.
func pickError(errs []error) error {
	rank := func(err error) int {
		switch apperrors.KindOf(err) {
		case apperrors.KindConfig:
			return 3
		case apperrors.KindTimeout, apperrors.KindBadResponse:
			return 2
		case apperrors.KindNotFound:
			return 1
		}
		return 0
	}

	var best error
	for _, err := range errs {
		if best == nil || rank(err) > rank(best) {
			best = err
		}
	}
	if best == nil {
		return apperrors.NewNotConfiguredError("search", msgNoSearchKey)
	}
	if apperrors.KindOf(best) == apperrors.KindConfig {
		return apperrors.NewNotConfiguredError("search", msgNoSearchKey)
	}
	return best
}
