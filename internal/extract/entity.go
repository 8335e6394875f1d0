package extract

import (
	"strings"

	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	maxRelatedResults = 10
	maxImageTexts     = 5
	maxKeywords       = 5
)

// BuildEntity assembles a fresh ExtractedEntity from one visual search.
func BuildEntity(result *models.VisualResult) *models.ExtractedEntity {
	entity := &models.ExtractedEntity{RelatedResults: []models.VisualMatch{}}
	if result == nil {
		return entity
	}

	if kg := result.KnowledgeGraph; kg != nil {
		if kg.Title != "" {
			title := kg.Title
			entity.Identified = &title
		}
		if kg.Description != "" {
			desc := kg.Description
			entity.Description = &desc
		}
	}

	entity.RelatedResults = append(entity.RelatedResults, head(result.VisualMatches, maxRelatedResults)...)
	entity.TextInImage = headStrings(result.TextResults, maxImageTexts)
	entity.Keywords = headStrings(result.RelatedSearches, maxKeywords)

	for _, m := range result.VisualMatches {
		if m.Title != "" {
			entity.RawTitles = append(entity.RawTitles, m.Title)
		}
	}

	corpus := make([]string, 0, len(entity.RawTitles)+len(entity.TextInImage)+len(entity.Keywords))
	corpus = append(corpus, entity.RawTitles...)
	corpus = append(corpus, entity.TextInImage...)
	corpus = append(corpus, entity.Keywords...)
	entity.Price = ExtractPrices(strings.Join(corpus, " "))

	return entity
}

func head(in []models.VisualMatch, n int) []models.VisualMatch {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func headStrings(in []string, n int) []string {
	if len(in) > n {
		in = in[:n]
	}
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
