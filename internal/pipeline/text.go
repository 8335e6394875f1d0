package pipeline

import (
	"context"
	"fmt"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/merge"
	"github.com/nurlan6812/food-agent/internal/models"
)

// textSearch runs query and returns either the top links or the message to show instead.
func (p *Pipeline) textSearch(ctx context.Context, tool, query string) ([]models.OrganicResult, string) {
	result, err := p.deps.Searcher.SearchText(ctx, query)
	if err != nil {
		p.logger.Warn("text search failed", map[string]interface{}{"tool": tool, "query": query, "error": err.Error()})
		return nil, "검색 실패: " + apperrors.MessageOf(err)
	}
	if result == nil || len(result.Organic) == 0 {
		return nil, fmt.Sprintf("'%s' 검색 결과가 없습니다.", query)
	}
	top := result.Organic
	if len(top) > maxCrawledPages {
		top = top[:maxCrawledPages]
	}
	return top, ""
}

func links(results []models.OrganicResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Link
	}
	return out
}

// SearchRecipeOnline crawls the top recipe pages for query.
func (p *Pipeline) SearchRecipeOnline(ctx context.Context, query string) string {
	top, msg := p.textSearch(ctx, "search_recipe_online", query)
	if msg != "" {
		return msg
	}

	var doc merge.Document
	doc.Add(fmt.Sprintf("[검색: %s]", query))
	for i, recipe := range crawlAll(ctx, links(top), p.deps.Crawler.Recipe) {
		doc.Add(fmt.Sprintf("\n=== 레시피 %d ===\n%s", i+1, recipe))
	}
	return doc.String()
}

// GetNutritionInfo crawls the top nutrition pages for query.
func (p *Pipeline) GetNutritionInfo(ctx context.Context, query string) string {
	top, msg := p.textSearch(ctx, "get_nutrition_info", query)
	if msg != "" {
		return msg
	}

	var doc merge.Document
	doc.Add(fmt.Sprintf("[검색: %s]", query))
	for i, content := range crawlAll(ctx, links(top), p.deps.Crawler.Nutrition) {
		if content == "" {
			continue
		}
		doc.Add(fmt.Sprintf("\n=== %s ===", top[i].Title), "출처: "+top[i].Link, content)
	}
	return doc.String()
}
