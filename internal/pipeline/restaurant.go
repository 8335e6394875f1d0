package pipeline

import (
	"context"
	"fmt"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/merge"
	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	msgNoReviews          = "후기를 찾을 수 없습니다. 아직 등록된 후기가 없거나 크롤링에 실패했습니다."
	msgAutomationDisabled = "브라우저 자동화를 사용할 수 없어 후기를 가져올 수 없습니다."
	summaryRequest        = "[요약 요청] 위 후기들을 분석해서 장점, 단점, 추천 메뉴 등을 요약해주세요."
)

// SearchRestaurantInfo finds restaurants for a free-text query and attaches a menu.
func (p *Pipeline) SearchRestaurantInfo(ctx context.Context, query string) string {
	log := p.logger.With(map[string]interface{}{"tool": "search_restaurant_info", "query": query})

	places, searchErr := p.deps.Places.Search(ctx, query)
	if searchErr != nil {
		log.Warn("place search failed", map[string]interface{}{"error": searchErr.Error()})
	}

	var doc merge.Document
	pinned := merge.MapPlaces(places, p.opts.MaxPlaces)
	doc.Add(merge.NarratePlaces(pinned)...)
	if tag := merge.MapTag(pinned); tag != "" {
		doc.Prepend(tag)
	}

	// The menu belongs to the first place shown on the map.
	placeID := ""
	switch {
	case len(pinned) > 0:
		placeID = pinned[0].PlaceID
	case len(places) > 0:
		placeID = places[0].PlaceID
	}

	if menu := p.menu(ctx, placeID); menu != "" {
		doc.Add("[메뉴판]", menu)
	} else if snippets := p.menuSnippets(ctx, query); snippets != "" {
		if searchErr != nil {
			doc.Add(searchFailure(searchErr), "")
		}
		doc.Add("[메뉴 검색 결과]", snippets)
	}

	if doc.Len() == 0 {
		return fmt.Sprintf("'%s' 검색 결과 없음", query)
	}
	log.Info("restaurant info rendered", map[string]interface{}{"places": len(pinned), "placeId": placeID})
	return doc.String()
}

// menu tries the browser flow, then the static place page.
func (p *Pipeline) menu(ctx context.Context, placeID string) string {
	if placeID == "" {
		return ""
	}
	text, err := p.deps.Browser.Menu(ctx, placeID)
	if err != nil {
		p.logger.Warn("menu flow unavailable", map[string]interface{}{"placeId": placeID, "error": err.Error()})
	}
	if text != "" {
		return text
	}
	return merge.MenuItems(p.deps.Static.Menu(ctx, placeID))
}

func (p *Pipeline) menuSnippets(ctx context.Context, query string) string {
	result, err := p.deps.Searcher.SearchText(ctx, query)
	if err != nil {
		p.logger.Debug("menu snippet search failed", map[string]interface{}{"query": query, "error": err.Error()})
		return ""
	}
	return merge.Snippets(result, maxMenuSnippets)
}

// GetRestaurantReviews reads the visitor reviews of the best match for name.
func (p *Pipeline) GetRestaurantReviews(ctx context.Context, restaurantName string) string {
	log := p.logger.With(map[string]interface{}{"tool": "get_restaurant_reviews", "query": restaurantName})

	places, err := p.deps.Places.Search(ctx, restaurantName)
	if err != nil {
		log.Warn("place search failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("'%s' 식당 검색에 실패했습니다: %s", restaurantName, apperrors.MessageOf(err))
	}
	if len(places) == 0 {
		return fmt.Sprintf("'%s' 식당을 찾을 수 없습니다.", restaurantName)
	}
	place := places[0]
	if place.PlaceID == "" {
		return fmt.Sprintf("'%s' 후기 페이지를 찾을 수 없습니다.", restaurantName)
	}

	var doc merge.Document
	doc.Add(
		fmt.Sprintf("[%s 후기]", place.Name),
		"📍 주소: "+place.Address,
		"🔗 카카오맵: "+place.CanonicalURL,
		"",
	)

	summary, err := p.deps.Browser.Reviews(ctx, place.PlaceID, p.opts.MaxReviews)
	if err != nil {
		log.Warn("review flow failed", map[string]interface{}{"placeId": place.PlaceID, "error": err.Error()})
		doc.Add(reviewFailure(err))
		return doc.String()
	}

	text := merge.FormatReviews(summary)
	if text == "" {
		doc.Add(msgNoReviews)
		return doc.String()
	}
	doc.Add(reviewHeader(summary), text, "", summaryRequest)
	return doc.String()
}

func searchFailure(err error) string {
	return "[식당 검색 실패] " + apperrors.MessageOf(err)
}

func reviewHeader(s *models.ReviewSummary) string {
	if s.IsBlogFallback {
		return "📝 블로그 후기:"
	}
	return "📝 방문자 후기:"
}

func reviewFailure(err error) string {
	se, ok := apperrors.AsStandard(err)
	if !ok {
		return msgNoReviews
	}
	switch se.Code {
	case apperrors.ErrCodeReviewsUnavailable:
		return se.Message
	case apperrors.ErrCodeAutomationUnavailable:
		return msgAutomationDisabled
	default:
		return msgNoReviews
	}
}
