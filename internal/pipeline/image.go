package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/crawl"
	"github.com/nurlan6812/food-agent/internal/extract"
	"github.com/nurlan6812/food-agent/internal/merge"
	"github.com/nurlan6812/food-agent/internal/models"
	"github.com/nurlan6812/food-agent/internal/upload"
)

const (
	msgNoImage      = "[이미지 없음] 이 도구는 새 이미지가 있을 때만 사용하세요. 이전 대화에서 파악한 정보를 활용해주세요."
	msgInvalidImage = "[이미지 없음] 유효한 이미지 경로가 아닙니다. 이전 대화에서 파악한 정보를 활용해주세요."
	msgMissingImage = "[이미지 없음] 파일을 찾을 수 없습니다: %s. 이전 대화에서 파악한 정보를 활용해주세요."
)

var judgementRequest = []string{
	"\n[판단 요청]",
	"1. 원본 이미지를 기반으로 검색 결과 제목, 블로그 본문을 참고하세요.",
	"2. 음식 이름만 물어보면: '~로 보입니다' + 식당이 보이면 '혹시 OO에서 드셨나요?'",
	"3. 식당/메뉴명까지 물어보면: 가능성 있는 식당 2~3곳을 후보로 나열하세요.",
	"4. 하나로 단정짓지 말고 '~일 수도 있고, ~일 수도 있습니다' 형태로 답변하세요.",
}

// checkImageSource returns the guard message for an unusable source, or "".
func checkImageSource(source string) string {
	if source == "" {
		return msgNoImage
	}
	if upload.IsRemote(source) {
		return ""
	}
	if !strings.HasPrefix(source, "/") {
		return msgInvalidImage
	}
	if _, err := os.Stat(source); err != nil {
		return fmt.Sprintf(msgMissingImage, source)
	}
	return ""
}

// SearchFoodByImage identifies the food in an image URL or absolute local path.
func (p *Pipeline) SearchFoodByImage(ctx context.Context, imageSource string) string {
	source := strings.TrimSpace(imageSource)
	if msg := checkImageSource(source); msg != "" {
		return msg
	}
	log := p.logger.With(map[string]interface{}{"tool": "search_food_by_image", "source": source})

	imageURL, err := p.deps.Uploader.Resolve(ctx, source)
	if err != nil {
		log.Warn("image upload failed", map[string]interface{}{"error": err.Error()})
		if se, ok := apperrors.AsStandard(err); ok && se.Code == apperrors.ErrCodeImageNotFound {
			return fmt.Sprintf(msgMissingImage, source)
		}
		return fmt.Sprintf("이미지를 업로드할 수 없습니다: %s", source)
	}

	visual, err := p.deps.Searcher.SearchImage(ctx, imageURL)
	if err != nil {
		log.Warn("visual search failed", map[string]interface{}{"error": err.Error(), "kind": string(apperrors.KindOf(err))})
		return "검색 실패: " + apperrors.MessageOf(err)
	}

	var doc merge.Document
	top := visual.VisualMatches
	if len(top) > maxResultLines {
		top = top[:maxResultLines]
	}

	var blogLinks []string
	if len(top) > 0 {
		doc.Add("[검색 결과]")
		for i, m := range top {
			if m.Title != "" {
				line := fmt.Sprintf("%d. %s", i+1, m.Title)
				if m.Snippet != "" {
					line += " - " + extract.Truncate(m.Snippet, maxSnippetRunes)
				}
				doc.Add(line)
			}
			if m.Link != "" && crawl.IsBlogLink(m.Link) {
				blogLinks = append(blogLinks, m.Link)
			}
		}
	}

	if thumbs := merge.Thumbnails(top, merge.MaxThumbnails); len(thumbs) > 0 {
		doc.Add("\n[검색 결과 이미지]")
		for _, u := range thumbs {
			doc.Add(merge.ImageTag(u))
		}
	}

	var excerpts []string
	if len(blogLinks) > 0 {
		if len(blogLinks) > p.opts.MaxBlogs {
			blogLinks = blogLinks[:p.opts.MaxBlogs]
		}
		doc.Add("\n[블로그 본문 (메뉴 판단 참고용)]")
		for i, text := range crawlAll(ctx, blogLinks, p.deps.Crawler.BlogExcerpt) {
			if text == "" {
				continue
			}
			excerpts = append(excerpts, text)
			doc.Add(fmt.Sprintf("\n--- 블로그 %d ---", i+1), extract.Truncate(text, p.opts.BlogExcerptRunes))
		}
	}

	var texts []string
	for _, t := range visual.TextResults {
		if len(texts) == maxImageTexts {
			break
		}
		if t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) > 0 {
		doc.Add("\n[이미지 텍스트] " + strings.Join(texts, ", "))
	}

	entity := extract.BuildEntity(visual)
	restaurant := extract.ExtractRestaurantName(entity.RawTitles)
	doc.Add(p.summarize(entity, restaurant, excerpts)...)
	if restaurant != nil && p.opts.ImagePlaceLookup {
		doc.Add(p.lookupPlaces(ctx, *restaurant)...)
	}

	doc.Add(judgementRequest...)
	log.Info("image search rendered", map[string]interface{}{
		"providers": visual.Providers,
		"matches":   len(visual.VisualMatches),
		"blogs":     len(excerpts),
	})
	return doc.String()
}

// summarize renders the extraction candidates, or nothing when there are none.
func (p *Pipeline) summarize(entity *models.ExtractedEntity, restaurant *string, excerpts []string) []string {
	var lines []string
	if entity.Identified != nil {
		lines = append(lines, "- 인식된 이름: "+*entity.Identified)
	}
	if entity.Price != nil {
		lines = append(lines, "- 가격 후보: "+*entity.Price)
	}
	if restaurant != nil {
		lines = append(lines, "- 식당 후보: "+*restaurant)
	}
	if menus := extract.ExtractMenuCandidates(strings.Join(excerpts, " ")); len(menus) > 0 {
		lines = append(lines, "- 메뉴 후보: "+strings.Join(menus, ", "))
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{"\n[추출 정보]"}, lines...)
}

// lookupPlaces resolves the restaurant candidate on the map provider.
func (p *Pipeline) lookupPlaces(ctx context.Context, name string) []string {
	places, err := p.deps.Places.Search(ctx, name)
	if err != nil {
		p.logger.Warn("place lookup failed", map[string]interface{}{"query": name, "error": err.Error()})
		return nil
	}
	pinned := merge.MapPlaces(places, p.opts.MaxPlaces)
	if len(pinned) == 0 {
		return nil
	}
	lines := []string{"\n[식당 후보 위치]", merge.MapTag(pinned)}
	return append(lines, merge.NarratePlaces(pinned)...)
}
