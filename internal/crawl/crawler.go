package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/extract"
)

const (
	maxIngredients    = 20
	maxSteps          = 15
	maxStepRunes      = 200
	maxAISummaryRunes = 300
	maxRecipeReviews  = 5
	maxReviewRunes    = 150
	maxArticleRunes   = 3500
	maxNutritionRunes = 2000
)

// Crawler fetches blog, recipe and nutrition pages.
type Crawler struct {
	client      *httpclient.Client
	mobileAgent string
	logger      logger.Logger
}

func NewCrawler(client *httpclient.Client, mobileAgent string, log logger.Logger) *Crawler {
	return &Crawler{client: client, mobileAgent: mobileAgent, logger: log.With(map[string]interface{}{"component": "crawl"})}
}

func (c *Crawler) fetch(ctx context.Context, url, userAgent string) (*goquery.Document, error) {
	page, err := c.client.FetchPage(ctx, url, userAgent)
	if err != nil {
		return nil, err
	}
	return Parse(page)
}

// BlogExcerpt returns the food-related sentences of a blog post, or "".
func (c *Crawler) BlogExcerpt(ctx context.Context, url string) string {
	doc, err := c.fetch(ctx, MobileBlogURL(url), c.mobileAgent)
	if err != nil {
		c.logger.Debug("blog fetch failed", map[string]interface{}{"url": url, "error": err.Error()})
		return ""
	}
	text := extract.CollapseWhitespace(JoinedText(doc.Selection, " ", false))
	return extract.FilterBlogText(text)
}

// Recipe renders one recipe page. It always returns text, including on failure.
func (c *Crawler) Recipe(ctx context.Context, url string) string {
	target := url
	if strings.Contains(url, "blog.naver.com") {
		target = MobileBlogURL(url)
	}

	doc, err := c.fetch(ctx, target, "")
	if err != nil {
		c.logger.Warn("recipe fetch failed", map[string]interface{}{"url": url, "error": err.Error()})
		if se, ok := apperrors.AsStandard(err); ok && se.Code == apperrors.ErrCodeProviderBadStatus {
			return fmt.Sprintf("페이지 로드 실패: %s", url)
		}
		return fmt.Sprintf("크롤링 실패: %s\nURL: %s", apperrors.MessageOf(err), url)
	}

	if strings.Contains(url, "10000recipe.com") {
		return renderTenThousandRecipe(doc, url)
	}

	var content *goquery.Selection
	if strings.Contains(url, "blog.naver.com") {
		content = doc.Find(".se-main-container, #postViewArea, .post-view").First()
	} else {
		content = doc.Find("article, .post-content, .entry-content, main, .content").First()
		if content.Length() == 0 {
			content = doc.Find("body")
		}
	}
	if content.Length() == 0 {
		return fmt.Sprintf("레시피 내용을 추출하지 못했습니다.\nURL: %s", url)
	}

	body := extract.Truncate(Lines(content), maxArticleRunes)
	return fmt.Sprintf("[레시피]\n출처: %s\n\n%s", target, body)
}

func renderTenThousandRecipe(doc *goquery.Document, url string) string {
	var out []string

	if title := doc.Find(".view2_summary h3, .view2_summary_tit").First(); title.Length() > 0 {
		out = append(out, fmt.Sprintf("[%s]", StrippedText(title)))
	}
	out = append(out, "출처: "+url)

	if desc := doc.Find(".view2_summary_in").First(); desc.Length() > 0 {
		out = append(out, "\n"+StrippedText(desc))
	}

	var info []string
	doc.Find(".view2_summary_info span").Each(func(_ int, s *goquery.Selection) {
		info = append(info, StrippedText(s))
	})
	if len(info) > 0 {
		out = append(out, fmt.Sprintf("(%s)", strings.Join(info, " | ")))
	}

	var ingredients []string
	doc.Find(".ready_ingre3 li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(strings.ReplaceAll(StrippedText(s), "구매", "")); t != "" {
			ingredients = append(ingredients, t)
		}
	})
	if len(ingredients) > 0 {
		out = append(out, "\n[재료]")
		for _, ing := range head(ingredients, maxIngredients) {
			out = append(out, "  - "+ing)
		}
	}

	var steps []string
	doc.Find(".view_step_cont").Each(func(_ int, s *goquery.Selection) {
		if t := StrippedText(s); t != "" {
			steps = append(steps, t)
		}
	})
	if len(steps) > 0 {
		out = append(out, "\n[조리 순서]")
		for i, step := range head(steps, maxSteps) {
			if short := extract.Truncate(step, maxStepRunes); short != step {
				step = short + "..."
			}
			out = append(out, fmt.Sprintf("  %d. %s", i+1, step))
		}
	}

	ratio := doc.Find(".reply_ai_t2").First()
	summary := doc.Find(".reply_ai_sum").First()
	if ratio.Length() > 0 || summary.Length() > 0 {
		out = append(out, "\n[AI 리뷰 요약]")
		if ratio.Length() > 0 {
			out = append(out, "  "+StrippedText(ratio))
		}
		if summary.Length() > 0 {
			out = append(out, "  "+extract.Truncate(StrippedText(summary), maxAISummaryRunes))
		}
	}

	replies := doc.Find(".reply_list")
	if replies.Length() > maxRecipeReviews {
		replies = replies.Slice(0, maxRecipeReviews)
	}
	if replies.Length() > 0 {
		out = append(out, "\n[후기]")
		replies.Each(func(_ int, s *goquery.Selection) {
			if t := extract.Truncate(StrippedText(s), maxReviewRunes); t != "" {
				out = append(out, "  - "+t)
			}
		})
	}

	return strings.Join(out, "\n")
}

// Nutrition returns the body text of a nutrition page, or "" when it cannot be read.
func (c *Crawler) Nutrition(ctx context.Context, url string) string {
	doc, err := c.fetch(ctx, MobileBlogURL(url), "")
	if err != nil {
		c.logger.Debug("nutrition fetch failed", map[string]interface{}{"url": url, "error": err.Error()})
		return ""
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}
	return extract.Truncate(Lines(body), maxNutritionRunes)
}

func head(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
