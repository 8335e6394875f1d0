package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FoodKeywords anchor restaurant names in result titles.
var FoodKeywords = []string{
	"순대", "국밥", "우동", "교자", "떡볶이", "치킨", "피자",
	"칼국수", "냉면", "설렁탕", "곰탕", "삼겹살", "갈비",
}

var (
	keywordRes   = buildKeywordRes()
	branchOnlyRe = regexp.MustCompile(`^(본점|직영점|.+점)$`)
	bracketRe    = regexp.MustCompile(`\]\s*([가-힣a-zA-Z0-9]{3,15})`)
	branchRe     = regexp.MustCompile(`([가-힣]{2,10})\s*(?:본점|직영점|[가-힣]+점)`)
	particleRe   = regexp.MustCompile(`[을를이가의에서]$`)
)

var nameStopwords = map[string]bool{
	"맛집": true, "후기": true, "리뷰": true, "방문": true, "추천": true, "웨이팅": true,
	"우리집": true, "시청역": true, "서울": true, "부산": true, "대전": true, "인천": true,
	"삼성동": true, "강남역": true, "메뉴": true, "가격": true, "생방송": true, "오늘": true,
	"저녁": true, "명가": true, "유명": true, "바삭하니": true, "맛있겠다": true,
	"본점": true, "직영점": true, "시청직영점": true,
}

func buildKeywordRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(FoodKeywords))
	for i, kw := range FoodKeywords {
		res[i] = regexp.MustCompile(`([가-힣]{2,10}` + regexp.QuoteMeta(kw) + `[가-힣]{0,5})`)
	}
	return res
}

// nameCandidates returns every raw candidate in discovery order.
func nameCandidates(titles []string) []string {
	var out []string
	for _, title := range titles {
		for _, re := range keywordRes {
			for _, m := range re.FindAllStringSubmatch(title, -1) {
				if !branchOnlyRe.MatchString(m[1]) {
					out = append(out, m[1])
				}
			}
		}
		for _, m := range bracketRe.FindAllStringSubmatch(title, -1) {
			out = append(out, m[1])
		}
		for _, m := range branchRe.FindAllStringSubmatch(title, -1) {
			out = append(out, m[1])
		}
	}
	return out
}

type tally struct {
	name  string
	count int
}

// rankCandidates counts candidates; ties keep first-appearance order.
func rankCandidates(candidates []string) []tally {
	index := make(map[string]int)
	var ranked []tally
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) < 3 || nameStopwords[c] {
			continue
		}
		if i, ok := index[c]; ok {
			ranked[i].count++
			continue
		}
		index[c] = len(ranked)
		ranked = append(ranked, tally{name: c, count: 1})
	}

	// insertion sort keeps equal counts in discovery order
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].count > ranked[j-1].count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

func containsFoodKeyword(s string) bool {
	for _, kw := range FoodKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// ExtractRestaurantName votes for the most plausible restaurant name across titles.
// It returns nil when no candidate survives filtering.
func ExtractRestaurantName(titles []string) *string {
	ranked := rankCandidates(nameCandidates(titles))
	if len(ranked) == 0 {
		return nil
	}

	chosen := ""
	for i := 0; i < len(ranked) && i < 10; i++ {
		if ranked[i].count >= 2 {
			chosen = ranked[i].name
			break
		}
	}
	if chosen == "" {
		for i := 0; i < len(ranked) && i < 5; i++ {
			if containsFoodKeyword(ranked[i].name) {
				chosen = ranked[i].name
				break
			}
		}
	}
	if chosen == "" {
		chosen = ranked[0].name
	}

	name := particleRe.ReplaceAllString(chosen, "")
	return &name
}
