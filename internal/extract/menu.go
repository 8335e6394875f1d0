package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxMenuCandidates = 10

var menuPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([가-힣a-zA-Z\s]{2,20})\s*[\d,]+원`),
	regexp.MustCompile(`([가-힣]{2,15})(?:라는|라고 하는)\s*(?:음식|메뉴)`),
	regexp.MustCompile(`([가-힣]{2,15})(?:를|을)\s*(?:주문|시켰|먹었)`),
	regexp.MustCompile(`주문[:\s]*([가-힣]{2,15})`),
}

// genericWords never name a dish.
var genericWords = map[string]bool{
	"맛있는": true, "정말": true, "진짜": true, "오늘": true,
	"여기": true, "이번": true, "다음": true,
	"메뉴": true, "가격": true, "영업": true, "정보": true,
}

// IsGenericWord reports whether w is on the generic-word list.
func IsGenericWord(w string) bool {
	return genericWords[w]
}

// ExtractMenuCandidates mines likely dish names from page text, at most 10.
func ExtractMenuCandidates(pageText string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, re := range menuPatterns {
		for _, m := range re.FindAllStringSubmatch(pageText, -1) {
			name := strings.TrimSpace(m[1])
			if utf8.RuneCountInString(name) < 2 || genericWords[name] || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
			if len(out) == maxMenuCandidates {
				return out
			}
		}
	}
	return out
}
