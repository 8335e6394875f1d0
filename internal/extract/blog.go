package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxBlogSentences = 10

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?。]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

var blogKeywords = []string{
	"주문", "시켰", "먹었", "메뉴", "맛있", "바삭", "쫄깃", "토핑", "소스", "가격", "원",
}

// FilterBlogText keeps the food-related sentences of a blog body.
func FilterBlogText(pageText string) string {
	var kept []string
	for _, s := range sentenceSplitRe.Split(pageText, -1) {
		s = strings.TrimSpace(s)
		n := utf8.RuneCountInString(s)
		if n <= 20 || n >= 200 || !containsAny(s, blogKeywords) {
			continue
		}
		kept = append(kept, s)
		if len(kept) == maxBlogSentences {
			break
		}
	}
	return strings.Join(kept, " ")
}

// CollapseWhitespace trims s and folds every whitespace run to one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
