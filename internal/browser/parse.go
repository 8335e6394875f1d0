package browser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nurlan6812/food-agent/internal/models"
)

const DefaultMaxReviews = 15

var (
	TagNames = []string{"맛", "가성비", "친절", "분위기", "주차", "청결", "양"}

	reviewKeywords = []string{
		"맛있", "좋", "추천", "또", "최고", "아쉬", "별로", "짜",
		"친절", "불친절", "웨이팅", "기다", "양이", "가성비",
		"재방문", "단골", "인정", "대박", "실망", "만족", "냄새",
	}

	uiChrome = []string{"더보기", "접기", "신고", "공유", "저장", "로그인", "바로가기"}
)

// FilterMenuLines keeps whitespace-normalised blocks that look like one menu entry.
func FilterMenuLines(blocks []string, max int) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, b := range blocks {
		text := strings.Join(strings.Fields(b), " ")
		n := utf8.RuneCountInString(text)
		if !strings.Contains(text, "원") || n <= 5 || n >= 80 || seen[text] || strings.Contains(text, "블로그") {
			continue
		}
		seen[text] = true
		lines = append(lines, text)
		if max > 0 && len(lines) >= max {
			break
		}
	}
	return lines
}

// ReviewTabIndex returns the index of the first "후기 N개" style control, or -1.
func ReviewTabIndex(texts []string) int {
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if strings.Contains(t, "후기") &&
			(strings.Contains(t, "개") || strings.Contains(t, "건")) &&
			utf8.RuneCountInString(t) < 30 {
			return i
		}
	}
	return -1
}

// SplitLines returns the non-empty trimmed lines of body.
func SplitLines(body string) []string {
	var lines []string
	for _, l := range strings.Split(body, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// ParseReviews reads rating, counts, tag votes and review lines from page lines.
func ParseReviews(lines []string, max int) models.ReviewSummary {
	if max <= 0 {
		max = DefaultMaxReviews
	}

	var summary models.ReviewSummary
	for i := 0; i+1 < len(lines); i++ {
		line, next := lines[i], lines[i+1]
		if line == "별점" {
			if v, err := strconv.ParseFloat(next, 64); err == nil {
				rating := v
				summary.Rating = &rating
			}
		}
		if strings.Contains(line, "후기") {
			if n, err := strconv.Atoi(strings.ReplaceAll(next, ",", "")); err == nil && n > summary.ReviewCount {
				summary.ReviewCount = n
			}
		}
	}

	tagIndex := make(map[string]int)
	for i := 0; i+1 < len(lines); i++ {
		line, next := lines[i], lines[i+1]
		if !isTag(line) || !strings.Contains(next, "명") {
			continue
		}
		n, err := strconv.Atoi(strings.NewReplacer("명", "", ",", "").Replace(next))
		if err != nil {
			continue
		}
		if idx, ok := tagIndex[line]; ok {
			summary.Tags[idx].Votes = n
			continue
		}
		tagIndex[line] = len(summary.Tags)
		summary.Tags = append(summary.Tags, models.TagVote{Tag: line, Votes: n})
	}

	seen := make(map[string]bool)
	for _, line := range lines {
		if len(summary.Reviews) >= max {
			break
		}
		n := utf8.RuneCountInString(line)
		if n <= 15 || n >= 300 || seen[line] {
			continue
		}
		if strings.HasPrefix(line, "http") || strings.Contains(firstRunes(line, 8), "원") {
			continue
		}
		if containsAny(line, uiChrome) || !containsAny(line, reviewKeywords) {
			continue
		}
		seen[line] = true
		summary.Reviews = append(summary.Reviews, line)
	}
	return summary
}

func isTag(s string) bool {
	for _, t := range TagNames {
		if s == t {
			return true
		}
	}
	return false
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
