// Package merge renders pipeline results into the tagged text consumed downstream.
//
// Two machine-readable tags are embedded in otherwise free text:
//
//	[IMAGE:<url>]                                             one per line
//	[MAP:<lat>,<lng>,<name>|<address>|<phone>|<category>|<url>;...]  one line
package merge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	MaxThumbnails = 3
	MaxMapPlaces  = 3
)

// Document accumulates output lines.
type Document struct {
	lines []string
}

func (d *Document) Add(lines ...string) *Document {
	d.lines = append(d.lines, lines...)
	return d
}

// Prepend inserts lines before everything written so far.
func (d *Document) Prepend(lines ...string) *Document {
	d.lines = append(append([]string{}, lines...), d.lines...)
	return d
}

func (d *Document) Len() int { return len(d.lines) }

func (d *Document) String() string { return strings.Join(d.lines, "\n") }

// ImageTag renders one thumbnail tag.
func ImageTag(url string) string {
	return fmt.Sprintf("[IMAGE:%s]", url)
}

// Thumbnails returns up to max non-empty thumbnails from matches, in rank order.
func Thumbnails(matches []models.VisualMatch, max int) []string {
	var out []string
	for _, m := range matches {
		if len(out) == max {
			break
		}
		if m.Thumbnail != "" {
			out = append(out, m.Thumbnail)
		}
	}
	return out
}

// MapPlaces keeps the places that can be pinned and truncates to max.
// The returned slice is the single source for both the MAP tag and the narration.
func MapPlaces(places []models.Place, max int) []models.Place {
	out := make([]models.Place, 0, max)
	for _, p := range places {
		if len(out) == max {
			break
		}
		if p.HasCoords {
			out = append(out, p)
		}
	}
	return out
}

// MapTag renders the map tag for places, or "" when there is nothing to pin.
func MapTag(places []models.Place) string {
	if len(places) == 0 {
		return ""
	}
	records := make([]string, 0, len(places))
	for _, p := range places {
		info := strings.Join([]string{
			tagField(p.Name),
			tagField(p.DisplayAddress()),
			tagField(p.Phone),
			tagField(p.ShortCategory()),
			tagField(p.CanonicalURL),
		}, "|")
		records = append(records, fmt.Sprintf("%s,%s,%s", coord(p.Y, p.Latitude), coord(p.X, p.Longitude), info))
	}
	return fmt.Sprintf("[MAP:%s]", strings.Join(records, ";"))
}

// tagField keeps the record separators out of free-text fields.
func tagField(s string) string {
	return strings.NewReplacer("|", "/", ";", ",", "]", ")").Replace(s)
}

// coord prefers the provider's text so trailing zeros survive.
func coord(raw string, f float64) string {
	if raw != "" {
		return raw
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NarratePlaces renders the human-readable block for places.
func NarratePlaces(places []models.Place) []string {
	var out []string
	for i, p := range places {
		out = append(out,
			fmt.Sprintf("[%d] %s", i+1, p.Name),
			"   주소: "+p.DisplayAddress(),
			"   전화: "+p.Phone,
			"   카테고리: "+p.Category,
		)
		if p.CanonicalURL != "" {
			out = append(out, "   🗺️ 지도: "+p.CanonicalURL)
		}
		out = append(out, "")
	}
	return out
}

// MenuItems renders statically scraped menu entries.
func MenuItems(items []models.MenuItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if it.Price == "" {
			lines = append(lines, it.Name)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", it.Name, it.Price))
	}
	return strings.Join(lines, "\n")
}

// Snippets renders text search hits as "title: snippet", first max with a snippet.
func Snippets(result *models.TextResult, max int) string {
	if result == nil {
		return ""
	}
	var lines []string
	for _, r := range result.Organic {
		if len(lines) == max {
			break
		}
		if r.Snippet == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", r.Title, r.Snippet))
	}
	return strings.Join(lines, "\n")
}

// FormatReviews renders a review summary, or "" when it holds nothing.
func FormatReviews(s *models.ReviewSummary) string {
	if s == nil || s.Empty() {
		return ""
	}

	var out []string
	if s.Rating != nil && *s.Rating > 0 {
		out = append(out, fmt.Sprintf("⭐ 평점: %s점", rating(*s.Rating)))
	}
	if s.ReviewCount > 0 {
		out = append(out, fmt.Sprintf("📝 후기: %d개", s.ReviewCount))
	}

	if len(s.Tags) > 0 {
		tags := append([]models.TagVote(nil), s.Tags...)
		sort.SliceStable(tags, func(i, j int) bool { return tags[i].Votes > tags[j].Votes })
		out = append(out, "", "[태그별 평가]")
		for _, t := range tags {
			out = append(out, fmt.Sprintf("  • %s: %d명", t.Tag, t.Votes))
		}
	}

	if len(s.Reviews) > 0 {
		out = append(out, "", fmt.Sprintf("[최근 후기 %d개]", len(s.Reviews)))
		for _, r := range s.Reviews {
			out = append(out, "  • "+r)
		}
	}

	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n")
}

// rating keeps one decimal for whole values (4 -> "4.0").
func rating(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
