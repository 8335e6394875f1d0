package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nurlan6812/food-agent/internal/models"
)

func place(i int, coords bool) models.Place {
	return models.Place{
		PlaceID:      fmt.Sprint(1000 + i),
		Name:         fmt.Sprintf("식당%d", i),
		Address:      "서울 강남구 역삼동",
		RoadAddress:  fmt.Sprintf("서울 강남구 테헤란로 %d", i),
		Phone:        "02-000-0000",
		Category:     "음식점 > 한식 > 국밥",
		Latitude:     37.5,
		Longitude:    127.01,
		HasCoords:    coords,
		CanonicalURL: fmt.Sprintf("http://place.map.kakao.com/%d", 1000+i),
	}
}

func TestMapTag_Format(t *testing.T) {
	got := MapTag([]models.Place{place(1, true)})
	assert.Equal(t, "[MAP:37.5,127.01,식당1|서울 강남구 테헤란로 1|02-000-0000|국밥|http://place.map.kakao.com/1001]", got)
	assert.Equal(t, "", MapTag(nil))
}

func TestMapTag_Coordinates(t *testing.T) {
	tests := []struct {
		name string
		x, y string
		want string
	}{
		{name: "provider text kept", x: "127.0270", y: "37.4970", want: "[MAP:37.4970,127.0270,"},
		{name: "float fallback", want: "[MAP:37.5,127.01,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := place(1, true)
			p.X, p.Y = tt.x, tt.y
			assert.True(t, strings.HasPrefix(MapTag([]models.Place{p}), tt.want))
		})
	}
}

func TestMapTag_EscapesSeparators(t *testing.T) {
	p := place(1, true)
	p.Name = "A|B;C]"
	assert.Contains(t, MapTag([]models.Place{p}), ",A/B,C)|")
}

func TestMapTag_CountMatchesNarration(t *testing.T) {
	tests := []struct {
		name   string
		places []models.Place
		want   int
	}{
		{"none", nil, 0},
		{"one", []models.Place{place(1, true)}, 1},
		{"three", []models.Place{place(1, true), place(2, true), place(3, true)}, 3},
		{"truncated", []models.Place{place(1, true), place(2, true), place(3, true), place(4, true), place(5, true)}, 3},
		{"missing coords skipped", []models.Place{place(1, false), place(2, true), place(3, true), place(4, true)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinned := MapPlaces(tt.places, MaxMapPlaces)
			assert.Len(t, pinned, tt.want)

			tag := MapTag(pinned)
			records := 0
			if tag != "" {
				records = len(strings.Split(strings.TrimSuffix(strings.TrimPrefix(tag, "[MAP:"), "]"), ";"))
			}
			narrated := 0
			for _, line := range NarratePlaces(pinned) {
				if strings.HasPrefix(line, "[") {
					narrated++
				}
			}
			assert.Equal(t, tt.want, records)
			assert.Equal(t, records, narrated)
		})
	}
}

func TestNarratePlaces(t *testing.T) {
	p := place(1, true)
	p.RoadAddress = ""
	p.CanonicalURL = ""
	assert.Equal(t, []string{
		"[1] 식당1",
		"   주소: 서울 강남구 역삼동",
		"   전화: 02-000-0000",
		"   카테고리: 음식점 > 한식 > 국밥",
		"",
	}, NarratePlaces([]models.Place{p}))
}

func TestThumbnails(t *testing.T) {
	matches := []models.VisualMatch{
		{Thumbnail: "a"}, {}, {Thumbnail: "b"}, {Thumbnail: "c"}, {Thumbnail: "d"},
	}
	assert.Equal(t, []string{"a", "b", "c"}, Thumbnails(matches, MaxThumbnails))
	assert.Equal(t, "[IMAGE:a]", ImageTag("a"))
}

func TestSnippets(t *testing.T) {
	res := &models.TextResult{Organic: []models.OrganicResult{
		{Title: "a", Snippet: "1"},
		{Title: "b"},
		{Title: "c", Snippet: "3"},
	}}
	assert.Equal(t, "a: 1\nc: 3", Snippets(res, 5))
	assert.Equal(t, "a: 1", Snippets(res, 1))
	assert.Equal(t, "", Snippets(nil, 5))
}

func TestMenuItems(t *testing.T) {
	got := MenuItems([]models.MenuItem{{Name: "국밥", Price: "9,000원"}, {Name: "수육"}})
	assert.Equal(t, "국밥 9,000원\n수육", got)
}

func TestFormatReviews(t *testing.T) {
	r := 4.0
	s := &models.ReviewSummary{
		Rating:      &r,
		ReviewCount: 120,
		Tags:        []models.TagVote{{Tag: "친절", Votes: 10}, {Tag: "맛", Votes: 42}, {Tag: "양", Votes: 10}},
		Reviews:     []string{"국물이 진하고 맛있어요 또 올게요"},
	}
	want := strings.Join([]string{
		"⭐ 평점: 4.0점",
		"📝 후기: 120개",
		"",
		"[태그별 평가]",
		"  • 맛: 42명",
		"  • 친절: 10명",
		"  • 양: 10명",
		"",
		"[최근 후기 1개]",
		"  • 국물이 진하고 맛있어요 또 올게요",
	}, "\n")
	assert.Equal(t, want, FormatReviews(s))
	assert.Equal(t, "친절", s.Tags[0].Tag, "input order must not change")
}

func TestFormatReviews_Empty(t *testing.T) {
	zero := 0.0
	assert.Equal(t, "", FormatReviews(nil))
	assert.Equal(t, "", FormatReviews(&models.ReviewSummary{}))
	assert.Equal(t, "", FormatReviews(&models.ReviewSummary{Rating: &zero}))

	half := 4.5
	assert.Equal(t, "⭐ 평점: 4.5점", FormatReviews(&models.ReviewSummary{Rating: &half}))
}

func TestDocument(t *testing.T) {
	var d Document
	d.Add("b", "c").Prepend("a")
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, "a\nb\nc", d.String())
}
