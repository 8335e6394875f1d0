package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlan6812/food-agent/internal/common/config"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/models"
)

type fakePage struct {
	mu         sync.Mutex
	navigated  []string
	clicked    []string
	clickable  map[string]bool
	texts      []string
	blocks     []string
	body       string
	scrolls    int
	failOn     string
	blockUntil <-chan struct{}
}

func (p *fakePage) fail(op string) error {
	if p.failOn == op {
		return fmt.Errorf("%s: target closed", op)
	}
	return nil
}

func (p *fakePage) Navigate(url string, _ time.Duration) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.mu.Unlock()
	if p.blockUntil != nil {
		<-p.blockUntil
	}
	return p.fail("navigate")
}

func (p *fakePage) Click(selector string) (bool, error) {
	if err := p.fail("click"); err != nil {
		return false, err
	}
	if !p.clickable[selector] {
		return false, nil
	}
	p.clicked = append(p.clicked, selector)
	return true, nil
}

func (p *fakePage) ClickNth(selector string, index int) error {
	p.clicked = append(p.clicked, fmt.Sprintf("%s#%d", selector, index))
	return p.fail("clicknth")
}

func (p *fakePage) Texts(string) ([]string, error) { return p.texts, p.fail("texts") }

func (p *fakePage) PriceBlocks() ([]string, error) { return p.blocks, p.fail("blocks") }

func (p *fakePage) ScrollToBottom() error {
	p.scrolls++
	return p.fail("scroll")
}

func (p *fakePage) BodyText() (string, error) { return p.body, p.fail("body") }

type fakeLauncher struct {
	page        *fakePage
	unavailable bool
	opened      int32
	closed      int32
	inFlight    int32
	maxInFlight int32
}

func (l *fakeLauncher) Available() error {
	if l.unavailable {
		return apperrors.NewAutomationUnavailableError("no chrome")
	}
	return nil
}

func (l *fakeLauncher) Open(context.Context) (Page, func(), error) {
	atomic.AddInt32(&l.opened, 1)
	n := atomic.AddInt32(&l.inFlight, 1)
	for {
		max := atomic.LoadInt32(&l.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&l.maxInFlight, max, n) {
			break
		}
	}
	return l.page, func() {
		atomic.AddInt32(&l.inFlight, -1)
		atomic.AddInt32(&l.closed, 1)
	}, nil
}

func testConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Enabled:           true,
		NavigationTimeout: time.Second,
		FlowTimeout:       2 * time.Second,
		ScrollRounds:      5,
		MaxMenuLines:      60,
		MaxReviews:        15,
	}
}

func newTestAcquirer(t *testing.T, l Launcher, cfg config.BrowserConfig) *Acquirer {
	a := NewAcquirer(l, cfg, "https://place.map.kakao.com/", logger.NewTestLogger(t))
	a.sleep = func(context.Context, time.Duration) error { return nil }
	return a
}

func TestFilterMenuLines(t *testing.T) {
	blocks := []string{
		"김치찌개\n 8,000원",
		"김치찌개 8,000원",
		"블로그 리뷰 3,000원",
		"원",
		"메뉴 없음",
		strings.Repeat("가", 80) + "원",
		"된장찌개 7,000원",
	}
	assert.Equal(t, []string{"김치찌개 8,000원", "된장찌개 7,000원"}, FilterMenuLines(blocks, 60))
}

func TestFilterMenuLines_Cap(t *testing.T) {
	var blocks []string
	for i := 0; i < 100; i++ {
		blocks = append(blocks, fmt.Sprintf("메뉴%03d 1,000원", i))
	}
	lines := FilterMenuLines(blocks, 60)
	assert.Len(t, lines, 60)

	seen := map[string]bool{}
	for _, l := range lines {
		assert.Contains(t, l, "원")
		assert.NotContains(t, l, "블로그")
		assert.False(t, seen[l])
		seen[l] = true
	}
}

func TestReviewTabIndex(t *testing.T) {
	assert.Equal(t, 2, ReviewTabIndex([]string{"홈", "메뉴", " 후기 128개 ", "후기 128개"}))
	assert.Equal(t, 0, ReviewTabIndex([]string{"후기 3건"}))
	assert.Equal(t, -1, ReviewTabIndex([]string{"후기", "블로그 12개", strings.Repeat("후기 1개 ", 6)}))
}

func TestParseReviews_Rating(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  *float64
	}{
		{name: "label then value", lines: []string{"강남전집", "별점", "4.5", "후기", "128"}, want: floatPtr(4.5)},
		{name: "no label", lines: []string{"강남전집", "4.5", "후기"}, want: nil},
		{name: "label without number", lines: []string{"별점", "없음"}, want: nil},
		{name: "label last", lines: []string{"별점"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReviews(tt.lines, 15).Rating)
		})
	}
}

func TestParseReviews(t *testing.T) {
	lines := SplitLines(`
		별점
		4.2
		후기
		1,204
		블로그 후기
		87
		맛
		245명
		가성비
		137명
		주차
		없음
		친절
		1,002명
		맛
		250명
		https://blog.example.com/pages/맛있는집-리뷰-추천합니다
		12,000원 짜장면 세트가 정말 맛있어요 추천
		음식이 정말 맛있고 사장님도 친절하세요 재방문 의사 있어요
		음식이 정말 맛있고 사장님도 친절하세요 재방문 의사 있어요
		리뷰 더보기 버튼을 누르면 맛있는 후기가 나옵니다
		웨이팅이 길었지만 기다린 보람이 있었습니다 최고
		짧지만 좋아요
		오늘 날씨가 흐려서 기분이 가라앉는 하루였다고 합니다
	`)

	s := ParseReviews(lines, 15)
	require.NotNil(t, s.Rating)
	assert.Equal(t, 4.2, *s.Rating)
	assert.Equal(t, 1204, s.ReviewCount)
	assert.Equal(t, []string{"맛", "가성비", "친절"}, tagNames(s))
	assert.Equal(t, 250, s.Tags[0].Votes)
	assert.Equal(t, 1002, s.Tags[2].Votes)
	assert.Equal(t, []string{
		"음식이 정말 맛있고 사장님도 친절하세요 재방문 의사 있어요",
		"웨이팅이 길었지만 기다린 보람이 있었습니다 최고",
	}, s.Reviews)
}

func TestParseReviews_Cap(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("%02d번째 방문인데 여전히 맛있어요 추천합니다", i))
	}
	assert.Len(t, ParseReviews(lines, 0).Reviews, DefaultMaxReviews)
	assert.Len(t, ParseReviews(lines, 3).Reviews, 3)
}

func TestAcquirer_Menu(t *testing.T) {
	page := &fakePage{
		clickable: map[string]bool{menuTabSelector: true},
		blocks:    []string{"모둠전 25,000원", "모둠전 25,000원", "막걸리 5,000원"},
	}
	l := &fakeLauncher{page: page}

	menu, err := newTestAcquirer(t, l, testConfig()).Menu(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "모둠전 25,000원\n막걸리 5,000원", menu)
	assert.Equal(t, []string{"https://place.map.kakao.com/12345"}, page.navigated)
	assert.Equal(t, []string{menuTabSelector}, page.clicked)
	assert.Equal(t, 5, page.scrolls)
	assert.Equal(t, int32(1), l.closed)
}

func TestAcquirer_MenuWithoutTab(t *testing.T) {
	page := &fakePage{blocks: []string{"순대국 9,000원"}}
	menu, err := newTestAcquirer(t, &fakeLauncher{page: page}, testConfig()).Menu(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "순대국 9,000원", menu)
	assert.Empty(t, page.clicked)
}

func TestAcquirer_Unavailable(t *testing.T) {
	l := &fakeLauncher{page: &fakePage{}, unavailable: true}
	a := newTestAcquirer(t, l, testConfig())

	_, err := a.Menu(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAutomationUnavailable, apperrors.KindOf(err))

	_, err = a.Reviews(context.Background(), "1", 15)
	require.Error(t, err)
	assert.Equal(t, int32(0), l.opened)
}

func TestAcquirer_FlowErrorIsContained(t *testing.T) {
	l := &fakeLauncher{page: &fakePage{failOn: "blocks"}}
	_, err := newTestAcquirer(t, l, testConfig()).Menu(context.Background(), "1")
	require.Error(t, err)
	se, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeAutomationFailed, se.Code)
	assert.Equal(t, int32(1), l.closed)
}

func TestAcquirer_FlowTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	cfg := testConfig()
	cfg.FlowTimeout = 50 * time.Millisecond
	l := &fakeLauncher{page: &fakePage{blockUntil: release}}

	start := time.Now()
	_, err := newTestAcquirer(t, l, cfg).Menu(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquirer_Reviews(t *testing.T) {
	page := &fakePage{
		texts: []string{"홈", "메뉴", "후기 58개"},
		body:  "별점\n4.7\n후기\n58\n맛\n40명\n국물이 진하고 정말 맛있어요 또 올게요",
	}
	summary, err := newTestAcquirer(t, &fakeLauncher{page: page}, testConfig()).Reviews(context.Background(), "9", 0)
	require.NoError(t, err)
	assert.Equal(t, 4.7, *summary.Rating)
	assert.Equal(t, 58, summary.ReviewCount)
	assert.False(t, summary.IsBlogFallback)
	assert.Equal(t, []string{clickableSelector + "#2"}, page.clicked)
	assert.Len(t, summary.Reviews, 1)
}

func TestAcquirer_ReviewsBlogFallback(t *testing.T) {
	page := &fakePage{
		texts:     []string{"홈", "메뉴"},
		clickable: map[string]bool{blogTabSelector: true},
		body:      "블로그\n동네 단골집인데 가성비가 좋아서 자주 가요",
	}
	summary, err := newTestAcquirer(t, &fakeLauncher{page: page}, testConfig()).Reviews(context.Background(), "9", 15)
	require.NoError(t, err)
	assert.True(t, summary.IsBlogFallback)
	assert.Nil(t, summary.Rating)
	assert.Equal(t, []string{"동네 단골집인데 가성비가 좋아서 자주 가요"}, summary.Reviews)
}

func TestAcquirer_ReviewsUnavailable(t *testing.T) {
	page := &fakePage{texts: []string{"홈", "메뉴"}}
	_, err := newTestAcquirer(t, &fakeLauncher{page: page}, testConfig()).Reviews(context.Background(), "9", 15)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, "매장주 요청으로 후기가 제공되지 않는 장소입니다.", apperrors.MessageOf(err))
	assert.Equal(t, 0, page.scrolls)
}

func TestAcquirer_OneSessionAtATime(t *testing.T) {
	l := &fakeLauncher{page: &fakePage{blocks: []string{"순대국 9,000원"}}}
	a := newTestAcquirer(t, l, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Menu(context.Background(), "1")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), atomic.LoadInt32(&l.opened))
	assert.Equal(t, int32(1), atomic.LoadInt32(&l.maxInFlight))
}

func tagNames(s models.ReviewSummary) []string {
	var out []string
	for _, t := range s.Tags {
		out = append(out, t.Tag)
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }
