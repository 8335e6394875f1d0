package place

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/models"
)

const keywordReply = `{
  "documents": [
    {"id": "12345", "place_name": "강남전집", "category_name": "음식점 > 한식 > 전,부침개",
     "phone": "02-123-4567", "address_name": "서울 강남구 역삼동 1", "road_address_name": "서울 강남구 테헤란로 1",
     "x": "127.0270", "y": "37.4979", "place_url": "http://place.map.kakao.com/12345"},
    {"id": "", "place_name": "좌표없음", "category_name": "음식점", "x": "", "y": "", "place_url": "http://place.map.kakao.com/"}
  ]
}`

func TestPlaceIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://place.map.kakao.com/123456", "123456"},
		{"https://place.map.kakao.com/m/987", "987"},
		{"http://place.map.kakao.com/", ""},
		{"http://place.map.kakao.com/abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceIDFromURL(tt.url))
		})
	}
}

func TestKakaoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KakaoAK kakao-key", r.Header.Get("Authorization"))
		assert.Equal(t, "강남전집", r.URL.Query().Get("query"))
		assert.Equal(t, "FD6", r.URL.Query().Get("category_group_code"))
		assert.Equal(t, "5", r.URL.Query().Get("size"))
		_, _ = io.WriteString(w, keywordReply)
	}))
	defer srv.Close()

	k := NewKakao(srv.URL, "kakao-key", 5, httpclient.NewClient("kakao", 2*time.Second), nil, logger.NewTestLogger(t))
	places, err := k.Search(context.Background(), "강남전집")
	require.NoError(t, err)
	require.Len(t, places, 2)

	p := places[0]
	assert.Equal(t, "12345", p.PlaceID)
	assert.Equal(t, "서울 강남구 테헤란로 1", p.DisplayAddress())
	assert.Equal(t, "전,부침개", p.ShortCategory())
	assert.True(t, p.HasCoords)
	assert.InDelta(t, 37.4979, p.Latitude, 1e-9)
	assert.InDelta(t, 127.027, p.Longitude, 1e-9)
	assert.Equal(t, "127.0270", p.X)
	assert.Equal(t, "37.4979", p.Y)

	assert.Empty(t, places[1].PlaceID)
	assert.False(t, places[1].HasCoords)
	assert.Empty(t, places[1].X)
	assert.Equal(t, "", places[1].DisplayAddress())
}

func TestKakaoSearch_NoKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	k := NewKakao(srv.URL, "", 5, httpclient.NewClient("kakao", time.Second), nil, logger.NewNoOpLogger())
	places, err := k.Search(context.Background(), "아무거나")
	assert.NoError(t, err)
	assert.Nil(t, places)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestKakaoSearch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	k := NewKakao(srv.URL, "bad", 5, httpclient.NewClient("kakao", time.Second), nil, logger.NewNoOpLogger())
	places, err := k.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Nil(t, places)
	assert.Equal(t, apperrors.KindBadResponse, apperrors.KindOf(err))
}

func TestFindMenuInJSON(t *testing.T) {
	// menuInfo is an object here, so the walk descends and finds no menu list.
	assert.Empty(t, FindMenuInJSON([]byte(`{
	  "basicInfo": {"placenamefull": "강남전집"},
	  "menuInfo": {"menucount": 2, "menuList": [
	    {"menu": "모둠전", "price": "25,000"},
	    {"menu": "막걸리", "price": "5,000"}
	  ]}
	}`)))

	assert.Equal(t, []models.MenuItem{
		{Name: "모둠전", Price: "25,000"},
		{Name: "막걸리", Price: "5000"},
	}, FindMenuInJSON([]byte(`{"data": {"place": {"menuInfo": [
	  {"menu": "모둠전", "price": "25,000"},
	  {"name": "메뉴", "price": "0"},
	  {"menuName": "막걸리", "menuPrice": 5000}
	]}}}`)))

	assert.Empty(t, FindMenuInJSON([]byte(`{"menu": [`)))
	assert.Empty(t, FindMenuInJSON([]byte(`{"menu": []} trailing`)))
}

func TestFindMenuInJSON_SiblingBranchesInDocumentOrder(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "alphabetical",
			doc:  `{"a": {"menu": [{"name": "모둠전"}]}, "b": {"menu": [{"name": "막걸리"}]}}`,
			want: "모둠전",
		},
		{
			name: "reverse alphabetical",
			doc:  `{"zeta": {"menu": [{"name": "막걸리"}]}, "alpha": {"menu": [{"name": "모둠전"}]}}`,
			want: "막걸리",
		},
		{
			name: "list before object",
			doc:  `{"tabs": [{"menuInfo": [{"menu": "물냉면"}]}], "main": {"menu": [{"name": "비빔냉면"}]}}`,
			want: "물냉면",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				items := FindMenuInJSON([]byte(tt.doc))
				require.Len(t, items, 1)
				assert.Equal(t, tt.want, items[0].Name)
			}
		})
	}
}

func TestFindMenuInJSON_DepthLimit(t *testing.T) {
	doc := `{"menu": [{"name": "깊은메뉴"}]}`
	for i := 0; i < 12; i++ {
		doc = `{"child": ` + doc + `}`
	}
	assert.Empty(t, FindMenuInJSON([]byte(doc)))

	shallow := `{"menu": [{"name": "모둠전"}]}`
	for i := 0; i < 3; i++ {
		shallow = `{"child": ` + shallow + `}`
	}
	assert.Len(t, FindMenuInJSON([]byte(shallow)), 1)
}

func TestScrapeMenuHTML(t *testing.T) {
	embedded := []byte(`<html><script>window.__DATA__ = {"menuInfo": [{"menu": "물냉면", "price": "12,000"}]}</script></html>`)
	assert.Equal(t, []models.MenuItem{{Name: "물냉면", Price: "12,000"}}, ScrapeMenuHTML(embedded))

	plain := []byte(`<html><body><ul>
	  <li>물냉면 12,000원</li><li>비빔냉면 13,000원</li><li>물냉면 12,000원</li>
	  <li>가격 1,000원</li>
	</ul><style>.x{}</style></body></html>`)
	assert.Equal(t, []models.MenuItem{
		{Name: "물냉면", Price: "12,000원"},
		{Name: "비빔냉면", Price: "13,000원"},
	}, ScrapeMenuHTML(plain))
}

func TestStaticMenu_FallsThroughEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/main/v/42", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/m/main/v/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"menu": [{"name": "순대국", "price": "9000"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewStaticMenu(srv.URL, httpclient.NewClient("kakao-place", 2*time.Second), "mobile", logger.NewNoOpLogger())
	assert.Equal(t, []models.MenuItem{{Name: "순대국", Price: "9000"}}, s.Menu(context.Background(), "42"))
	assert.Nil(t, s.Menu(context.Background(), ""))
}
