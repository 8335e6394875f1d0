// Package place resolves restaurant queries to map places.
package place

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/nurlan6812/food-agent/internal/common/cache"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	providerName   = "kakao"
	foodCategory   = "FD6"
	placeNamespace = "kakao-place"
)

var placeIDPattern = regexp.MustCompile(`/(\d+)$`)

// PlaceIDFromURL returns the trailing digit run of a place URL, or "".
func PlaceIDFromURL(placeURL string) string {
	m := placeIDPattern.FindStringSubmatch(placeURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// Kakao is the keyword geo search client.
type Kakao struct {
	baseURL  string
	apiKey   string
	pageSize int
	client   *httpclient.Client
	cache    cache.Cache
	logger   logger.Logger
}

func NewKakao(baseURL, apiKey string, pageSize int, client *httpclient.Client, c cache.Cache, log logger.Logger) *Kakao {
	if pageSize <= 0 {
		pageSize = 5
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &Kakao{baseURL: baseURL, apiKey: apiKey, pageSize: pageSize, client: client, cache: c, logger: log}
}

func (k *Kakao) Configured() bool { return k.apiKey != "" }

type keywordResponse struct {
	Documents []struct {
		ID              string `json:"id"`
		PlaceName       string `json:"place_name"`
		CategoryName    string `json:"category_name"`
		Phone           string `json:"phone"`
		AddressName     string `json:"address_name"`
		RoadAddressName string `json:"road_address_name"`
		X               string `json:"x"`
		Y               string `json:"y"`
		PlaceURL        string `json:"place_url"`
	} `json:"documents"`
}

// Search returns up to pageSize food places for query in provider rank order.
// Without an API key it returns (nil, nil).
func (k *Kakao) Search(ctx context.Context, query string) ([]models.Place, error) {
	if !k.Configured() {
		return nil, nil
	}

	data, err := cache.Fetch(ctx, k.cache, k.logger, placeNamespace, query, func(ctx context.Context) (data []byte, err error) {
		defer func(start time.Time) { metrics.ObserveProvider(providerName, start, err) }(time.Now())

		q := url.Values{}
		q.Set("query", query)
		q.Set("category_group_code", foodCategory)
		q.Set("size", strconv.Itoa(k.pageSize))

		req, err := http.NewRequest(http.MethodGet, k.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, apperrors.NewProviderRequestError(providerName, err)
		}
		req.Header.Set("Authorization", "KakaoAK "+k.apiKey)
		return k.client.Send(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	var resp keywordResponse
	if err := httpclient.DecodeJSON(providerName, data, &resp); err != nil {
		return nil, err
	}

	places := make([]models.Place, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		p := models.Place{
			PlaceID:      PlaceIDFromURL(d.PlaceURL),
			Name:         d.PlaceName,
			Address:      d.AddressName,
			RoadAddress:  d.RoadAddressName,
			Phone:        d.Phone,
			Category:     d.CategoryName,
			CanonicalURL: d.PlaceURL,
		}
		lng, errX := strconv.ParseFloat(d.X, 64)
		lat, errY := strconv.ParseFloat(d.Y, 64)
		if errX == nil && errY == nil {
			p.Longitude, p.Latitude, p.HasCoords = lng, lat, true
			p.X, p.Y = d.X, d.Y
		}
		places = append(places, p)
	}

	k.logger.Debug("place search", map[string]interface{}{"query": query, "results": len(places)})
	return places, nil
}
