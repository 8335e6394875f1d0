package place

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/extract"
	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	maxJSONDepth    = 10
	maxScrapedItems = 10
)

var (
	embeddedMenuPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)"menuInfo"\s*:\s*(\[[^\]]*\])`),
		regexp.MustCompile(`(?s)"menu"\s*:\s*(\[[^\]]*\])`),
	}
	htmlMenuPattern = regexp.MustCompile(`([가-힣]{2,15})\s*([\d,]+)\s*원`)
)

// StaticMenu reads menu items from the place page without a browser.
type StaticMenu struct {
	baseURL     string
	client      *httpclient.Client
	mobileAgent string
	logger      logger.Logger
}

func NewStaticMenu(baseURL string, client *httpclient.Client, mobileAgent string, log logger.Logger) *StaticMenu {
	return &StaticMenu{baseURL: strings.TrimRight(baseURL, "/"), client: client, mobileAgent: mobileAgent, logger: log}
}

// Menu tries the JSON endpoints, then the embedded JSON of the HTML page, then
// price-anchored text of the same page. It returns nil when nothing matched.
func (s *StaticMenu) Menu(ctx context.Context, placeID string) []models.MenuItem {
	if placeID == "" {
		return nil
	}

	for _, endpoint := range []string{
		fmt.Sprintf("%s/main/v/%s", s.baseURL, placeID),
		fmt.Sprintf("%s/m/main/v/%s", s.baseURL, placeID),
	} {
		page, err := s.client.FetchPage(ctx, endpoint, s.mobileAgent)
		if err != nil {
			s.logger.Debug("place json endpoint failed", map[string]interface{}{"endpoint": endpoint, "error": err.Error()})
			continue
		}
		if items := FindMenuInJSON(page.Body); len(items) > 0 {
			return items
		}
	}

	page, err := s.client.FetchPage(ctx, fmt.Sprintf("%s/%s", s.baseURL, placeID), "")
	if err != nil {
		s.logger.Debug("place page fetch failed", map[string]interface{}{"placeId": placeID, "error": err.Error()})
		return nil
	}
	return ScrapeMenuHTML(page.Body)
}

// FindMenuInJSON walks a JSON document for a "menuInfo" or "menu" list. Keys
// are visited in document order, so the first matching branch always wins.
func FindMenuInJSON(data []byte) []models.MenuItem {
	doc, err := decodeOrdered(data)
	if err != nil {
		return nil
	}
	return findMenu(doc, 0)
}

func findMenu(node interface{}, depth int) []models.MenuItem {
	if depth > maxJSONDepth {
		return nil
	}

	switch v := node.(type) {
	case *jsonObject:
		if list, ok := v.values["menuInfo"].([]interface{}); ok {
			return menuItems(list, "menu", "name", "menuName")
		}
		if list, ok := v.values["menu"].([]interface{}); ok {
			return menuItems(list, "name", "menu")
		}
		for _, k := range v.keys {
			if items := findMenu(v.values[k], depth+1); len(items) > 0 {
				return items
			}
		}
	case []interface{}:
		for _, child := range v {
			if items := findMenu(child, depth+1); len(items) > 0 {
				return items
			}
		}
	}
	return nil
}

// jsonObject is a decoded JSON object that remembers its key order.
type jsonObject struct {
	keys   []string
	values map[string]interface{}
}

// decodeOrdered decodes like json.Unmarshal into an interface{}, except that
// objects become *jsonObject.
func decodeOrdered(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid character after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &jsonObject{values: make(map[string]interface{})}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []interface{}{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", rune(delim))
}

func menuItems(list []interface{}, nameKeys ...string) []models.MenuItem {
	var items []models.MenuItem
	for _, raw := range list {
		obj, ok := raw.(*jsonObject)
		if !ok {
			continue
		}
		name := firstString(obj, nameKeys...)
		if name == "" || extract.IsGenericWord(name) {
			continue
		}
		items = append(items, models.MenuItem{Name: name, Price: firstString(obj, "price", "menuPrice")})
	}
	return items
}

func firstString(obj *jsonObject, keys ...string) string {
	for _, k := range keys {
		switch v := obj.values[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// ScrapeMenuHTML extracts menu items from a place page body.
func ScrapeMenuHTML(body []byte) []models.MenuItem {
	for _, p := range embeddedMenuPatterns {
		m := p.FindSubmatch(body)
		if m == nil {
			continue
		}
		v, err := decodeOrdered(m[1])
		if err != nil {
			continue
		}
		list, _ := v.([]interface{})
		if items := menuItems(list, "menu", "name"); len(items) > 0 {
			return items
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	doc.Find("script,noscript,style").Remove()
	text := extract.CollapseWhitespace(doc.Text())

	var items []models.MenuItem
	seen := make(map[string]bool)
	for _, m := range htmlMenuPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seen[name] || extract.IsGenericWord(name) {
			continue
		}
		seen[name] = true
		items = append(items, models.MenuItem{Name: name, Price: m[2] + "원"})
		if len(items) >= maxScrapedItems {
			break
		}
	}
	return items
}
