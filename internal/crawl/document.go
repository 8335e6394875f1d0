// Package crawl fetches public pages and reduces them to plain text.
package crawl

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
)

// Parse decodes page to UTF-8 and drops script, noscript and style elements.
func Parse(page *httpclient.Page) (*goquery.Document, error) {
	data := page.Body
	enc, _, _ := charset.DetermineEncoding(data, page.ContentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, err
		}
		decoded = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, err
	}
	doc.Find("script,noscript,style").Remove()
	return doc, nil
}

// JoinedText returns the text nodes under sel joined by sep. With trim set
// every node is trimmed and empty nodes are skipped.
func JoinedText(sel *goquery.Selection, sep string, trim bool) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := n.Data
			if trim {
				t = strings.TrimSpace(t)
			}
			if t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// StrippedText concatenates the trimmed text nodes of sel.
func StrippedText(sel *goquery.Selection) string {
	return JoinedText(sel, "", true)
}

// Lines returns the non-empty trimmed lines of sel, newline-joined.
func Lines(sel *goquery.Selection) string {
	var lines []string
	for _, l := range strings.Split(JoinedText(sel, "\n", false), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// MobileBlogURL rewrites a desktop Naver blog URL to its mobile host.
func MobileBlogURL(u string) string {
	if strings.Contains(u, "blog.naver.com") && !strings.Contains(u, "m.blog") {
		return strings.Replace(u, "blog.naver.com", "m.blog.naver.com", 1)
	}
	return u
}

// IsBlogLink reports whether u points at a blog host whose body is worth mining.
func IsBlogLink(u string) bool {
	return strings.Contains(u, "blog.naver.com") || strings.Contains(u, "tistory.com")
}
