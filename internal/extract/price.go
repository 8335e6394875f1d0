// Package extract mines candidate facts from already-fetched text. Nothing here performs I/O.
package extract

import (
	"regexp"
	"strings"
)

const maxPrices = 3

var priceRe = regexp.MustCompile(`(\d{1,3}[,.]?\d{3})\s*원`)

// ExtractPriceList returns the distinct price tokens of text in first-seen order, at most 3.
func ExtractPriceList(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range priceRe.FindAllStringSubmatch(text, -1) {
		p := m[1] + "원"
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) == maxPrices {
			break
		}
	}
	return out
}

// ExtractPrices formats the price tokens of text as "A원, B원". It returns nil when there are none.
func ExtractPrices(text string) *string {
	prices := ExtractPriceList(text)
	if len(prices) == 0 {
		return nil
	}
	joined := strings.Join(prices, ", ")
	return &joined
}
