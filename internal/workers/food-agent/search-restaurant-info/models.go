// internal/workers/food-agent/search-restaurant-info/models.go
package searchrestaurantinfo

// Input is a free-text restaurant query such as "강남 전집".
type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Result string `json:"result"`
}
