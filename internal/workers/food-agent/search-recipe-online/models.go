// internal/workers/food-agent/search-recipe-online/models.go
package searchrecipeonline

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Result string `json:"result"`
}
