// internal/workers/food-agent/get-nutrition-info/models.go
package getnutritioninfo

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Result string `json:"result"`
}
