// internal/workers/food-agent/search-food-by-image/models.go
package searchfoodbyimage

// Input carries either a public image URL or an absolute path readable by the worker.
type Input struct {
	ImageSource string `json:"imageSource"`
}

type Output struct {
	Result string `json:"result"`
}
