// internal/workers/food-agent/get-restaurant-reviews/models.go
package getrestaurantreviews

type Input struct {
	RestaurantName string `json:"restaurantName"`
}

type Output struct {
	Result string `json:"result"`
}
