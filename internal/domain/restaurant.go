package domain

type Menu struct {
	ID       int64  `json:"id"`
	FoodName string `json:"foodName"`
	Price    int64  `json:"price"`
	Type     string `json:"type"`
	Image    string `json:"image,omitempty"`
}

type Restaurant struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	Star                float64  `json:"star"`
	Place               string   `json:"place"`
	Lat                 float64  `json:"lat"`
	Long                float64  `json:"long"`
	Logo                string   `json:"logo"`
	Images              []string `json:"images"`
	Category            string   `json:"category,omitempty"`
	ReviewCount         int      `json:"reviewCount,omitempty"`
	SampleMenus         []Menu   `json:"sampleMenus,omitempty"`
	IsFrequentlyOrdered bool     `json:"isFrequentlyOrdered,omitempty"`
}

// RestaurantDetail is a restaurant with its full menu.
type RestaurantDetail struct {
	Restaurant
	Menus []Menu `json:"menus"`
}

// RestaurantFilter mirrors the backend's listing query parameters.
type RestaurantFilter struct {
	Search    string
	MinPrice  int64
	MaxPrice  int64
	MinRating float64
	Limit     int
}
