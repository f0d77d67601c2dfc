package domain

// MenuRef is the menu entry a cart line points at.
type MenuRef struct {
	ID       int64  `json:"id"`
	FoodName string `json:"foodName"`
	Price    int64  `json:"price"`
	Type     string `json:"type"`
	Image    string `json:"image,omitempty"`
}

// CartItem is one line inside a restaurant's cart partition.
// ID is assigned by the backend; zero means the line only exists as a local intent.
type CartItem struct {
	ID        int64   `json:"id"`
	Menu      MenuRef `json:"menu"`
	Quantity  int     `json:"quantity"`
	ItemTotal int64   `json:"itemTotal"`
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() int64 {
	return i.Menu.Price * int64(i.Quantity)
}

type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// RestaurantCart is the partition of a user's cart that belongs to one restaurant.
type RestaurantCart struct {
	Restaurant RestaurantRef `json:"restaurant"`
	Items      []CartItem    `json:"items"`
	Subtotal   int64         `json:"subtotal"`
}

// ComputeSubtotal sums line totals of every item.
func (p RestaurantCart) ComputeSubtotal() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.LineTotal()
	}
	return total
}

// Item returns the line referencing menuID, if present.
func (p RestaurantCart) Item(menuID int64) (CartItem, bool) {
	for _, item := range p.Items {
		if item.Menu.ID == menuID {
			return item, true
		}
	}
	return CartItem{}, false
}

type CartSummary struct {
	TotalItems      int   `json:"totalItems"`
	TotalPrice      int64 `json:"totalPrice"`
	RestaurantCount int   `json:"restaurantCount"`
}

// Cart is the authoritative multi-restaurant cart as returned by the backend.
type Cart struct {
	Restaurants []RestaurantCart `json:"cart"`
	Summary     CartSummary      `json:"summary"`
}

// Partition returns the restaurant's slice of the cart.
func (c *Cart) Partition(restaurantID int64) (RestaurantCart, bool) {
	if c == nil {
		return RestaurantCart{}, false
	}
	for _, p := range c.Restaurants {
		if p.Restaurant.ID == restaurantID {
			return p, true
		}
	}
	return RestaurantCart{}, false
}
