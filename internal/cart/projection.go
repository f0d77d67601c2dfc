package cart

import "github.com/fjod/go_cart/storefront/internal/domain"

// ListPartitions projects the last fetched cart, one entry per restaurant,
// with line totals and subtotals recomputed from unit prices. Pending
// overlays are not applied here.
func (c *Coordinator) ListPartitions() []domain.RestaurantCart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authoritative == nil {
		return []domain.RestaurantCart{}
	}
	out := make([]domain.RestaurantCart, 0, len(c.authoritative.Restaurants))
	for _, p := range c.authoritative.Restaurants {
		out = append(out, project(p))
	}
	return out
}

// Partition returns one restaurant's projected slice of the cart.
func (c *Coordinator) Partition(restaurantID int64) (domain.RestaurantCart, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.authoritative.Partition(restaurantID)
	if !ok {
		return domain.RestaurantCart{}, false
	}
	return project(p), true
}

// Summary aggregates every partition. TotalItems counts units, not lines.
func (c *Coordinator) Summary() domain.CartSummary {
	var s domain.CartSummary
	for _, p := range c.ListPartitions() {
		s.RestaurantCount++
		s.TotalPrice += p.Subtotal
		for _, item := range p.Items {
			s.TotalItems += item.Quantity
		}
	}
	return s
}

func project(p domain.RestaurantCart) domain.RestaurantCart {
	items := make([]domain.CartItem, len(p.Items))
	for i, item := range p.Items {
		item.ItemTotal = item.LineTotal()
		items[i] = item
	}
	p.Items = items
	p.Subtotal = p.ComputeSubtotal()
	return p
}
