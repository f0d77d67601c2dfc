package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestaurantCart_ComputeSubtotal(t *testing.T) {
	p := RestaurantCart{
		Items: []CartItem{
			{ID: 1, Menu: MenuRef{ID: 10, Price: 50000}, Quantity: 2},
			{ID: 2, Menu: MenuRef{ID: 11, Price: 12500}, Quantity: 4},
		},
	}

	assert.Equal(t, int64(150000), p.ComputeSubtotal())
	assert.Equal(t, int64(100000), p.Items[0].LineTotal())
}

func TestCart_Partition(t *testing.T) {
	c := &Cart{Restaurants: []RestaurantCart{
		{Restaurant: RestaurantRef{ID: 1, Name: "A"}},
		{Restaurant: RestaurantRef{ID: 2, Name: "B"}},
	}}

	p, ok := c.Partition(2)
	assert.True(t, ok)
	assert.Equal(t, "B", p.Restaurant.Name)

	_, ok = c.Partition(3)
	assert.False(t, ok)

	var nilCart *Cart
	_, ok = nilCart.Partition(1)
	assert.False(t, ok)
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   OrderStatus
		wantOK bool
	}{
		{"", "", true},
		{"all", "", true},
		{"done", OrderStatusDone, true},
		{"on_the_way", OrderStatusOnTheWay, true},
		{"shipped", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrderStatus(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
