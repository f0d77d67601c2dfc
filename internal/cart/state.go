package cart

// LineState is what the interface shows for one menu item of one restaurant.
// A Pending state always wins over the authoritative cart until its mutation
// settles, at which point the line collapses back to Confirmed.
type LineState interface {
	Displayed() int
	isLineState()
}

// Confirmed mirrors the last fetched authoritative cart.
type Confirmed struct {
	Quantity int
}

func (c Confirmed) Displayed() int { return c.Quantity }
func (Confirmed) isLineState() {}

// Pending is a local intent whose backend call has not settled yet.
type Pending struct {
	DisplayedQuantity int
	IntendedDelta     int
}

func (p Pending) Displayed() int { return p.DisplayedQuantity }
func (Pending) isLineState() {}

type lineKey struct {
	restaurantID int64
	menuID       int64
}
