package checkout

import (
	"regexp"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// StagingRecord is one restaurant's cart partition frozen at the moment the
// user moved to checkout. Later changes to the live cart do not touch it.
type StagingRecord struct {
	OwnerID    int64                `json:"ownerId"`
	Restaurant domain.RestaurantRef `json:"restaurant"`
	Items      []domain.CartItem    `json:"items"`
	Subtotal   int64                `json:"subtotal"`
	StagedAt   time.Time            `json:"stagedAt"`
}

func newStagingRecord(p domain.RestaurantCart, owner int64, now time.Time) StagingRecord {
	items := make([]domain.CartItem, len(p.Items))
	for i, item := range p.Items {
		item.ItemTotal = item.LineTotal()
		items[i] = item
	}
	rec := StagingRecord{OwnerID: owner, Restaurant: p.Restaurant, Items: items, StagedAt: now}
	rec.recompute()
	return rec
}

func (r *StagingRecord) recompute() {
	r.Subtotal = domain.RestaurantCart{Items: r.Items}.ComputeSubtotal()
}

// request reduces the staged lines to what the order service needs.
func (r StagingRecord) request(d Details) domain.CheckoutRequest {
	items := make([]domain.CheckoutItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.CheckoutItem{MenuID: item.Menu.ID, Quantity: item.Quantity})
	}
	return domain.CheckoutRequest{
		Restaurants: []domain.CheckoutRestaurant{{
			RestaurantID: r.Restaurant.ID,
			Items:        items,
		}},
		DeliveryAddress: d.DeliveryAddress,
		Phone:           normalizePhone(d.Phone),
		PaymentMethod:   d.PaymentMethod,
		Notes:           d.Notes,
	}
}

type ReceiptItem struct {
	MenuID    int64  `json:"menuId"`
	MenuName  string `json:"menuName"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
	ItemTotal int64  `json:"itemTotal"`
}

// ReceiptRecord is the just-placed order as the receipt screen shows it:
// the backend's pricing breakdown plus the lines that were ordered.
type ReceiptRecord struct {
	domain.Transaction
	OwnerID    int64                `json:"ownerId"`
	Restaurant domain.RestaurantRef `json:"restaurant"`
	Items      []ReceiptItem        `json:"items"`
}

func newReceipt(tx domain.Transaction, staged StagingRecord) ReceiptRecord {
	items := make([]ReceiptItem, 0, len(staged.Items))
	for _, item := range staged.Items {
		items = append(items, ReceiptItem{
			MenuID:    item.Menu.ID,
			MenuName:  item.Menu.FoodName,
			Price:     item.Menu.Price,
			Image:     item.Menu.Image,
			Quantity:  item.Quantity,
			ItemTotal: item.LineTotal(),
		})
	}
	return ReceiptRecord{Transaction: tx, OwnerID: staged.OwnerID, Restaurant: staged.Restaurant, Items: items}
}

var (
	phonePattern    = regexp.MustCompile(`^[0-9]{10,15}$`)
	phoneSeparators = strings.NewReplacer("-", "", " ", "", "+", "")
)

// normalizePhone strips separators; the result is what gets validated and sent.
func normalizePhone(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

// Details is what the user enters on the checkout screen.
type Details struct {
	DeliveryAddress string               `json:"deliveryAddress"`
	Phone           string               `json:"phone"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	Notes           string               `json:"notes,omitempty"`
}

func (d Details) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(d.DeliveryAddress) == "" {
		fields["deliveryAddress"] = "is required"
	}
	if !phonePattern.MatchString(normalizePhone(d.Phone)) {
		fields["phone"] = "must be 10 to 15 digits"
	}
	if !d.PaymentMethod.Valid() {
		fields["paymentMethod"] = "unsupported payment method"
	}
	if len(fields) > 0 {
		return &DetailsError{Fields: fields}
	}
	return nil
}

// Fees the checkout screen shows before the order service prices the order.
// The receipt always carries the backend's own figures.
const (
	EstimatedDeliveryFee int64 = 10000
	EstimatedServiceFee  int64 = 1000
)

type Estimate struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"deliveryFee"`
	ServiceFee  int64 `json:"serviceFee"`
	Total       int64 `json:"total"`
}

func (r StagingRecord) Estimate() Estimate {
	return Estimate{
		Subtotal:    r.Subtotal,
		DeliveryFee: EstimatedDeliveryFee,
		ServiceFee:  EstimatedServiceFee,
		Total:       r.Subtotal + EstimatedDeliveryFee + EstimatedServiceFee,
	}
}
