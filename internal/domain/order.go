package domain

import "time"

type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusDone      OrderStatus = "done"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus accepts a history filter. Empty and "all" mean no filter.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case "", "all":
		return "", true
	case OrderStatusPreparing, OrderStatusOnTheWay, OrderStatusDelivered, OrderStatusDone, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentEWallet      PaymentMethod = "e_wallet"
	PaymentCreditCard   PaymentMethod = "credit_card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentEWallet, PaymentCreditCard:
		return true
	}
	return false
}

type CheckoutItem struct {
	MenuID   int64 `json:"menuId"`
	Quantity int   `json:"quantity"`
}

type CheckoutRestaurant struct {
	RestaurantID int64          `json:"restaurantId"`
	Items        []CheckoutItem `json:"items"`
}

// CheckoutRequest is the body of the order service's checkout call.
type CheckoutRequest struct {
	Restaurants     []CheckoutRestaurant `json:"restaurants"`
	DeliveryAddress string               `json:"deliveryAddress"`
	Phone           string               `json:"phone"`
	PaymentMethod   PaymentMethod        `json:"paymentMethod"`
	Notes           string               `json:"notes,omitempty"`
}

// Transaction is the order record the backend creates on checkout.
type Transaction struct {
	TransactionID string      `json:"transactionId"`
	UserID        int64       `json:"userId"`
	PaymentMethod string      `json:"paymentMethod"`
	Price         int64       `json:"price"`
	ServiceFee    int64       `json:"serviceFee"`
	DeliveryFee   int64       `json:"deliveryFee"`
	TotalPrice    int64       `json:"totalPrice"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID       int64   `json:"id"`
	MenuID   int64   `json:"menuId"`
	Quantity int     `json:"quantity"`
	Price    int64   `json:"price"`
	Menu     MenuRef `json:"menu"`
}

type Order struct {
	Transaction
	Restaurant RestaurantRef `json:"restaurant"`
	Items      []OrderItem   `json:"items"`
}

type Pagination struct {
	CurrentPage   int `json:"currentPage"`
	TotalPages    int `json:"totalPages"`
	TotalOrders   int `json:"totalOrders"`
	OrdersPerPage int `json:"ordersPerPage"`
}

type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
