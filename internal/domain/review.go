package domain

import "time"

type ReviewRequest struct {
	TransactionID string `json:"transactionId"`
	Star          int    `json:"star"`
	Comment       string `json:"comment"`
}

type Review struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	RestaurantID  int64     `json:"restaurantId"`
	TransactionID string    `json:"transactionId"`
	Star          int       `json:"star"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}
