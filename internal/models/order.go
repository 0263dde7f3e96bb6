package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OrderStatus represents the states an order moves through in the storefront
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAuthorized OrderStatus = "authorized"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ErrInvalidOrderStatus is returned for status names the storefront never writes
var ErrInvalidOrderStatus = errors.New("invalid order status")

// Order is the read-side view of a storefront order row
type Order struct {
	ID           string      `json:"id" validate:"required,uuid"`
	Reference    string      `json:"reference" validate:"required"`
	Amount       int64       `json:"amount" validate:"gt=0"`
	Currency     string      `json:"currency" validate:"len=3"`
	Status       OrderStatus `json:"status" validate:"oneof=pending authorized failed cancelled"`
	ProductName  string      `json:"productName" validate:"required"`
	PSPReference string      `json:"pspReference,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ParseOrderStatus accepts the storefront status names, plus the Adyen
// spelling "authorised"
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderStatusPending, nil
	case "authorized", "authorised":
		return OrderStatusAuthorized, nil
	case "failed", "refused", "error":
		return OrderStatusFailed, nil
	case "cancelled", "canceled":
		return OrderStatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, s)
}

// IsTerminal reports whether the status can no longer change
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusAuthorized || s == OrderStatusCancelled
}

// GetFormattedAmount returns the amount formatted with currency
func (o *Order) GetFormattedAmount() string {
	amountInMajorUnits := float64(o.Amount) / 100.0
	return fmt.Sprintf("%.2f %s", amountInMajorUnits, o.Currency)
}
