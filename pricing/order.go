package pricing

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order as reported by the order provider.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
)

// OrderStatuses lists every known status, in lifecycle order.
var OrderStatuses = []OrderStatus{OrderStatusNew, OrderStatusInProgress, OrderStatusCompleted}

// ParseOrderStatus normalizes a stored status value. An empty value is treated as new.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderStatusNew:
		return OrderStatusNew, nil
	case OrderStatusInProgress:
		return OrderStatusInProgress, nil
	case OrderStatusCompleted:
		return OrderStatusCompleted, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Order is read-only to the pricing core. Its status seeds the initial workflow step.
type Order struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Code     string      `json:"code"`
	Customer string      `json:"customer"`
	Date     time.Time   `json:"date"`
	Status   OrderStatus `json:"status"`
}

// Title is the "code / name" label used on the pricing screen and in exports.
func (o Order) Title() string {
	switch {
	case o.Code == "":
		return o.Name
	case o.Name == "":
		return o.Code
	}
	return o.Code + " / " + o.Name
}
