package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
)

type orderListResponse struct {
	Orders []pricing.Order `json:"orders"`
}

// HandleOrderList returns the orders, optionally filtered by ?q=.
// Route: GET /api/orders
func HandleOrderList(orders pricing.OrderProvider) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		list, err := orders.ListOrders(e.Request.Context(), e.Request.URL.Query().Get("q"))
		if err != nil {
			return respondError(e, "order_list", err)
		}
		if list == nil {
			list = []pricing.Order{}
		}
		return e.JSON(http.StatusOK, orderListResponse{Orders: list})
	}
}

// HandleOrderGet returns a single order.
// Route: GET /api/orders/{id}
func HandleOrderGet(orders pricing.OrderProvider) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		o, err := orders.GetOrder(e.Request.Context(), e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "order_get", err)
		}
		return e.JSON(http.StatusOK, o)
	}
}
