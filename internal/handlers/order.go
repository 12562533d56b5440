// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/storefront/catalog-api/internal/models"
	"github.com/storefront/catalog-api/internal/services"
	"github.com/storefront/catalog-api/internal/utils"
)

const orderResource = "order"

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err, orderResource)
		return
	}

	entry(c).WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"items":    len(order.Items),
	}).Info("Order created")
	utils.CreatedResponse(c, order)
}

// GET /orders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	h.listOrders(c, userID)
}

// GET /orders/user/:userId
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	requested := c.Param("userId")
	if requested != userID {
		role, _ := utils.GetUserRoleFromContext(c)
		if role != string(models.UserRoleAdmin) {
			respondError(c, services.ErrForbidden, orderResource)
			return
		}
	}

	h.listOrders(c, requested)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, orderResource)
		return
	}

	utils.SuccessResponse(c, order)
}

func (h *OrderHandler) listOrders(c *gin.Context, userID string) {
	orders, err := h.orderService.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, orderResource)
		return
	}

	utils.SuccessResponse(c, orders)
}
