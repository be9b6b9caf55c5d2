package handler

import (
	"strings"

	"github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries the client's placement key
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the header value stored in Redis
const maxIdempotencyKeyLength = 128

// OrderHandler serves order placement, reads, status changes and claims
type OrderHandler struct {
	BaseHandler
	placement *ordering.PlacementService
	status    *ordering.StatusService
	claims    *ordering.ClaimService
	queries   *ordering.QueryService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	placement *ordering.PlacementService,
	status *ordering.StatusService,
	claims *ordering.ClaimService,
	queries *ordering.QueryService,
) *OrderHandler {
	return &OrderHandler{placement: placement, status: status, claims: claims, queries: queries}
}

// Place godoc
// @Summary      Place an order
// @Description  Validates prices against the menu, reserves stock, records the payment and confirms the order in one transaction.
// @Description  An Idempotency-Key header makes retries safe. fail=true aborts after stock reservation when failure injection is enabled.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                     false "Client-generated idempotency key"
// @Param        fail            query  bool                       false "Inject a failure after stock reservation"
// @Param        request         body   ordering.PlaceOrderRequest true  "Order"
// @Success      201 {object} dto.Response{data=ordering.PlaceOrderResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Place(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ordering.PlaceOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		h.HandleError(c, shared.NewValidationError("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLength))
		return
	}

	result, err := h.placement.PlaceOrder(c.Request.Context(), actor, ordering.PlaceOrderCommand{
		PlaceOrderRequest: req,
		IdempotencyKey:    key,
		InjectFailure:     queryBool(c, "fail"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @Summary      List orders
// @Description  Scoped by role: customers see their own, owners their restaurant's, agents the orders assigned to them, admins all.
// @Tags         orders
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Sort field" Enums(created_at, updated_at, total_amount, status, order_number)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        search    query string false "Order number search"
// @Param        status    query string false "Status filter"
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ordering.ListOrdersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.queries.ListOrders(c.Request.Context(), actor, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get godoc
// @Summary      Get an order
// @Description  Orders the caller may not access are reported as not found
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.queries.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateStatus godoc
// @Summary      Change order status
// @Description  The target must be allowed for the caller's role and reachable from the current status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Order ID" format(uuid)
// @Param        request body ordering.UpdateStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=ordering.StatusChangeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ordering.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.status.UpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListClaimable godoc
// @Summary      Claimable orders
// @Description  Unassigned orders that are preparing or ready
// @Tags         orders
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/claimable [get]
func (h *OrderHandler) ListClaimable(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.queries.ListClaimable(c.Request.Context(), actor, shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Claim godoc
// @Summary      Claim an order
// @Description  Assigns the calling delivery agent. Exactly one of several concurrent claims succeeds.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/claim [post]
func (h *OrderHandler) Claim(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.claims.Claim(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetPayment godoc
// @Summary      Order payment
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=ordering.PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/payment [get]
func (h *OrderHandler) GetPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.queries.GetPayment(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}
