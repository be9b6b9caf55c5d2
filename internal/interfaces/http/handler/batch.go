package handler

import (
	"net/http"
	"strings"

	"github.com/foodontracks/backend/internal/application/delivery"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BatchHandler serves delivery batches and public tracking
type BatchHandler struct {
	BaseHandler
	batchService *delivery.BatchService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batchService *delivery.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// Create godoc
// @Summary      Create a delivery batch
// @Description  One batch per order. Issues the tracking number and copies it onto the order.
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        request body delivery.CreateBatchRequest true "Order to batch"
// @Success      201 {object} dto.Response{data=delivery.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req delivery.CreateBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	batch, err := h.batchService.CreateBatch(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// Mine godoc
// @Summary      My batches
// @Description  Batches assigned to the calling delivery agent
// @Tags         batches
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Sort field" Enums(created_at, updated_at, status)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]delivery.BatchResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /batches/mine [get]
func (h *BatchHandler) Mine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q delivery.ListBatchesQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.batchService.ListMyBatches(c.Request.Context(), actor, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get godoc
// @Summary      Get a batch
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=delivery.BatchResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	batch, err := h.batchService.GetBatch(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// UpdateStatus godoc
// @Summary      Change batch status
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Batch ID" format(uuid)
// @Param        request body delivery.UpdateBatchStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=delivery.BatchStatusChangeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batches/{id}/status [patch]
func (h *BatchHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req delivery.UpdateBatchStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.batchService.UpdateBatchStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Track godoc
// @Summary      Track a delivery
// @Description  Public lookup by tracking number. Returns status and milestones only.
// @Tags         tracking
// @Produce      json
// @Param        batchNumber path string true "Tracking number" example(FOT-20260101-AB12CD)
// @Success      200 {object} dto.Response{data=delivery.TrackingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /track/{batchNumber} [get]
func (h *BatchHandler) Track(c *gin.Context) {
	number := strings.ToUpper(strings.TrimSpace(c.Param("batchNumber")))
	if number == "" || len(number) > 64 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid tracking number")
		return
	}
	tracking, err := h.batchService.GetByBatchNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tracking)
}
