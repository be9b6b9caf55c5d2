package handler

import (
	"github.com/foodontracks/backend/internal/application/review"
	"github.com/gin-gonic/gin"
)

// ReviewHandler serves order reviews
type ReviewHandler struct {
	BaseHandler
	reviewService *review.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *review.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create godoc
// @Summary      Review a delivered order
// @Description  One review per order. Updates the restaurant's average rating.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        request body review.CreateReviewRequest true "Review"
// @Success      201 {object} dto.Response{data=review.CreateReviewResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req review.CreateReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.reviewService.CreateReview(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListByRestaurant godoc
// @Summary      Restaurant reviews
// @Tags         reviews
// @Produce      json
// @Param        id        path  string true  "Restaurant ID" format(uuid)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]review.ReviewResponse,meta=dto.Meta}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants/{id}/reviews [get]
func (h *ReviewHandler) ListByRestaurant(c *gin.Context) {
	restaurantID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var q review.ListReviewsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.reviewService.ListRestaurantReviews(c.Request.Context(), restaurantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Delete godoc
// @Summary      Delete a review
// @Description  Moderation. Recomputes the restaurant's average rating.
// @Tags         reviews
// @Param        id path string true "Review ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.DeleteReview(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
