package handler

import (
	"github.com/foodontracks/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// RestaurantHandler serves restaurant CRUD
type RestaurantHandler struct {
	BaseHandler
	restaurantService *catalog.RestaurantService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(restaurantService *catalog.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: restaurantService}
}

// List godoc
// @Summary      List restaurants
// @Tags         restaurants
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Sort field" Enums(created_at, name, cuisine, average_rating, review_count)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        search    query string false "Name search"
// @Param        cuisine   query string false "Cuisine filter"
// @Param        open_only query bool   false "Only open restaurants"
// @Success      200 {object} dto.Response{data=[]catalog.RestaurantResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /restaurants [get]
func (h *RestaurantHandler) List(c *gin.Context) {
	var q catalog.ListRestaurantsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.restaurantService.ListRestaurants(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get godoc
// @Summary      Get a restaurant
// @Tags         restaurants
// @Produce      json
// @Param        id path string true "Restaurant ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.RestaurantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants/{id} [get]
func (h *RestaurantHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.restaurantService.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, restaurant)
}

// Create godoc
// @Summary      Create a restaurant
// @Description  Owners create their own restaurant and are linked to it. Admins may name any owner.
// @Tags         restaurants
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateRestaurantRequest true "Restaurant"
// @Success      201 {object} dto.Response{data=catalog.RestaurantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants [post]
func (h *RestaurantHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req catalog.CreateRestaurantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	restaurant, err := h.restaurantService.CreateRestaurant(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, restaurant)
}

// Update godoc
// @Summary      Update a restaurant
// @Description  Partial update, including opening and closing. Owner of the restaurant or admin.
// @Tags         restaurants
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Restaurant ID" format(uuid)
// @Param        request body catalog.UpdateRestaurantRequest true "Changes"
// @Success      200 {object} dto.Response{data=catalog.RestaurantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants/{id} [put]
func (h *RestaurantHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateRestaurantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	restaurant, err := h.restaurantService.UpdateRestaurant(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, restaurant)
}

// Delete godoc
// @Summary      Delete a restaurant
// @Tags         restaurants
// @Param        id path string true "Restaurant ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants/{id} [delete]
func (h *RestaurantHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.restaurantService.DeleteRestaurant(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
