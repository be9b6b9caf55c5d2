package handler

import (
	"github.com/foodontracks/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// MenuHandler serves menus, menu items and image uploads
type MenuHandler struct {
	BaseHandler
	menuService *catalog.MenuService
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuService *catalog.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

// ListMenu godoc
// @Summary      Restaurant menu
// @Description  Served from cache when warm
// @Tags         menu
// @Produce      json
// @Param        id path string true "Restaurant ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]catalog.MenuItemResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants/{id}/menu [get]
func (h *MenuHandler) ListMenu(c *gin.Context) {
	restaurantID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.menuService.ListMenu(c.Request.Context(), restaurantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// GetItem godoc
// @Summary      Get a menu item
// @Tags         menu
// @Produce      json
// @Param        id path string true "Menu item ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.MenuItemResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /menu-items/{id} [get]
func (h *MenuHandler) GetItem(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.menuService.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// CreateItem godoc
// @Summary      Add a menu item
// @Tags         menu
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Restaurant ID" format(uuid)
// @Param        request body catalog.CreateMenuItemRequest true "Menu item"
// @Success      201 {object} dto.Response{data=catalog.MenuItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /restaurants/{id}/menu [post]
func (h *MenuHandler) CreateItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	restaurantID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.CreateMenuItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.menuService.CreateMenuItem(c.Request.Context(), actor, restaurantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateItem godoc
// @Summary      Update a menu item
// @Tags         menu
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Menu item ID" format(uuid)
// @Param        request body catalog.UpdateMenuItemRequest true "Changes"
// @Success      200 {object} dto.Response{data=catalog.MenuItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /menu-items/{id} [put]
func (h *MenuHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateMenuItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.menuService.UpdateMenuItem(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Restock godoc
// @Summary      Set menu item stock
// @Tags         menu
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Menu item ID" format(uuid)
// @Param        request body catalog.RestockRequest true "Absolute stock"
// @Success      200 {object} dto.Response{data=catalog.MenuItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /menu-items/{id}/stock [patch]
func (h *MenuHandler) Restock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.RestockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.menuService.Restock(c.Request.Context(), actor, id, *req.Stock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteItem godoc
// @Summary      Delete a menu item
// @Tags         menu
// @Param        id path string true "Menu item ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /menu-items/{id} [delete]
func (h *MenuHandler) DeleteItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.DeleteMenuItem(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ImageUploadURL godoc
// @Summary      Presigned image upload
// @Description  Returns a presigned PUT URL for the item image. The client uploads with the same Content-Type.
// @Tags         menu
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Menu item ID" format(uuid)
// @Param        request body catalog.ImageUploadRequest   true "Content type and size"
// @Success      200 {object} dto.Response{data=catalog.ImageUploadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /menu-items/{id}/image-upload-url [post]
func (h *MenuHandler) ImageUploadURL(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.ImageUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	upload, err := h.menuService.RequestImageUpload(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, upload)
}
