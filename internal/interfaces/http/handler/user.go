package handler

import (
	"github.com/foodontracks/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the admin user directory
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Sort field" Enums(name, email, role, created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        search    query string false "Name or email search"
// @Param        role      query string false "Role filter"
// @Param        active    query bool   false "Active filter"
// @Success      200 {object} dto.Response{data=[]identity.UserInfo,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q identity.ListUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.userService.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// SetActive godoc
// @Summary      Activate or deactivate a user
// @Description  Deactivation revokes every token issued to the user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "User ID" format(uuid)
// @Param        request body identity.SetActiveRequest true "Active flag"
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/active [patch]
func (h *UserHandler) SetActive(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req identity.SetActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), actor, id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
