package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visualcraft/marketplace/internal/core/ports"
)

// AdminHandler handles the user moderation endpoints.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

type adminUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=owner admin staff user"`
	Banned *bool   `json:"banned"`
	Muted  *bool   `json:"muted"`
}

// ListUsers handles GET /admin/users.
//
// @Summary      List all users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]domain.User
// @Failure      403  {object}  map[string]string
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	users, err := h.service.ListUsers(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser handles PATCH /admin/users/:uid. Owner accounts are never a
// valid target.
//
// @Summary      Update a user's role or moderation flags
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uid   path      string            true  "User id"
// @Success      204   "No Content"
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/users/{uid} [patch]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req adminUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	in := ports.AdminUserInput{
		Role:   req.Role,
		Banned: req.Banned,
		Muted:  req.Muted,
	}
	if err := h.service.UpdateUser(c.Request().Context(), caller, c.Param("uid"), in); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser handles DELETE /admin/users/:uid.
//
// @Summary      Delete a user account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "User id"
// @Success      204  "No Content"
// @Failure      403  {object}  map[string]string
// @Router       /admin/users/{uid} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteUser(c.Request().Context(), caller, c.Param("uid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
