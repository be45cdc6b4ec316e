package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visualcraft/marketplace/internal/core/ports"
)

// CategoryHandler handles the shared category list endpoints.
type CategoryHandler struct {
	service ports.CategoryService
}

func NewCategoryHandler(service ports.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// List handles GET /categories. Reads are public.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200  {object}  categoriesResponse
// @Router       /categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.service.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}

// Add handles POST /categories. Adding an existing name is a no-op.
//
// @Summary      Add a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      categoryRequest  true  "Category name"
// @Success      200   {object}  categoriesResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /categories [post]
func (h *CategoryHandler) Add(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	categories, err := h.service.Add(c.Request().Context(), caller, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}

// Remove handles DELETE /categories/:name. Items referencing the removed
// name keep it.
//
// @Summary      Remove a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        name  path  string  true  "Category name"
// @Success      200   {object}  categoriesResponse
// @Failure      403   {object}  map[string]string
// @Router       /categories/{name} [delete]
func (h *CategoryHandler) Remove(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	categories, err := h.service.Remove(c.Request().Context(), caller, c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}
