package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/listing"
	"github.com/visualcraft/marketplace/internal/core/ports"
	"github.com/visualcraft/marketplace/internal/core/view"
)

// ItemHandler handles HTTP requests for the item catalog: the paginated
// listing window, derived views over it, and the policy-gated mutations.
type ItemHandler struct {
	service ports.ItemService
	feed    *listing.Feed
}

func NewItemHandler(service ports.ItemService, feed *listing.Feed) *ItemHandler {
	return &ItemHandler{service: service, feed: feed}
}

// --- Request / Response types ---

type itemPayload struct {
	Title           string   `json:"title" validate:"required"`
	Desc            string   `json:"desc"`
	Category        string   `json:"cat"`
	Link            string   `json:"link"`
	Youtube         string   `json:"youtube"`
	OriginalCreator string   `json:"originalCreator"`
	Img             string   `json:"img"`
	Gallery         []string `json:"gallery" validate:"max=5"`
}

type rateRequest struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Review string `json:"review"`
}

type listResponse struct {
	Items   []*domain.Item `json:"items"`
	HasMore bool           `json:"hasMore"`
}

// List handles GET /items. The response is a derived view over the current
// listing window: optional title search, category filter and sort key, never
// a fresh store query.
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Param        search    query     string  false  "Case-insensitive title substring"
// @Param        category  query     string  false  "Exact category match"
// @Param        sort      query     string  false  "Sort key"  Enums(newest, oldest, highest_rating, title_asc)
// @Success      200       {object}  listResponse
// @Failure      400       {object}  map[string]string
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	sortKey := c.QueryParam("sort")
	if sortKey != "" && !view.ValidSortKey(sortKey) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown sort key"})
	}

	items := view.Compute(h.feed.Snapshot(), view.Query{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Sort:     view.SortKey(sortKey),
	})

	return c.JSON(http.StatusOK, listResponse{Items: items, HasMore: h.feed.HasMore()})
}

// LoadMore handles POST /items/more: extends the listing window by one page.
//
// @Summary      Load the next page into the listing window
// @Tags         items
// @Produce      json
// @Success      200  {object}  listResponse
// @Failure      409  {object}  map[string]string
// @Router       /items/more [post]
func (h *ItemHandler) LoadMore(c echo.Context) error {
	if err := h.feed.LoadMore(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse{Items: h.feed.Snapshot(), HasMore: h.feed.HasMore()})
}

// Refresh handles POST /items/refresh: discards the window and reloads the
// latest page.
//
// @Summary      Reset the listing window to the latest page
// @Tags         items
// @Produce      json
// @Success      200  {object}  listResponse
// @Failure      409  {object}  map[string]string
// @Router       /items/refresh [post]
func (h *ItemHandler) Refresh(c echo.Context) error {
	if err := h.feed.Reset(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse{Items: h.feed.Snapshot(), HasMore: h.feed.HasMore()})
}

// Featured handles GET /items/featured: the featured subset of the window in
// window order.
//
// @Summary      List featured items
// @Tags         items
// @Produce      json
// @Success      200  {array}  domain.Item
// @Router       /items/featured [get]
func (h *ItemHandler) Featured(c echo.Context) error {
	return c.JSON(http.StatusOK, view.Featured(h.feed.Snapshot()))
}

// Get handles GET /items/:id.
//
// @Summary      Get an item by id
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  domain.Item
// @Failure      404  {object}  map[string]string
// @Router       /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Create handles POST /items.
//
// @Summary      Create an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      itemPayload  true  "Item details"
// @Success      201   {object}  domain.Item
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req itemPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	item, err := h.service.CreateItem(c.Request().Context(), caller, ports.CreateItemInput{
		Title:           req.Title,
		Desc:            req.Desc,
		Category:        req.Category,
		Link:            req.Link,
		Youtube:         req.Youtube,
		OriginalCreator: req.OriginalCreator,
		Img:             req.Img,
		Gallery:         req.Gallery,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, item)
}

// Update handles PUT /items/:id. Allowed for the author and for actors with
// content moderation rights.
//
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Item id"
// @Param        body  body      itemPayload  true  "Item details"
// @Success      200   {object}  domain.Item
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req itemPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	item, err := h.service.UpdateItem(c.Request().Context(), caller, c.Param("id"), ports.UpdateItemInput{
		Title:           req.Title,
		Desc:            req.Desc,
		Category:        req.Category,
		Link:            req.Link,
		Youtube:         req.Youtube,
		OriginalCreator: req.OriginalCreator,
		Img:             req.Img,
		Gallery:         req.Gallery,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /items/:id.
//
// @Summary      Delete an item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Item id"
// @Success      204  "No Content"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteItem(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Feature handles POST /items/:id/feature: flips the featured flag.
//
// @Summary      Toggle the featured flag on an item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  domain.Item
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /items/{id}/feature [post]
func (h *ItemHandler) Feature(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	item, err := h.service.ToggleFeature(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Rate handles PUT /items/:id/rating: upserts the caller's review.
//
// @Summary      Rate an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Item id"
// @Param        body  body      rateRequest  true  "Rating and optional review"
// @Success      200   {object}  domain.Item
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /items/{id}/rating [put]
func (h *ItemHandler) Rate(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	item, err := h.service.RateItem(c.Request().Context(), caller, c.Param("id"), ports.RateItemInput{
		Rating: req.Rating,
		Review: req.Review,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}
