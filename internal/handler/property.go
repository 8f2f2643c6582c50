package handler

// Property listing endpoints: public search and detail views, and the
// owner-only create, delete and image upload operations.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smoothmove/internal/middleware"
	"github.com/iliyamo/smoothmove/internal/model"
	"github.com/iliyamo/smoothmove/internal/queue"
	"github.com/iliyamo/smoothmove/internal/repository"
	"github.com/iliyamo/smoothmove/internal/service"
)

// PropertyHandler bundles the repository and the event publisher.
type PropertyHandler struct {
	Properties *repository.PropertyRepo
	Events     service.Publisher
}

// NewPropertyHandler panics on a nil repository; a nil publisher disables events.
func NewPropertyHandler(props *repository.PropertyRepo, events service.Publisher) *PropertyHandler {
	if props == nil {
		panic("nil repository passed to NewPropertyHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &PropertyHandler{Properties: props, Events: events}
}

type propertyReq struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ThumbnailPhotoURL string   `json:"thumbnail_photo_url"`
	CoverPhotoURL     string   `json:"cover_photo_url"`
	CostPerMonth      int      `json:"cost_per_month"`
	Street            string   `json:"street"`
	City              string   `json:"city"`
	Province          string   `json:"province"`
	PostCode          string   `json:"post_code"`
	Country           string   `json:"country"`
	Area              int      `json:"area"`
	Bathrooms         int      `json:"number_of_bathrooms"`
	Bedrooms          int      `json:"number_of_bedrooms"`
	AvailableFrom     string   `json:"available_from"` // YYYY-MM-DD
	Images            []string `json:"images"`
}

type imageReq struct {
	URL string `json:"url"`
}

// toModel validates the request and converts it for the repository.
func (r propertyReq) toModel(ownerID uint64) (*model.Property, error) {
	p := &model.Property{
		OwnerID:           ownerID,
		Title:             strings.TrimSpace(r.Title),
		Description:       strings.TrimSpace(r.Description),
		ThumbnailPhotoURL: strings.TrimSpace(r.ThumbnailPhotoURL),
		CoverPhotoURL:     strings.TrimSpace(r.CoverPhotoURL),
		CostPerMonth:      r.CostPerMonth,
		Street:            strings.TrimSpace(r.Street),
		City:              strings.TrimSpace(r.City),
		Province:          strings.TrimSpace(r.Province),
		PostCode:          strings.TrimSpace(r.PostCode),
		Country:           strings.TrimSpace(r.Country),
		Area:              r.Area,
		Bathrooms:         r.Bathrooms,
		Bedrooms:          r.Bedrooms,
	}
	if p.Title == "" || p.City == "" {
		return nil, errors.New("title and city are required")
	}
	if p.CostPerMonth < 0 || p.Area < 0 || p.Bathrooms < 0 || p.Bedrooms < 0 {
		return nil, errors.New("numeric fields must not be negative")
	}
	for _, u := range []string{p.ThumbnailPhotoURL, p.CoverPhotoURL} {
		if u != "" && !validURL(u) {
			return nil, errors.New("invalid photo url")
		}
	}
	if s := strings.TrimSpace(r.AvailableFrom); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, errors.New("available_from must be YYYY-MM-DD")
		}
		p.AvailableFrom = &t
	}
	for _, raw := range r.Images {
		u := strings.TrimSpace(raw)
		if !validURL(u) {
			return nil, errors.New("invalid image url")
		}
		p.Images = append(p.Images, u)
	}
	return p, nil
}

// validURL accepts absolute http(s) URLs only.
func validURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ListProperties handles GET /v1/properties.
// Query: q (keyword), city, province, postcode, limit (default 10, max 100).
func (h *PropertyHandler) ListProperties(c echo.Context) error {
	s := repository.PropertySearch{
		Keyword:  c.QueryParam("q"),
		City:     c.QueryParam("city"),
		Province: c.QueryParam("province"),
		PostCode: c.QueryParam("postcode"),
	}
	if s.Keyword == "" {
		s.Keyword = c.QueryParam("keyword")
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return jsonError(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		s.Limit = n
	}
	s = s.Normalized()

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Properties.ListProperties(ctx, s)
	if err != nil {
		slog.Error("list properties failed", "error", err)
		return jsonError(c, http.StatusInternalServerError, "list failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":  items,
		"count": len(items),
		"limit": s.Limit,
	})
}

// GetProperty handles GET /v1/properties/:id.
func (h *PropertyHandler) GetProperty(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Properties.GetPropertyByID(ctx, id)
	if err != nil {
		slog.Error("get property failed", "property_id", id, "error", err)
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if p == nil {
		return jsonError(c, http.StatusNotFound, "property not found")
	}
	return c.JSON(http.StatusOK, p)
}

// CreateProperty handles POST /v1/properties.  The authenticated user becomes
// the owner; an owner_id in the body is ignored.
func (h *PropertyHandler) CreateProperty(c echo.Context) error {
	ownerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	var req propertyReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	in, err := req.toModel(ownerID)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Properties.AddProperty(ctx, in)
	if err != nil {
		if h.Properties.IsConstraintViolation(err) {
			return jsonError(c, http.StatusUnprocessableEntity, "owner does not exist")
		}
		slog.Error("create property failed", "owner_id", ownerID, "error", err)
		return jsonError(c, http.StatusInternalServerError, "create failed")
	}
	slog.Info("property created", "property_id", p.ID, "owner_id", ownerID)
	h.publish(c.Request().Context(), queue.NewPropertyEvent(queue.PropertyCreated, p))
	return c.JSON(http.StatusCreated, p)
}

// DeleteProperty handles DELETE /v1/properties/:id.  Only the owner may
// delete; the deleted listing is echoed back.
func (h *PropertyHandler) DeleteProperty(c echo.Context) error {
	ownerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Properties.DeletePropertyByIDAndOwner(ctx, id, ownerID)
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return jsonError(c, http.StatusForbidden, "forbidden")
	case err != nil:
		slog.Error("delete property failed", "property_id", id, "error", err)
		return jsonError(c, http.StatusInternalServerError, "delete failed")
	case p == nil:
		return jsonError(c, http.StatusNotFound, "property not found")
	}
	slog.Info("property deleted", "property_id", id, "owner_id", ownerID, "images", len(p.Images))
	h.publish(c.Request().Context(), queue.NewPropertyEvent(queue.PropertyDeleted, p))
	return c.JSON(http.StatusOK, p)
}

// AddImage handles POST /v1/properties/:id/images with body {"url": "..."}.
func (h *PropertyHandler) AddImage(c echo.Context) error {
	ownerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	var req imageReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.URL = strings.TrimSpace(req.URL)
	if !validURL(req.URL) {
		return jsonError(c, http.StatusBadRequest, "invalid image url")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Properties.GetPropertyByID(ctx, id)
	if err != nil {
		slog.Error("load property failed", "property_id", id, "error", err)
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if p == nil {
		return jsonError(c, http.StatusNotFound, "property not found")
	}
	if p.OwnerID != ownerID {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}

	img, err := h.Properties.AddImage(ctx, id, req.URL)
	if err != nil {
		if h.Properties.IsConstraintViolation(err) {
			// property deleted after the ownership check
			return jsonError(c, http.StatusNotFound, "property not found")
		}
		slog.Error("add image failed", "property_id", id, "error", err)
		return jsonError(c, http.StatusInternalServerError, "add image failed")
	}
	ev := queue.NewPropertyEvent(queue.PropertyImageAdded, p)
	ev.ImageURL = img.URL
	h.publish(c.Request().Context(), ev)
	return c.JSON(http.StatusCreated, img)
}

// publish sends ev without letting broker trouble fail the request.
func (h *PropertyHandler) publish(parent context.Context, ev queue.PropertyEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 3*time.Second)
	defer cancel()
	if err := h.Events.Publish(ctx, ev); err != nil {
		slog.Warn("property event not published", "type", ev.Type, "property_id", ev.PropertyID, "error", err)
	}
}
