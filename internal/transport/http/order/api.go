package order

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/serviceorders/internal/dto"
	"github.com/Additional-Code/serviceorders/internal/entity"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/response"
	"github.com/Additional-Code/serviceorders/pkg/errorbank"
)

// RegisterAPI mounts the JSON API under /api/orders.
func RegisterAPI(e *echo.Echo, h *Handler) {
	g := e.Group("/api/orders")
	g.GET("", h.apiList)
	g.GET("/:id", h.apiGet)
	g.POST("", h.apiCreate)
	g.PUT("/:id", h.apiUpdate)
	g.DELETE("/:id", h.apiDelete)
}

// orderPayload mirrors dto.OrderInput but tells an omitted status apart from an empty one.
type orderPayload struct {
	Reference   string  `json:"reference"`
	Company     string  `json:"company"`
	Description string  `json:"description"`
	Status      *string `json:"status"`
}

func (p orderPayload) input() dto.OrderInput {
	in := dto.OrderInput{
		Reference:   p.Reference,
		Company:     p.Company,
		Description: p.Description,
		Status:      string(entity.StatusPending),
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	return in
}

func (h *Handler) apiList(c echo.Context) error {
	b := response.New(c)
	query := c.QueryParam("q")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.api.list")
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	orders, err := h.svc.List(ctx, db, query)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromEntities(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) apiGet(c echo.Context) error {
	b := response.New(c)

	id, ok := apiID(c)
	if !ok {
		return b.WithError(errorbank.BadRequest("invalid id")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.api.get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	order, err := h.svc.Get(ctx, db, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromEntity(order)).Build()
}

func (h *Handler) apiCreate(c echo.Context) error {
	b := response.New(c)

	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.api.create")
	span.SetAttributes(attribute.String("order.reference", payload.Reference))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	order, err := h.svc.Create(ctx, db, payload.input())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.FromEntity(order)).Build()
}

func (h *Handler) apiUpdate(c echo.Context) error {
	b := response.New(c)

	id, ok := apiID(c)
	if !ok {
		return b.WithError(errorbank.BadRequest("invalid id")).Build()
	}
	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.api.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	order, err := h.svc.Update(ctx, db, id, payload.input())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromEntity(order)).Build()
}

func (h *Handler) apiDelete(c echo.Context) error {
	b := response.New(c)

	id, ok := apiID(c)
	if !ok {
		return b.WithError(errorbank.BadRequest("invalid id")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.api.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	if err := h.svc.Delete(ctx, db, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]int64{"id": id}).Build()
}

func apiID(c echo.Context) (int64, bool) {
	id, err := parseID(c)
	return id, err == nil
}
