package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/internal/dto"
	"github.com/Additional-Code/serviceorders/internal/entity"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/flash"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/view"
	httpserver "github.com/Additional-Code/serviceorders/internal/server/http"
	service "github.com/Additional-Code/serviceorders/internal/service/order"
	"github.com/Additional-Code/serviceorders/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/serviceorders/transport/http/order")

var errNoSession = errors.New("database session missing from request")

// Handler serves the order pages and the JSON API.
type Handler struct {
	svc    *service.Service
	flash  *flash.Store
	logger *zap.Logger
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, flashes *flash.Store, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, flash: flashes, logger: logger.Named("orders.http")}
}

// Register mounts the HTML routes.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/", h.index)

	g := e.Group("/orders")
	g.GET("/new", h.newForm)
	g.POST("/new", h.create)
	g.GET("/:id/edit", h.editForm)
	g.POST("/:id/edit", h.update)
	g.POST("/:id/delete", h.delete)
}

func (h *Handler) index(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.index")
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return err
	}
	orders, err := h.svc.List(ctx, db, query)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, view.PageIndex, view.IndexPage{
		Orders:  dto.FromEntities(orders),
		Query:   query,
		Flashes: h.flash.Pop(c),
	})
}

func (h *Handler) newForm(c echo.Context) error {
	page := view.NewFormPage(view.ModeCreate, 0, dto.InputFromEntity(nil), h.flash.Pop(c))
	return c.Render(http.StatusOK, view.PageForm, page)
}

func (h *Handler) create(c echo.Context) error {
	in, err := bindForm(c)
	if err != nil {
		return err
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(attribute.String("order.reference", in.Reference))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return err
	}
	if _, err := h.svc.Create(ctx, db, in); err != nil {
		if recoverable(err) {
			return h.renderForm(c, view.ModeCreate, 0, in, err)
		}
		return err
	}

	return h.redirectHome(c, flash.Success(service.MsgCreated))
}

func (h *Handler) editForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.editForm", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return err
	}
	order, err := h.svc.Get(ctx, db, id)
	if err != nil {
		if errorbank.IsKind(err, errorbank.KindNotFound) {
			return h.redirectHome(c, flash.Error(service.MsgNotFound))
		}
		return err
	}

	page := view.NewFormPage(view.ModeEdit, id, dto.InputFromEntity(order), h.flash.Pop(c))
	return c.Render(http.StatusOK, view.PageForm, page)
}

func (h *Handler) update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	in, err := bindForm(c)
	if err != nil {
		return err
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return err
	}
	if _, err := h.svc.Update(ctx, db, id, in); err != nil {
		switch {
		case errorbank.IsKind(err, errorbank.KindNotFound):
			return h.redirectHome(c, flash.Error(service.MsgNotFound))
		case recoverable(err):
			return h.renderForm(c, view.ModeEdit, id, in, err)
		default:
			return err
		}
	}

	return h.redirectHome(c, flash.Success(service.MsgUpdated))
}

func (h *Handler) delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := handle(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(ctx, db, id); err != nil {
		return err
	}

	return h.redirectHome(c, flash.Success(service.MsgDeleted))
}

func (h *Handler) renderForm(c echo.Context, mode string, id int64, in dto.OrderInput, cause error) error {
	status := http.StatusUnprocessableEntity
	var appErr *errorbank.AppError
	if errors.As(cause, &appErr) {
		status = appErr.StatusCode()
	}
	page := view.NewFormPage(mode, id, in, flash.Errors(errorbank.Messages(cause)))
	return c.Render(status, view.PageForm, page)
}

func (h *Handler) redirectHome(c echo.Context, msgs ...flash.Message) error {
	if err := h.flash.Add(c, msgs...); err != nil {
		h.logger.Warn("set flash cookie", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// bindForm reads the submitted order fields. An absent status field means
// the default status; an empty one is kept and fails validation.
func bindForm(c echo.Context) (dto.OrderInput, error) {
	params, err := c.FormParams()
	if err != nil {
		return dto.OrderInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}
	in := dto.OrderInput{
		Reference:   params.Get("reference"),
		Company:     params.Get("company"),
		Description: params.Get("description"),
		Status:      string(entity.StatusPending),
	}
	if params.Has("status") {
		in.Status = params.Get("status")
	}
	return in, nil
}

// recoverable reports errors the form can show back to the user.
func recoverable(err error) bool {
	return errorbank.IsKind(err, errorbank.KindUnprocessableEntity) || errorbank.IsKind(err, errorbank.KindConflict)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

func handle(c echo.Context) (database.Handle, error) {
	sess := httpserver.Session(c)
	if sess == nil {
		return nil, errNoSession
	}
	return sess, nil
}
