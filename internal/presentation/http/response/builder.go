// Package response renders the JSON envelope shared by every API route:
// {"success":true,"data":...,"meta":...} or {"success":false,"error":{...}}.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/serviceorders/pkg/errorbank"
)

type successBody struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type errorBody struct {
	Success bool           `json:"success"`
	Error   errorDetail    `json:"error"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type errorDetail struct {
	Kind    errorbank.Kind `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Builder accumulates a response and writes it with Build.
type Builder struct {
	ctx    echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

// New starts a 200 response for c.
func New(c echo.Context) *Builder {
	return &Builder{ctx: c, status: http.StatusOK}
}

// WithStatus overrides the success status. Error responses take their status
// from the error kind unless a 4xx/5xx status is set explicitly.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// Build writes the envelope. The request id assigned by the RequestID
// middleware is echoed in meta.
func (b *Builder) Build() error {
	if id := b.ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		b.WithMeta("request_id", id)
	}
	if b.err == nil {
		return b.ctx.JSON(b.status, successBody{Success: true, Data: b.data, Meta: b.meta})
	}

	appErr := errorbank.From(b.err)
	status := appErr.StatusCode()
	if b.status >= http.StatusBadRequest {
		status = b.status
	}

	detail := errorDetail{Kind: appErr.Kind(), Message: appErr.Message(), Details: appErr.Details()}
	// Causes of internal errors stay in the logs.
	if appErr.Kind() == errorbank.KindInternal {
		b.ctx.Logger().Error(appErr)
		detail.Message = http.StatusText(http.StatusInternalServerError)
		detail.Details = nil
	}
	return b.ctx.JSON(status, errorBody{Error: detail, Meta: b.meta})
}
