// Package view renders the HTML pages of the order screens.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/serviceorders/internal/dto"
	"github.com/Additional-Code/serviceorders/internal/entity"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/flash"
)

// Page names accepted by Render.
const (
	PageIndex = "index"
	PageForm  = "form"
)

// Form modes.
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Module provides the renderer as Echo's template engine.
var Module = fx.Provide(
	fx.Annotate(New, fx.As(new(echo.Renderer))),
)

// IndexPage is the data of the order list.
type IndexPage struct {
	Orders  []dto.OrderResponse
	Query   string
	Flashes []flash.Message
}

// FormPage is the data of the create and edit forms.
type FormPage struct {
	Mode     string
	OrderID  int64
	Order    dto.OrderInput
	Statuses []entity.Status
	Flashes  []flash.Message
}

// NewFormPage prepares a form with the allowed status options.
func NewFormPage(mode string, id int64, order dto.OrderInput, flashes []flash.Message) FormPage {
	return FormPage{
		Mode:     mode,
		OrderID:  id,
		Order:    order,
		Statuses: entity.Statuses(),
		Flashes:  flashes,
	}
}

// Renderer executes one template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	pages := make(map[string]*template.Template, 2)
	for _, name := range []string{PageIndex, PageForm} {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}
