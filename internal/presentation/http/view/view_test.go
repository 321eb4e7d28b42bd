package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/serviceorders/internal/dto"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/flash"
)

func TestRenderIndex(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, PageIndex, IndexPage{
		Orders: []dto.OrderResponse{{
			ID:          7,
			Reference:   "SO-7",
			Company:     "<Acme>",
			Description: "Repair",
			Status:      "Pendiente",
			CreatedAt:   time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		}},
		Query:   "acme",
		Flashes: []flash.Message{flash.Success("Order created successfully.")},
	}, nil)
	require.NoError(t, err)

	html := buf.String()
	require.Contains(t, html, "SO-7")
	require.Contains(t, html, "&lt;Acme&gt;")
	require.Contains(t, html, "2024-05-01 10:30:00")
	require.Contains(t, html, `/orders/7/edit`)
	require.Contains(t, html, "flash-success")
	require.Contains(t, html, `value="acme"`)
}

func TestRenderFormSelectsStatus(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	page := NewFormPage(ModeEdit, 3, dto.OrderInput{Reference: "SO-3", Status: "Completada"}, flash.Errors([]string{"Company is required."}))
	require.NoError(t, r.Render(&buf, PageForm, page, nil))

	html := buf.String()
	require.Contains(t, html, `action="/orders/3/edit"`)
	require.Contains(t, html, `<option value="Completada" selected>`)
	require.NotContains(t, html, `<option value="Pendiente" selected>`)
	require.Contains(t, html, "Company is required.")
	require.Contains(t, html, "<title>Edit order</title>")
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.Error(t, r.Render(&bytes.Buffer{}, "missing", nil, nil))
}
