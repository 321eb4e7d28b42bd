package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/serviceorders/internal/config"
)

func newStore(secret string) *Store {
	return New(config.Config{Session: config.Session{CookieName: "flash", Secret: secret}})
}

func TestAddThenPop(t *testing.T) {
	e := echo.New()
	store := newStore("secret")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, store.Add(c, Success("Order created successfully.")))
	require.NoError(t, store.Add(c, Errors([]string{"a", "b"})...))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	last := cookies[len(cookies)-1]
	require.True(t, last.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(last)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)

	msgs := store.Pop(c)
	require.Equal(t, []Message{
		{Category: CategorySuccess, Text: "Order created successfully."},
		{Category: CategoryError, Text: "a"},
		{Category: CategoryError, Text: "b"},
	}, msgs)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestPopRejectsForeignSignature(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, newStore("other").Add(c, Success("forged")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	c = e.NewContext(req, httptest.NewRecorder())

	require.Nil(t, newStore("secret").Pop(c))
}

func TestPopWithoutCookie(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Nil(t, newStore("secret").Pop(c))
}

func TestPopRejectsTamperedValue(t *testing.T) {
	e := echo.New()
	store := newStore("secret")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, store.Add(c, Success("Order deleted successfully.")))

	ck := rec.Result().Cookies()[0]
	ck.Value = "A" + ck.Value[1:]
	if ck.Value == rec.Result().Cookies()[0].Value {
		ck.Value = "B" + ck.Value[1:]
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	c = e.NewContext(req, httptest.NewRecorder())

	require.Nil(t, store.Pop(c))
}
