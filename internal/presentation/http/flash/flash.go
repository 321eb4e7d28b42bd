// Package flash carries one-shot notices across a redirect in a signed cookie.
package flash

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/serviceorders/internal/config"
)

// Categories understood by the templates.
const (
	CategorySuccess = "success"
	CategoryError   = "error"
)

// Message is a single notice shown on the next rendered page.
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Success builds a success notice.
func Success(text string) Message { return Message{Category: CategorySuccess, Text: text} }

// Error builds an error notice.
func Error(text string) Message { return Message{Category: CategoryError, Text: text} }

// Errors builds one error notice per text.
func Errors(texts []string) []Message {
	out := make([]Message, 0, len(texts))
	for _, t := range texts {
		out = append(out, Error(t))
	}
	return out
}

// maxAge bounds how long a signed flash cookie is accepted.
const maxAge = 10 * time.Minute

// Module provides the flash store.
var Module = fx.Provide(New)

// Store reads and writes the flash cookie.
type Store struct {
	name   string
	codec  *securecookie.SecureCookie
	secure bool
}

// New builds a Store from the session configuration.
func New(cfg config.Config) *Store {
	codec := securecookie.New([]byte(cfg.Session.Secret), nil).
		MaxAge(int(maxAge.Seconds())).
		SetSerializer(securecookie.JSONEncoder{})
	return &Store{
		name:   cfg.Session.CookieName,
		codec:  codec,
		secure: cfg.Session.Secure,
	}
}

// Add queues messages for the next request. Calling Add again in the same
// request appends to the queued messages.
func (s *Store) Add(c echo.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	pending, _ := c.Get(s.pendingKey()).([]Message)
	pending = append(pending, msgs...)
	c.Set(s.pendingKey(), pending)

	value, err := s.codec.Encode(s.name, pending)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(value, 0))
	return nil
}

// Pop returns the queued messages and clears the cookie. Tampered or
// malformed cookies yield no messages.
func (s *Store) Pop(c echo.Context) []Message {
	ck, err := c.Cookie(s.name)
	if err != nil || ck.Value == "" {
		return nil
	}
	c.SetCookie(s.cookie("", -1))

	var msgs []Message
	if err := s.codec.Decode(s.name, ck.Value, &msgs); err != nil {
		c.Logger().Debugf("discarding flash cookie: %v", err)
		return nil
	}
	return msgs
}

func (s *Store) pendingKey() string {
	return "flash." + s.name
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
