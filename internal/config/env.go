package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// env reads typed values from the process environment. Malformed values are
// collected instead of silently replaced by defaults.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func newEnv() *env {
	return &env{lookup: os.LookupEnv}
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *env) num(key string, def int) int {
	return parseWith(e, key, def, strconv.Atoi)
}

func (e *env) flag(key string, def bool) bool {
	return parseWith(e, key, def, strconv.ParseBool)
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	return parseWith(e, key, def, time.ParseDuration)
}

func (e *env) ratio(key string, def float64) float64 {
	return parseWith(e, key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// list splits a comma separated value, dropping blank items. A value with no
// items falls back to def.
func (e *env) list(key string, def []string) []string {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return def
	}
	return items
}

func (e *env) err() error {
	return errors.Join(e.errs...)
}

func parseWith[T any](e *env, key string, def T, parse func(string) (T, error)) T {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid value %q", key, raw))
		return def
	}
	return v
}
