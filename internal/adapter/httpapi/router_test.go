package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_OK(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	h := NewRouter(NewHealthHandler(ok, func() int { return 3 }, logger.Nop()))

	code, body := get(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["active_dialogs"])
}

func TestHealth_StoreDown(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("refused") })
	h := NewRouter(NewHealthHandler(down, nil, logger.Nop()))

	code, body := get(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"bot": "ok", "store": "unreachable"}, body["checks"])
}

func TestHealth_NoStore(t *testing.T) {
	code, body := get(t, NewRouter(NewHealthHandler(nil, nil, logger.Nop())))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"bot": "ok"}, body["checks"])
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(NewHealthHandler(nil, nil, logger.Nop())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
