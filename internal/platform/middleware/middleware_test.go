package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/platform/auth"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := RequestID()(func(c echo.Context) error {
		seen = RequestIDFrom(c)
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" {
		t.Error("expected request_id to be generated")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "chw-tablet-0042")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		if rid := RequestIDFrom(c); rid != "chw-tablet-0042" {
			t.Errorf("expected chw-tablet-0042, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) != "chw-tablet-0042" {
		t.Errorf("expected inbound id echoed, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/abc/findings", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "user-7"}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(requestIDKey, "req-123")

	h := Logger(zerolog.New(&buf))(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := buf.String()
	for _, want := range []string{`"level":"info"`, `"request_id":"req-123"`, `"user_id":"user-7"`, `"status":200`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		code  int
		level string
	}{
		{http.StatusNotFound, "warn"},
		{http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		h := Logger(zerolog.New(&buf))(func(c echo.Context) error {
			return echo.NewHTTPError(tt.code, "nope")
		})
		_ = h(c)

		if !strings.Contains(buf.String(), `"level":"`+tt.level+`"`) {
			t.Errorf("status %d: expected level %s, got %s", tt.code, tt.level, buf.String())
		}
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/panic", nil), httptest.NewRecorder())

	h := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		panic("test panic")
	})
	err := h(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Error("expected panic value to be logged")
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ok", nil), httptest.NewRecorder())

	h := Recovery(zerolog.Nop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
