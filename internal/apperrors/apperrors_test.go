package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeAuthentication, http.StatusUnauthorized},
		{CodeExpiredToken, http.StatusUnauthorized},
		{CodeAuthorization, http.StatusForbidden},
		{CodeInvalidState, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		e := &AppError{Code: tt.code}
		if got := e.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	e := Validation("users", "email is required")
	if got := e.Error(); got != "[users:VALIDATION_FAILED] email is required" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Internal("users", errors.New("connection refused"))
	if got := wrapped.Error(); !strings.Contains(got, "connection refused") {
		t.Errorf("Error() = %q, want wrapped cause included", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("driver: bad connection")
	e := Internal("users", cause)
	if !errors.Is(e, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestAsAndIsCode(t *testing.T) {
	e := NotFound("resources", "resource not found")
	wrapped := fmt.Errorf("handler: %w", e)

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("As should unwrap through fmt.Errorf")
	}
	if appErr.Code != CodeNotFound {
		t.Errorf("Code = %s, want %s", appErr.Code, CodeNotFound)
	}

	if !IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode(wrapped, CodeNotFound) = false")
	}
	if IsCode(wrapped, CodeConflict) {
		t.Error("IsCode(wrapped, CodeConflict) = true")
	}
	if IsCode(errors.New("plain"), CodeNotFound) {
		t.Error("IsCode(plain error) = true")
	}
}

// ---------------------------------------------------------------------------
// Respond
// ---------------------------------------------------------------------------

func respondWith(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Respond(c, err)
	return w
}

func TestRespond(t *testing.T) {
	t.Run("taxonomy error maps to its status and message", func(t *testing.T) {
		w := respondWith(Conflict("users", "email already taken"))
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
		if body := w.Body.String(); body != `{"error":"email already taken"}` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("internal error hides the cause", func(t *testing.T) {
		w := respondWith(Internal("users", errors.New("pq: password authentication failed")))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
		if body := w.Body.String(); strings.Contains(body, "pq:") {
			t.Errorf("body leaks driver details: %s", body)
		}
	})

	t.Run("plain error becomes a generic 500", func(t *testing.T) {
		w := respondWith(errors.New("something unexpected"))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
		if body := w.Body.String(); strings.Contains(body, "something unexpected") {
			t.Errorf("body leaks internal error: %s", body)
		}
	})
}
