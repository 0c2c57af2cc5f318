package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"timetracker/internal/core"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return env
}

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/1").
		Field("id", "1").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("Location") != "/api/entries/1" {
		t.Errorf("Location header not set")
	}
	env := decodeEnvelope(t, w)
	if env["success"] != true || env["id"] != "1" {
		t.Errorf("envelope = %v", env)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest},
		{"not found", NotFoundError("missing"), http.StatusNotFound},
		{"internal", InternalServerError("boom"), http.StatusInternalServerError},
		{"rate limited", TooManyRequestsError(), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("Status code = %d, want %d", w.Code, tt.status)
			}
			env := decodeEnvelope(t, w)
			if env["success"] != false || env["error"] == "" {
				t.Errorf("envelope = %v", env)
			}
		})
	}
}

func TestValidationErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.EntryInput{Title: "x", Date: "bad"}.Validate()
	ValidationErrorResponse(err).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status code = %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	fields, ok := env["fields"].([]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("fields = %v", env["fields"])
	}

	w = httptest.NewRecorder()
	ValidationErrorResponse(errors.New("plain")).Write(w)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-validation error status = %d", w.Code)
	}
}
