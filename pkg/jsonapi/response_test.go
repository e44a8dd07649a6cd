package jsonapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, map[string]any{"count": 2})

		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %v", w.Header().Get("Content-Type"))
		}
		if strings.TrimSpace(w.Body.String()) != `{"count":2}` {
			t.Errorf("Body = %s", w.Body.String())
		}
	})

	t.Run("nil is null", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, nil)

		if strings.TrimSpace(w.Body.String()) != "null" {
			t.Errorf("Body = %s, want null", w.Body.String())
		}
	})
}

func TestWriteError(t *testing.T) {
	t.Run("status from first error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, ErrNotFound("route"), ErrBadRequest("x"))

		if w.Header().Get("Content-Type") != ContentType {
			t.Errorf("Content-Type = %v, want %v", w.Header().Get("Content-Type"), ContentType)
		}
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
		var doc Document
		if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if len(doc.Errors) != 2 {
			t.Errorf("len(Errors) = %d, want 2", len(doc.Errors))
		}
	})

	t.Run("no errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want 500", w.Code)
		}
	})
}

func TestConvenienceWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "x") }, 400},
		{"validation", func(w http.ResponseWriter) { WriteValidationError(w, "Post", "x") }, 400},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "") }, 401},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "") }, 403},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "route") }, 404},
		{"validation, many", func(w http.ResponseWriter) { WriteValidationError(w, "Post", "a: x", "b: y") }, 400},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "") }, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			if w.Code != tt.status {
				t.Errorf("Status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
