package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

func TestService_NotPublished(t *testing.T) {
	s := NewService(ServiceConfig{InstanceName: "test-unpublished", Logger: zerolog.Nop()})

	if s.Spec() != nil || s.ReadDoc() != "" {
		t.Error("unpublished service should be empty")
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestService_PublishRegistersSwagInstance(t *testing.T) {
	s := NewService(ServiceConfig{InstanceName: "test-publish", Logger: zerolog.Nop()})
	spec := NewGenerator().Generate(buildModels(t, commentDoc))

	if err := s.Publish(spec); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if s.Spec() != spec {
		t.Error("Spec should return the published spec")
	}

	doc, err := swag.ReadDoc("test-publish")
	if err != nil {
		t.Fatalf("swag.ReadDoc failed: %v", err)
	}
	if !strings.Contains(doc, `"/comments/{id}"`) {
		t.Errorf("swag document missing paths: %s", doc)
	}

	// republishing replaces the document without registering again
	g := NewGenerator()
	g.SetBasePath("/v2")
	if err := s.Publish(g.Generate(buildModels(t, commentDoc))); err != nil {
		t.Fatalf("second Publish failed: %v", err)
	}
	doc, _ = swag.ReadDoc("test-publish")
	if !strings.Contains(doc, `"/v2/comments"`) {
		t.Error("swag document was not replaced")
	}
}

func TestService_PublishConflictingInstance(t *testing.T) {
	first := NewService(ServiceConfig{InstanceName: "test-conflict", Logger: zerolog.Nop()})
	second := NewService(ServiceConfig{InstanceName: "test-conflict", Logger: zerolog.Nop()})
	spec := NewGenerator().Generate(nil)

	if err := first.Publish(spec); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := second.Publish(spec); err == nil {
		t.Error("expected error for an instance name owned by another service")
	}
	if err := first.Publish(nil); err == nil {
		t.Error("expected error for nil spec")
	}
}

func TestService_ServeHTTP(t *testing.T) {
	s := NewService(ServiceConfig{InstanceName: "test-serve", Logger: zerolog.Nop()})
	if err := s.Publish(NewGenerator().Generate(buildModels(t, commentDoc))); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	r.Host = "api.example.com"
	r.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var decoded Spec
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Servers) != 1 || decoded.Servers[0].URL != "https://api.example.com" {
		t.Errorf("Servers = %+v", decoded.Servers)
	}
	if _, ok := decoded.Paths["/comments"]; !ok {
		t.Error("served document missing /comments")
	}
	if len(s.Spec().Servers) != 0 {
		t.Error("serving must not modify the published spec")
	}
}

func TestService_DefaultInstanceName(t *testing.T) {
	s := NewService(ServiceConfig{})
	if s.InstanceName() != DefaultInstanceName {
		t.Errorf("InstanceName = %s", s.InstanceName())
	}
}
