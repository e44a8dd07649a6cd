package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// DefaultInstanceName is the swag instance the generated document is registered under.
const DefaultInstanceName = "modelgate"

// Service holds the published OpenAPI document. It serves it as JSON and is
// registered as a swag instance so the Swagger UI reads the same document.
type Service struct {
	name   string
	logger zerolog.Logger

	cache atomic.Pointer[cachedSpec]
	mu    sync.Mutex // serializes Publish
}

// cachedSpec holds a published spec with its encoded form.
type cachedSpec struct {
	spec        *Spec
	data        []byte
	generatedAt time.Time
}

// ServiceConfig contains configuration for the OpenAPI service.
type ServiceConfig struct {
	InstanceName string
	Logger       zerolog.Logger
}

// NewService creates a new OpenAPI service.
func NewService(cfg ServiceConfig) *Service {
	name := cfg.InstanceName
	if name == "" {
		name = DefaultInstanceName
	}
	return &Service{name: name, logger: cfg.Logger}
}

// InstanceName returns the swag instance name.
func (s *Service) InstanceName() string {
	return s.name
}

// Publish encodes spec, makes it the served document and registers the
// service with swag on first use.
func (s *Service) Publish(spec *Spec) error {
	if spec == nil {
		return fmt.Errorf("openapi: nil spec")
	}
	data, err := spec.ToJSON()
	if err != nil {
		return fmt.Errorf("openapi: encode spec: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch existing := swag.GetSwagger(s.name); {
	case existing == nil:
		swag.Register(s.name, s)
	case existing != swag.Swagger(s):
		return fmt.Errorf("openapi: swag instance %q already registered", s.name)
	}

	s.cache.Store(&cachedSpec{spec: spec, data: data, generatedAt: time.Now()})
	s.logger.Debug().
		Int("paths", len(spec.Paths)).
		Int("schemas", len(spec.Components.Schemas)).
		Msg("openapi document published")
	return nil
}

// Spec returns the published spec, nil before the first Publish.
func (s *Service) Spec() *Spec {
	if c := s.cache.Load(); c != nil {
		return c.spec
	}
	return nil
}

// ReadDoc implements swag.Swagger.
func (s *Service) ReadDoc() string {
	if c := s.cache.Load(); c != nil {
		return string(c.data)
	}
	return ""
}

// ServeHTTP writes the document with the request's origin as server URL.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := s.cache.Load()
	if c == nil {
		http.Error(w, "openapi document not generated", http.StatusServiceUnavailable)
		return
	}

	data := c.data
	if len(c.spec.Servers) == 0 {
		if cloned, err := s.cloneSpecWithServer(c.spec, requestOrigin(r)); err == nil {
			data = cloned
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// cloneSpecWithServer encodes a copy of the spec listing baseURL as its server.
func (s *Service) cloneSpecWithServer(spec *Spec, baseURL string) ([]byte, error) {
	cloned := *spec
	cloned.Servers = []Server{{URL: baseURL, Description: "Current server"}}
	data, err := json.MarshalIndent(&cloned, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode openapi document")
		return nil, err
	}
	return data, nil
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
