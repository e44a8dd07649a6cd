// Package http generates the REST surface of a model: it merges declared
// routes with the defaults, gates authenticated routes and binds every route
// to the entity-access service.
package http

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/adapters/auth"
	"github.com/artpar/modelgate/adapters/metrics"
	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/events"
	"github.com/artpar/modelgate/core/schema"
	"github.com/artpar/modelgate/core/service"
	"github.com/artpar/modelgate/core/storage"
	"github.com/artpar/modelgate/ports"
)

// Bound is a route as it was registered on the model router.
type Bound struct {
	Route

	// Pattern is the chi pattern relative to the model path, e.g. "/{id}".
	Pattern string

	// Param is the path parameter carrying the entity id, empty when none.
	Param string
}

// Model is a configured model with its router. It is built once at startup
// and only read afterwards.
type Model struct {
	Name     string
	Path     string // "/" + plural
	Router   chi.Router
	Routes   []Bound
	Schema   *convention.Derived
	Settings schema.Settings
	Service  *service.Service
}

// BuildOptions holds everything Build needs for one model.
type BuildOptions struct {
	Settings schema.Settings
	Schema   *convention.Derived
	Store    storage.Store

	// Verifier backs routes with permission "authenticated".
	Verifier ports.TokenVerifier

	// Events receives the entity changes of the model's service when set.
	Events events.Publisher

	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

var paramSegment = regexp.MustCompile(`\{[^}]*\}`)

// Build merges the declared routes with DefaultRoutes and binds them.
// Configuration problems are returned as service errors of kind configuration;
// the model is then not served.
func Build(opts BuildOptions) (*Model, error) {
	name := schema.Key(opts.Settings.Definition.Name)
	fail := func(err error) (*Model, error) {
		return nil, &service.Error{Kind: service.KindConfiguration, Op: "buildRoutes", Model: name, Err: err}
	}

	custom, err := FromSpec(opts.Settings.Routes)
	if err != nil {
		return fail(err)
	}

	svc := service.New(opts.Schema, opts.Store)
	if opts.Events != nil {
		svc.SetPublisher(opts.Events)
	}
	c := &controller{
		svc:    svc,
		model:  name,
		logger: opts.Logger.With().Str("model", name).Logger(),
	}

	m := &Model{
		Name:     name,
		Path:     "/" + opts.Settings.Definition.PluralName(),
		Router:   chi.NewRouter(),
		Schema:   opts.Schema,
		Settings: opts.Settings,
		Service:  svc,
	}

	bound := make(map[string]bool)
	shapes := make(map[string]string)

	for _, rt := range MergeRoutes(custom, DefaultRoutes()) {
		pattern, params := Pattern(rt.Path)
		if len(params) > 1 {
			return fail(fmt.Errorf("%s: at most one path parameter is supported", rt))
		}
		if rt.Op.TakesID() && len(params) == 0 {
			return fail(fmt.Errorf("%s: operation %s needs an id path parameter", rt, rt.Op))
		}

		key := rt.Verb + " " + pattern
		if bound[key] {
			return fail(fmt.Errorf("%s: %s is bound twice", rt, key))
		}
		bound[key] = true

		b := Bound{Route: rt, Pattern: pattern}
		if len(params) == 1 {
			b.Param = params[0]
			shape := paramSegment.ReplaceAllString(pattern, "{}")
			if prev, ok := shapes[shape]; ok && prev != b.Param {
				return fail(fmt.Errorf("%s: parameter %q conflicts with %q on the same path", rt, b.Param, prev))
			}
			shapes[shape] = b.Param
		}

		h := c.handler(rt.Op, b.Param)
		if rt.Authenticated() {
			if opts.Verifier == nil {
				return fail(fmt.Errorf("%s: authenticated route without a token verifier", rt))
			}
			h = auth.Gate(opts.Verifier)(h)
		}
		if opts.Metrics != nil {
			h = opts.Metrics.Instrument(name, rt.Op.String())(h)
		}

		m.Router.Method(rt.Verb, pattern, h)
		m.Routes = append(m.Routes, b)
	}

	return m, nil
}

// Handler returns the model router.
func (m *Model) Handler() http.Handler {
	return m.Router
}
