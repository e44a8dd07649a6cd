package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/artpar/modelgate/core/schema"
)

// Route is a verb and path bound to one entity operation.
type Route struct {
	Verb       string
	Path       string // as declared, e.g. "/:id"
	Op         schema.Operation
	Permission string
}

// Authenticated reports whether the route sits behind the token gate.
func (r Route) Authenticated() bool {
	return r.Permission == schema.PermissionAuthenticated
}

func (r Route) String() string {
	return fmt.Sprintf("%s %s -> %s", r.Verb, r.Path, r.Op)
}

// DefaultRoutes returns the six routes every model serves unless overridden.
func DefaultRoutes() []Route {
	return []Route{
		{Verb: http.MethodGet, Path: "/count", Op: schema.OpCount},
		{Verb: http.MethodGet, Path: "/:id", Op: schema.OpFindByID},
		{Verb: http.MethodPut, Path: "/:id", Op: schema.OpUpdateByID},
		{Verb: http.MethodDelete, Path: "/:id", Op: schema.OpDeleteByID},
		{Verb: http.MethodGet, Path: "/", Op: schema.OpFindAll},
		{Verb: http.MethodPost, Path: "/", Op: schema.OpCreate},
	}
}

// MergeRoutes returns custom followed by defaults, keeping only the first
// route for each operation. Inputs are not modified.
func MergeRoutes(custom, defaults []Route) []Route {
	seen := make(map[schema.Operation]bool, len(custom)+len(defaults))
	out := make([]Route, 0, len(custom)+len(defaults))
	for _, list := range [][]Route{custom, defaults} {
		for _, r := range list {
			if seen[r.Op] {
				continue
			}
			seen[r.Op] = true
			out = append(out, r)
		}
	}
	return out
}

// FromSpec converts declared routes. The document keys keep their historical
// meaning: route is the path, method the operation and handler the verb.
func FromSpec(specs []schema.RouteSpec) ([]Route, error) {
	routes := make([]Route, 0, len(specs))
	for i, s := range specs {
		op, err := schema.ParseOperation(s.Method)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
		verb, err := schema.ParseVerb(s.Handler)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
		path := s.Route
		if path == "" {
			path = "/"
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		routes = append(routes, Route{Verb: verb, Path: path, Op: op, Permission: s.Permission})
	}
	return routes, nil
}

// Pattern rewrites ":name" segments to "{name}" and returns the path parameter
// names in order. The brace form is both the chi pattern and the documented path.
func Pattern(path string) (string, []string) {
	segments := strings.Split(path, "/")
	var params []string
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			params = append(params, seg[1:])
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/"), params
}

// DocPath joins a model path and a route path. A root route adds no segment.
func DocPath(modelPath, routePath string) string {
	pattern, _ := Pattern(routePath)
	if pattern == "/" || pattern == "" {
		return modelPath
	}
	return strings.TrimSuffix(modelPath, "/") + pattern
}
