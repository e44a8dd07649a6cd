// Package openapi generates OpenAPI 3.0 specifications from registered models.
// Paths come from the routes each model actually bound and entity schemas from
// the derived column descriptors, so the document never describes a route that
// is not served.
package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	chanhttp "github.com/artpar/modelgate/core/channel/http"
	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/schema"
)

// Spec represents an OpenAPI 3.0 specification.
type Spec struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
	Tags       []Tag               `json:"tags,omitempty"`
}

// Info provides API metadata.
type Info struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version"`
	Contact     *Contact `json:"contact,omitempty"`
	License     *License `json:"license,omitempty"`
}

// Contact provides contact information.
type Contact struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// License provides license information.
type License struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Server represents a server URL.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem contains operations for a path.
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation represents an API operation.
type Operation struct {
	Tags        []string              `json:"tags,omitempty"`
	Summary     string                `json:"summary,omitempty"`
	Description string                `json:"description,omitempty"`
	OperationID string                `json:"operationId,omitempty"`
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]Response   `json:"responses"`
	Security    []SecurityRequirement `json:"security,omitempty"`
}

// Parameter represents an API parameter.
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"` // path, query, header
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
}

// RequestBody represents a request body.
type RequestBody struct {
	Description string               `json:"description,omitempty"`
	Required    bool                 `json:"required,omitempty"`
	Content     map[string]MediaType `json:"content"`
}

// Response represents an API response.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType represents a media type.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Schema represents a JSON Schema.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	AllOf       []*Schema          `json:"allOf,omitempty"`
	MaxLength   *int               `json:"maxLength,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	ReadOnly    bool               `json:"readOnly,omitempty"`
}

// Components contains reusable schemas.
type Components struct {
	Schemas         map[string]*Schema        `json:"schemas,omitempty"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
}

// SecurityScheme defines an authentication method.
type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
	Description  string `json:"description,omitempty"`
}

// SecurityRequirement specifies required security schemes.
type SecurityRequirement map[string][]string

// Tag provides metadata for a group of operations.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

const (
	bearerAuth = "bearerAuth"
	errorRef   = "#/components/schemas/Error"
	jsonMedia  = "application/json"
)

// Generator generates OpenAPI specs from built models.
type Generator struct {
	info     Info
	servers  []Server
	basePath string
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator() *Generator {
	return &Generator{
		info: Info{
			Title:       "modelgate API",
			Version:     "1.0.0",
			Description: "Generated from model definitions",
		},
	}
}

// SetInfo sets the API info.
func (g *Generator) SetInfo(info Info) {
	g.info = info
}

// SetBasePath sets the prefix the model routers are mounted under.
func (g *Generator) SetBasePath(base string) {
	g.basePath = strings.TrimSuffix(base, "/")
}

// AddServer adds a server URL.
func (g *Generator) AddServer(url, description string) {
	g.servers = append(g.servers, Server{URL: url, Description: description})
}

// Generate creates the OpenAPI specification for the given models.
// It only reads the models.
func (g *Generator) Generate(models []*chanhttp.Model) *Spec {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info:    g.info,
		Servers: g.servers,
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas: map[string]*Schema{"Error": errorSchema()},
		},
	}

	sorted := make([]*chanhttp.Model, 0, len(models))
	for _, m := range models {
		if m != nil && m.Schema != nil {
			sorted = append(sorted, m)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	known := make(map[string]bool, len(sorted))
	for _, m := range sorted {
		known[m.Schema.Name] = true
	}

	secured := false
	for _, m := range sorted {
		spec.Tags = append(spec.Tags, Tag{Name: m.Name, Description: m.Schema.Description})
		spec.Components.Schemas[m.Schema.Name] = entitySchema(m.Schema, known)

		for _, b := range m.Routes {
			path := g.basePath + chanhttp.DocPath(m.Path, b.Path)
			item := spec.Paths[path]
			setOperation(&item, b.Verb, g.operation(m, b))
			spec.Paths[path] = item
			if b.Authenticated() {
				secured = true
			}
		}
	}

	if secured {
		spec.Components.SecuritySchemes = map[string]SecurityScheme{
			bearerAuth: {
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
				Description:  "Token sent as Authorization: Bearer <token> or the accessToken cookie",
			},
		}
	}
	return spec
}

// operation documents one bound route.
func (g *Generator) operation(m *chanhttp.Model, b chanhttp.Bound) *Operation {
	ref := schemaRef(m.Schema.Name)
	op := &Operation{
		Tags:        []string{m.Name},
		Summary:     summary(b.Op, m.Schema),
		OperationID: b.Op.String() + m.Schema.Name,
		Responses: map[string]Response{
			"200": {Description: "Successful response", Content: jsonContent(responseSchema(b.Op, ref, m.Schema))},
			"500": {Description: "Internal server error", Content: jsonContent(&Schema{Ref: errorRef})},
		},
	}

	if b.Param != "" {
		pk := m.Schema.PrimaryKey()
		typ, format := pk.Kind.JSONType()
		op.Parameters = append(op.Parameters, Parameter{
			Name:        b.Param,
			In:          "path",
			Required:    true,
			Description: fmt.Sprintf("%s %s", m.Schema.Name, pk.Name),
			Schema:      &Schema{Type: typ, Format: format},
		})
	}
	if b.Op.TakesFilter() {
		op.Parameters = append(op.Parameters, filterParameters()...)
	}
	if b.Op.TakesBody() {
		op.RequestBody = &RequestBody{
			Description: fmt.Sprintf("%s attributes", m.Schema.Name),
			Required:    true,
			Content:     jsonContent(&Schema{Ref: ref}),
		}
	}
	if b.Param != "" || b.Op.TakesFilter() || b.Op.TakesBody() {
		op.Responses["400"] = Response{Description: "Invalid request", Content: jsonContent(&Schema{Ref: errorRef})}
	}
	if b.Authenticated() {
		op.Responses["401"] = Response{Description: "No token provided", Content: jsonContent(&Schema{Ref: errorRef})}
		op.Responses["403"] = Response{Description: "Invalid token", Content: jsonContent(&Schema{Ref: errorRef})}
		op.Security = []SecurityRequirement{{bearerAuth: {}}}
	}
	return op
}

func setOperation(item *PathItem, verb string, op *Operation) {
	switch verb {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodDelete:
		item.Delete = op
	}
}

func summary(op schema.Operation, d *convention.Derived) string {
	switch op {
	case schema.OpCount:
		return fmt.Sprintf("Count %s", d.Plural)
	case schema.OpFindAll:
		return fmt.Sprintf("List %s", d.Plural)
	case schema.OpFindByID:
		return fmt.Sprintf("Get %s by id", d.Name)
	case schema.OpUpdateByID:
		return fmt.Sprintf("Update %s by id", d.Name)
	case schema.OpDeleteByID:
		return fmt.Sprintf("Delete %s by id", d.Name)
	case schema.OpCreate:
		return fmt.Sprintf("Create %s", d.Name)
	}
	return op.String()
}

func responseSchema(op schema.Operation, ref string, d *convention.Derived) *Schema {
	switch op {
	case schema.OpCount:
		return &Schema{
			Type:       "object",
			Properties: map[string]*Schema{"count": {Type: "integer"}},
		}
	case schema.OpFindAll:
		return &Schema{Type: "array", Items: &Schema{Ref: ref}}
	case schema.OpDeleteByID:
		typ, format := d.PrimaryKey().Kind.JSONType()
		return &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"count": {Type: "integer", Description: "Number of deleted records"},
				"id":    {Type: typ, Format: format},
			},
		}
	case schema.OpFindByID, schema.OpUpdateByID:
		// null when no entity has the id
		return &Schema{AllOf: []*Schema{{Ref: ref}}, Nullable: true}
	}
	return &Schema{Ref: ref}
}

// entitySchema describes a stored entity as served: hidden columns are left
// out and every association known to the document becomes a read-only
// reference. Request bodies carry columns only.
func entitySchema(d *convention.Derived, known map[string]bool) *Schema {
	s := &Schema{
		Type:        "object",
		Description: d.Description,
		Properties:  make(map[string]*Schema),
	}
	for _, c := range d.Columns() {
		if c.Hidden {
			continue
		}
		typ, format := c.Kind.JSONType()
		prop := &Schema{Type: typ, Format: format, Nullable: c.Nullable}
		if c.Length > 0 && typ == "string" && format == "" {
			n := c.Length
			prop.MaxLength = &n
		}
		if c.PrimaryKey && c.AutoIncrement {
			prop.ReadOnly = true
		}
		s.Properties[c.Name] = prop
		if !c.Nullable && !c.AutoIncrement {
			s.Required = append(s.Required, c.Name)
		}
	}
	for _, a := range d.Associations {
		if !known[a.Target] {
			continue
		}
		ref := &Schema{Ref: schemaRef(a.Target)}
		if a.Kind.Plural() {
			s.Properties[a.As] = &Schema{Type: "array", Items: ref, ReadOnly: true}
		} else {
			s.Properties[a.As] = &Schema{AllOf: []*Schema{ref}, ReadOnly: true}
		}
	}
	sort.Strings(s.Required)
	return s
}

func filterParameters() []Parameter {
	params := query.Params()
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		s := &Schema{Type: p.Type, Format: p.Format}
		if p.Array {
			s = &Schema{Type: "array", Items: s}
		}
		out = append(out, Parameter{
			Name:        p.Name,
			In:          "query",
			Description: p.Desc,
			Schema:      s,
		})
	}
	return out
}

func errorSchema() *Schema {
	return &Schema{
		Type:        "object",
		Description: "JSON:API error document",
		Properties: map[string]*Schema{
			"errors": {
				Type: "array",
				Items: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"status": {Type: "string"},
						"code":   {Type: "string"},
						"title":  {Type: "string"},
						"detail": {Type: "string"},
					},
				},
			},
		},
	}
}

func schemaRef(name string) string {
	return "#/components/schemas/" + name
}

func jsonContent(s *Schema) map[string]MediaType {
	return map[string]MediaType{jsonMedia: {Schema: s}}
}

// ToJSON converts the spec to indented JSON.
func (s *Spec) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ToJSONCompact converts the spec to compact JSON.
func (s *Spec) ToJSONCompact() ([]byte, error) {
	return json.Marshal(s)
}
