package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/schema"
	"github.com/artpar/modelgate/core/service"
	"github.com/artpar/modelgate/pkg/jsonapi"
)

// maxBodyBytes bounds entity request bodies.
const maxBodyBytes = 1 << 20

type controller struct {
	svc    *service.Service
	model  string
	logger zerolog.Logger
}

// handler maps each operation to its handler.
func (c *controller) handler(op schema.Operation, param string) http.Handler {
	switch op {
	case schema.OpCount:
		return http.HandlerFunc(c.count)
	case schema.OpFindAll:
		return http.HandlerFunc(c.findAll)
	case schema.OpCreate:
		return http.HandlerFunc(c.create)
	case schema.OpFindByID:
		return c.withID(param, c.findByID)
	case schema.OpUpdateByID:
		return c.withID(param, c.updateByID)
	case schema.OpDeleteByID:
		return c.withID(param, c.deleteByID)
	}
	panic(fmt.Sprintf("no handler for operation %s", op))
}

type idHandler func(w http.ResponseWriter, r *http.Request, id any)

func (c *controller) withID(param string, next idHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := c.svc.ParseID(chi.URLParam(r, param))
		if err != nil {
			c.writeError(w, err)
			return
		}
		next(w, r, id)
	})
}

func (c *controller) count(w http.ResponseWriter, r *http.Request) {
	q, ok := c.parseQuery(w, r)
	if !ok {
		return
	}
	n, err := c.svc.Count(r.Context(), q)
	if err != nil {
		c.writeError(w, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (c *controller) findAll(w http.ResponseWriter, r *http.Request) {
	q, ok := c.parseQuery(w, r)
	if !ok {
		return
	}
	rows, err := c.svc.FindAll(r.Context(), q)
	if err != nil {
		c.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, c.sanitize(row))
	}
	jsonapi.WriteJSON(w, http.StatusOK, out)
}

func (c *controller) create(w http.ResponseWriter, r *http.Request) {
	body, ok := c.decodeBody(w, r)
	if !ok {
		return
	}
	created, err := c.svc.Create(r.Context(), body)
	if err != nil {
		c.writeError(w, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, c.sanitize(created))
}

func (c *controller) findByID(w http.ResponseWriter, r *http.Request, id any) {
	row, err := c.svc.FindByID(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, c.sanitize(row))
}

func (c *controller) updateByID(w http.ResponseWriter, r *http.Request, id any) {
	body, ok := c.decodeBody(w, r)
	if !ok {
		return
	}
	updated, err := c.svc.UpdateByID(r.Context(), id, body)
	if err != nil {
		c.writeError(w, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, c.sanitize(updated))
}

func (c *controller) deleteByID(w http.ResponseWriter, r *http.Request, id any) {
	n, err := c.svc.DeleteByID(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, map[string]any{"count": n, "id": id})
}

func (c *controller) sanitize(row map[string]any) map[string]any {
	if s := c.svc.Schema(); s != nil {
		return s.Sanitize(row)
	}
	return row
}

func (c *controller) parseQuery(w http.ResponseWriter, r *http.Request) (query.Query, bool) {
	q, err := query.Parse(r.URL.Query())
	if err != nil {
		b := jsonapi.NewError(http.StatusBadRequest, "validation_error", "Validation Failed").
			Detail(err.Error()).
			Meta("model", c.model)
		if param, _, ok := strings.Cut(err.Error(), ": "); ok {
			b.Parameter(param)
		}
		jsonapi.WriteError(w, b.Build())
		return query.Query{}, false
	}
	return q, true
}

// decodeBody reads a JSON object. Numbers are kept as json.Number so large
// integers survive.
func (c *controller) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			jsonapi.WriteBadRequest(w, "request body must be a JSON object")
		} else {
			jsonapi.WriteBadRequest(w, fmt.Sprintf("invalid JSON: %v", err))
		}
		return nil, false
	}
	if body == nil {
		jsonapi.WriteBadRequest(w, "request body must be a JSON object")
		return nil, false
	}
	return body, true
}

// writeError translates service error kinds to HTTP responses.
func (c *controller) writeError(w http.ResponseWriter, err error) {
	detail := err.Error()
	details := []string{detail}
	var se *service.Error
	if errors.As(err, &se) && len(se.Details) > 0 {
		details = se.Details
		detail = strings.Join(se.Details, "; ")
	}

	switch service.KindOf(err) {
	case service.KindValidation:
		jsonapi.WriteValidationError(w, c.model, details...)
	case service.KindNotFound:
		jsonapi.WriteNotFound(w, c.model)
	case service.KindAuthentication:
		jsonapi.WriteUnauthorized(w, detail)
	case service.KindConfiguration:
		c.logger.Error().Err(err).Msg("model is not configured")
		jsonapi.WriteError(w, jsonapi.ErrConfiguration(detail))
	default:
		c.logger.Error().Err(err).Msg("request failed")
		jsonapi.WriteInternalError(w, "")
	}
}
