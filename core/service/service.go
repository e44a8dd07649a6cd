// Package service implements the entity operations bound to generated routes:
// count, create, findAll, findById, updateById and deleteById. A Service is
// model-agnostic; it is constructed with the schema it serves and a store.
package service

import (
	"context"
	"errors"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/events"
	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/storage"
	"github.com/artpar/modelgate/core/validation"
)

// Service performs entity operations for one schema.
type Service struct {
	schema *convention.Derived
	store  storage.Store
	events events.Publisher
}

// New creates a service. A nil schema or store yields a service whose every
// operation fails with a configuration error.
func New(schema *convention.Derived, store storage.Store) *Service {
	return &Service{schema: schema, store: store}
}

// SetPublisher sets where successful writes are published. Nil disables publishing.
func (s *Service) SetPublisher(p events.Publisher) {
	s.events = p
}

func (s *Service) publish(ctx context.Context, action string, id any, data map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.Event{
		Name:   events.Name(s.schema.Name, action),
		Model:  s.schema.Name,
		Action: action,
		ID:     id,
		Data:   s.schema.Sanitize(data),
	})
}

// Schema returns the backing schema, nil when unconfigured.
func (s *Service) Schema() *convention.Derived {
	return s.schema
}

func (s *Service) check(op string) error {
	if s.schema == nil || s.store == nil {
		return &Error{Kind: KindConfiguration, Op: op, Model: "unknown", Err: ErrNoSchema}
	}
	return nil
}

// wrap classifies a store error.
func (s *Service) wrap(op string, err error) error {
	e := &Error{Kind: KindInternal, Op: op, Model: s.schema.Name, Err: err}

	var verr *validation.Error
	var qerr *storage.QueryError
	switch {
	case errors.As(err, &verr):
		e.Kind = KindValidation
		e.Details = verr.Details
	case errors.As(err, &qerr):
		e.Kind = KindValidation
		e.Details = []string{qerr.Error()}
	case storage.IsConstraintError(err):
		e.Kind = KindValidation
		e.Details = []string{err.Error()}
	case errors.Is(err, storage.ErrUnknownModel):
		e.Kind = KindConfiguration
	}
	return e
}

// ParseID converts a path id to the primary key type.
func (s *Service) ParseID(raw string) (any, error) {
	if err := s.check("parseId"); err != nil {
		return nil, err
	}
	id, err := storage.ParseID(raw, s.schema)
	if err != nil {
		return nil, s.wrap("parseId", err)
	}
	return id, nil
}

// Count returns the number of entities matching q.
func (s *Service) Count(ctx context.Context, q query.Query) (int64, error) {
	if err := s.check("count"); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx, s.schema.Name, q)
	if err != nil {
		return 0, s.wrap("count", err)
	}
	return n, nil
}

// Create stores a new entity and returns it as stored.
func (s *Service) Create(ctx context.Context, entity map[string]any) (map[string]any, error) {
	if err := s.check("create"); err != nil {
		return nil, err
	}
	created, err := s.store.Insert(ctx, s.schema.Name, entity)
	if err != nil {
		return nil, s.wrap("create", err)
	}
	s.publish(ctx, events.ActionCreated, created[s.schema.PrimaryKey().Name], created)
	return created, nil
}

// FindAll returns the entities matching q.
func (s *Service) FindAll(ctx context.Context, q query.Query) ([]map[string]any, error) {
	if err := s.check("findAll"); err != nil {
		return nil, err
	}
	rows, err := s.store.Find(ctx, s.schema.Name, q)
	if err != nil {
		return nil, s.wrap("findAll", err)
	}
	return rows, nil
}

// FindByID returns the entity with the given id, or nil when absent.
func (s *Service) FindByID(ctx context.Context, id any) (map[string]any, error) {
	if err := s.check("findById"); err != nil {
		return nil, err
	}
	row, err := s.store.FindByID(ctx, s.schema.Name, id)
	if err != nil {
		return nil, s.wrap("findById", err)
	}
	return row, nil
}

// UpdateByID merges patch into the stored entity and saves it.
// It returns nil, nil when no entity has the id.
func (s *Service) UpdateByID(ctx context.Context, id any, patch map[string]any) (map[string]any, error) {
	if err := s.check("updateById"); err != nil {
		return nil, err
	}

	current, err := s.store.FindByID(ctx, s.schema.Name, id)
	if err != nil {
		return nil, s.wrap("updateById", err)
	}
	if current == nil {
		return nil, nil
	}

	pk := s.schema.PrimaryKey().Name
	for k, v := range patch {
		if k == pk {
			continue
		}
		current[k] = v
	}

	if _, err := s.store.Save(ctx, s.schema.Name, id, current); err != nil {
		return nil, s.wrap("updateById", err)
	}

	updated, err := s.store.FindByID(ctx, s.schema.Name, id)
	if err != nil {
		return nil, s.wrap("updateById", err)
	}
	s.publish(ctx, events.ActionUpdated, id, updated)
	return updated, nil
}

// DeleteByID removes the entity with the given id and returns the affected count.
func (s *Service) DeleteByID(ctx context.Context, id any) (int64, error) {
	if err := s.check("deleteById"); err != nil {
		return 0, err
	}
	n, err := s.store.Delete(ctx, s.schema.Name, id)
	if err != nil {
		return 0, s.wrap("deleteById", err)
	}
	if n > 0 {
		s.publish(ctx, events.ActionDeleted, id, nil)
	}
	return n, nil
}
