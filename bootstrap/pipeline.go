package bootstrap

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/adapters/metrics"
	chanhttp "github.com/artpar/modelgate/core/channel/http"
	"github.com/artpar/modelgate/core/events"
	"github.com/artpar/modelgate/core/registry"
	"github.com/artpar/modelgate/core/schema"
	"github.com/artpar/modelgate/core/service"
	"github.com/artpar/modelgate/core/storage"
	"github.com/artpar/modelgate/ports"
)

// PipelineOptions configures Derive.
type PipelineOptions struct {
	// Store receives the derived tables. Without a store nothing is synced and
	// the built models answer every operation with a configuration error.
	Store storage.Store

	Verifier ports.TokenVerifier
	Events   events.Publisher
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
}

// Result is the frozen output of the derivation pipeline.
type Result struct {
	Registry *registry.Registry

	// Models are the served models, sorted by name.
	Models []*chanhttp.Model

	Unresolved []registry.Unresolved

	// Failed maps a model name to the configuration error that kept it from being served.
	Failed map[string]error
}

// Model returns the served model with the given name.
func (r *Result) Model(name string) (*chanhttp.Model, bool) {
	key := schema.Key(name)
	for _, m := range r.Models {
		if m.Name == key {
			return m, true
		}
	}
	return nil, false
}

// Derive runs the pipeline over loaded model documents: derive every schema,
// wire every relation, sync the store, then build one router per model.
// The registry is frozen before Derive returns. A model whose routes cannot be
// built is logged and left out; storage failures abort the run.
func Derive(ctx context.Context, docs map[string]schema.Settings, opts PipelineOptions) (*Result, error) {
	logger := opts.Logger.With().Str("component", "pipeline").Logger()

	res := &Result{
		Registry: registry.New(),
		Failed:   make(map[string]error),
	}

	settings := ordered(docs, logger)

	// First pass: schemas.
	for _, s := range settings {
		d, err := res.Registry.Derive(s.Definition, s.Properties)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", s.Definition.Name, err)
		}
		logger.Debug().
			Str("model", d.Name).
			Str("table", d.Table).
			Int("fields", len(d.Fields)).
			Msg("schema derived")
	}

	// Second pass: relations, once every target can be resolved.
	for _, s := range settings {
		unresolved, err := res.Registry.Wire(s.Definition.Name, s.Relations)
		if err != nil {
			return nil, fmt.Errorf("wire %s: %w", s.Definition.Name, err)
		}
		for _, u := range unresolved {
			logger.Warn().
				Str("model", u.Source).
				Str("relation", u.Relation).
				Str("target", u.Target).
				Str("reason", u.Reason).
				Msg("relation not wired")
		}
		if opts.Metrics != nil {
			opts.Metrics.RelationsUnresolved.Add(float64(len(unresolved)))
		}
		res.Unresolved = append(res.Unresolved, unresolved...)
	}

	if opts.Store != nil {
		for _, d := range res.Registry.List() {
			if err := opts.Store.Sync(ctx, d); err != nil {
				return nil, fmt.Errorf("sync %s: %w", d.Name, err)
			}
		}
		for _, j := range res.Registry.Joins() {
			if err := opts.Store.SyncJoin(ctx, j); err != nil {
				return nil, fmt.Errorf("sync join table %s: %w", j.Table, err)
			}
		}
	}

	paths := map[string]string{chanhttp.AuthPath: "the auth endpoints"}
	for _, s := range settings {
		name := schema.Key(s.Definition.Name)
		d, _ := res.Registry.Get(name)

		m, err := chanhttp.Build(chanhttp.BuildOptions{
			Settings: s,
			Schema:   d,
			Store:    opts.Store,
			Verifier: opts.Verifier,
			Events:   opts.Events,
			Metrics:  opts.Metrics,
			Logger:   opts.Logger,
		})
		if err == nil {
			if prev, taken := paths[m.Path]; taken {
				err = &service.Error{
					Kind:  service.KindConfiguration,
					Op:    "buildRoutes",
					Model: name,
					Err:   fmt.Errorf("path %s is already served by %s", m.Path, prev),
				}
			}
		}
		if err != nil {
			logger.Error().Err(err).Str("model", name).Msg("model not served")
			res.Failed[name] = err
			continue
		}

		paths[m.Path] = name
		res.Models = append(res.Models, m)
		logger.Info().
			Str("model", name).
			Str("path", m.Path).
			Int("routes", len(m.Routes)).
			Msg("model registered")
	}

	sort.Slice(res.Models, func(i, j int) bool { return res.Models[i].Name < res.Models[j].Name })

	res.Registry.Freeze()
	if opts.Metrics != nil {
		opts.Metrics.ModelsRegistered.Set(float64(len(res.Models)))
	}
	return res, nil
}

// ordered returns the documents sorted by file key with one entry per model
// name. When two documents define the same model the later key wins.
func ordered(docs map[string]schema.Settings, logger zerolog.Logger) []schema.Settings {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byName := make(map[string]int)
	var out []schema.Settings
	for _, k := range keys {
		s := docs[k]
		name := schema.Key(s.Definition.Name)
		if i, ok := byName[name]; ok {
			logger.Warn().
				Str("model", name).
				Str("replaced", out[i].Source).
				Str("by", s.Source).
				Msg("model defined twice")
			out[i] = s
			continue
		}
		byName[name] = len(out)
		out = append(out, s)
	}
	return out
}
