package workbench

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/arcanum-sec/workbench/config"
	"github.com/arcanum-sec/workbench/exporter"
	"github.com/arcanum-sec/workbench/importer"
	"github.com/arcanum-sec/workbench/reference"
	"github.com/arcanum-sec/workbench/registry"
	"github.com/arcanum-sec/workbench/store"
)

// Workbench bundles the wired components of a knowledge-base instance.
// Construct one with New or FromConfig; the zero value is not usable.
type Workbench struct {
	// Registry dispatches object types to their per-category stores.
	Registry *registry.Registry

	// References reconciles external reference metadata across imports.
	References *reference.Reconciler

	// Importer ingests bundles into the store.
	Importer *importer.Engine

	// Exporter materializes collection and domain bundles.
	Exporter *exporter.Engine
}

// New wires a workbench from the given options. Without options
// everything is backed by in-memory stores and the default logger.
func New(opts ...Option) (*Workbench, error) {
	o := applyOptions(opts)

	factory := o.storeFactory
	if factory == nil {
		factory = func(string) store.Store { return store.NewMemoryStore() }
	}
	refs := o.referenceStore
	if refs == nil {
		refs = reference.NewMemoryStore()
	}

	reg := registry.New(factory)
	rec := reference.NewReconciler(refs, o.logger)

	imp := importer.NewEngine(reg, rec,
		importer.WithLogger(o.logger),
		importer.WithTracer(o.tracer),
		importer.WithInstruments(o.instruments),
	)
	exp := exporter.NewEngine(reg,
		exporter.WithLogger(o.logger),
		exporter.WithTracer(o.tracer),
		exporter.WithInstruments(o.instruments),
	)

	return &Workbench{
		Registry:   reg,
		References: rec,
		Importer:   imp,
		Exporter:   exp,
	}, nil
}

// FromConfig wires a workbench from a loaded configuration, resolving
// the configured store backend. Additional options are applied on top
// and may override the backend.
func FromConfig(cfg *config.Config, opts ...Option) (*Workbench, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backend []Option
	switch cfg.Store.Backend {
	case "", config.BackendMemory:
	case config.BackendRedis:
		ropts, err := redis.ParseURL(cfg.Store.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(ropts)
		ns := cfg.Store.Redis.Namespace
		if ns == "" {
			ns = "workbench"
		}
		backend = append(backend,
			WithStoreFactory(func(name string) store.Store {
				return store.NewRedisStore(client, ns+":"+name)
			}),
			WithReferenceStore(reference.NewRedisStore(client, ns)),
		)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	return New(append(backend, opts...)...)
}
