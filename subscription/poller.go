package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcanum-sec/workbench/importer"
)

// DefaultPollInterval is the poll cadence when none is configured.
const DefaultPollInterval = 30 * time.Minute

// Poller drives the subscription cycle: fetch index, detect staleness,
// import. Every failure inside one subscription's cycle is recoverable;
// it is logged and the subscription is retried on the next tick.
type Poller struct {
	store    Store
	fetcher  Fetcher
	importer *importer.Engine
	interval time.Duration
	logger   *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the poll cadence.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) { p.interval = interval }
}

// WithLogger sets the poller's structured logger.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller builds a poller over a subscription store, a fetcher, and
// the import engine.
func NewPoller(store Store, fetcher Fetcher, imp *importer.Engine, opts ...PollerOption) *Poller {
	p := &Poller{
		store:    store,
		fetcher:  fetcher,
		importer: imp,
		interval: DefaultPollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until the context is cancelled. The first cycle runs
// immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes one poll cycle over every subscription. Per-
// subscription failures are logged and do not stop the cycle.
func (p *Poller) RunOnce(ctx context.Context) {
	subs, err := p.store.List(ctx)
	if err != nil {
		p.logger.Error("list subscriptions failed", "error", err)
		return
	}
	for _, sub := range subs {
		if err := p.poll(ctx, sub); err != nil {
			p.logger.Warn("subscription cycle failed",
				"subscription", sub.ID,
				"collection", sub.CollectionID,
				"error", err)
		}
	}
}

// poll checks one subscription and imports when the remote collection
// advanced past the locally recorded timestamp.
func (p *Poller) poll(ctx context.Context, sub *Subscription) error {
	index, err := p.fetcher.FetchIndex(ctx, sub.IndexURL)
	if err != nil {
		return err
	}
	entry := index.Collection(sub.CollectionID)
	if entry == nil {
		return fmt.Errorf("collection %s not present in index %s", sub.CollectionID, sub.IndexURL)
	}
	latest := entry.Latest()
	if latest == nil {
		return fmt.Errorf("collection %s advertises no versions", sub.CollectionID)
	}
	if !sub.LastRetrieved.IsZero() && !latest.Modified.Time.After(sub.LastRetrieved) {
		p.logger.Debug("subscription up to date",
			"subscription", sub.ID, "collection", sub.CollectionID)
		return nil
	}

	bundle, err := p.fetcher.FetchBundle(ctx, latest.URL)
	if err != nil {
		return err
	}
	collection, err := bundle.Collection()
	if err != nil {
		return err
	}
	if _, err := p.importer.ImportBundle(ctx, collection, bundle, importer.Options{}); err != nil {
		return fmt.Errorf("import collection %s: %w", sub.CollectionID, err)
	}
	if err := p.store.SetLastRetrieved(ctx, sub.ID, latest.Modified.Time); err != nil {
		return fmt.Errorf("record retrieval of %s: %w", sub.CollectionID, err)
	}
	p.logger.Info("imported subscribed collection",
		"subscription", sub.ID,
		"collection", sub.CollectionID,
		"version", latest.Modified)
	return nil
}
