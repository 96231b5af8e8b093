// Package subscription keeps the workbench tracking remote collections.
//
// A subscription names a collection within a remote collection index.
// The poller periodically fetches the index, compares the newest
// advertised collection version against the locally recorded
// last-retrieved timestamp, and on staleness retrieves the collection
// bundle and hands it to the import engine with no force flags. Any
// import failure is a recoverable per-cycle condition: it is logged and
// the subscription is retried on the next tick.
//
// Subscription records live in etcd so multiple workbench instances
// share one view of what is subscribed and how fresh it is.
package subscription

import (
	"context"
	"errors"
	"time"
)

// Subscription is one tracked remote collection.
type Subscription struct {
	// ID identifies the subscription record.
	ID string `json:"id"`

	// CollectionID is the logical id of the collection inside the
	// remote index.
	CollectionID string `json:"collection_id"`

	// IndexURL locates the remote collection index document.
	IndexURL string `json:"index_url"`

	// LastRetrieved is the modified timestamp of the newest collection
	// version successfully imported. Zero until the first import.
	LastRetrieved time.Time `json:"last_retrieved,omitzero"`

	// CreatedAt is when the subscription was registered.
	CreatedAt time.Time `json:"created_at"`
}

// Sentinel errors for subscription stores.
var (
	// ErrNotFound indicates no subscription exists with the given id.
	ErrNotFound = errors.New("subscription not found")

	// ErrConflict indicates a concurrent update won the compare-and-
	// swap; the caller should re-read and retry on the next cycle.
	ErrConflict = errors.New("subscription modified concurrently")

	// ErrMissingID indicates a subscription without an id was passed
	// to Put.
	ErrMissingID = errors.New("subscription has no id")
)

// Store is the subscription record store contract.
type Store interface {
	// Put creates or replaces a subscription record.
	Put(ctx context.Context, sub *Subscription) error

	// Get returns one subscription, or ErrNotFound.
	Get(ctx context.Context, id string) (*Subscription, error)

	// List returns every subscription.
	List(ctx context.Context) ([]*Subscription, error)

	// Delete removes a subscription. Deleting an absent id is not an
	// error.
	Delete(ctx context.Context, id string) error

	// SetLastRetrieved advances a subscription's last-retrieved
	// timestamp with compare-and-swap semantics: the update fails with
	// ErrConflict when the record changed since it was read.
	SetLastRetrieved(ctx context.Context, id string, retrieved time.Time) error
}
