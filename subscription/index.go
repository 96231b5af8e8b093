package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arcanum-sec/workbench/stix"
)

// CollectionIndex is the remote manifest document a subscription polls:
// a catalog of collections, each advertising its published versions.
type CollectionIndex struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Modified    stix.Timestamp    `json:"modified,omitzero"`
	Collections []IndexCollection `json:"collections"`
}

// IndexCollection is one collection entry of an index.
type IndexCollection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Versions []IndexVersion `json:"versions"`
}

// IndexVersion is one published version of a collection: its version
// marker and the url of the bundle carrying it.
type IndexVersion struct {
	Modified stix.Timestamp `json:"modified"`
	URL      string         `json:"url"`
}

// Collection returns the index entry for a collection id, or nil.
func (i *CollectionIndex) Collection(id string) *IndexCollection {
	for idx := range i.Collections {
		if i.Collections[idx].ID == id {
			return &i.Collections[idx]
		}
	}
	return nil
}

// Latest returns the newest advertised version, or nil when none are
// published.
func (c *IndexCollection) Latest() *IndexVersion {
	var latest *IndexVersion
	for idx := range c.Versions {
		if latest == nil || c.Versions[idx].Modified.After(latest.Modified) {
			latest = &c.Versions[idx]
		}
	}
	return latest
}

// Fetcher retrieves remote index and bundle documents. The network
// layer is deliberately thin: the poller only needs documents or an
// error to interpret.
type Fetcher interface {
	// FetchIndex retrieves and decodes a collection index.
	FetchIndex(ctx context.Context, url string) (*CollectionIndex, error)

	// FetchBundle retrieves and decodes a collection bundle.
	FetchBundle(ctx context.Context, url string) (*stix.Bundle, error)
}

// HTTPFetcher is the production Fetcher over plain HTTP(S).
type HTTPFetcher struct {
	// Client is the HTTP client to use. Nil means http.DefaultClient.
	Client *http.Client
}

// FetchIndex implements Fetcher.
func (f *HTTPFetcher) FetchIndex(ctx context.Context, url string) (*CollectionIndex, error) {
	var index CollectionIndex
	if err := f.fetchJSON(ctx, url, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// FetchBundle implements Fetcher.
func (f *HTTPFetcher) FetchBundle(ctx context.Context, url string) (*stix.Bundle, error) {
	var bundle stix.Bundle
	if err := f.fetchJSON(ctx, url, &bundle); err != nil {
		return nil, err
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (f *HTTPFetcher) fetchJSON(ctx context.Context, url string, out any) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
