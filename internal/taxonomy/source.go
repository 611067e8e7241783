package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/object"
)

// DefaultTaxonomyKey is where the knowledge-base synchronizer publishes the
// best-practice listing.
const DefaultTaxonomyKey = "well_architected_best_practices.json"

// Source loads the base taxonomy entries.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
}

// ObjectSource reads the published taxonomy JSON from the object store.
type ObjectSource struct {
	Store object.ObjectStore
	Key   string
}

// Load fetches and decodes the taxonomy object.
func (s *ObjectSource) Load(ctx context.Context) ([]Entry, error) {
	key := s.Key
	if key == "" {
		key = DefaultTaxonomyKey
	}

	body, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy key=%s: %w", key, err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode taxonomy key=%s: %w", key, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("taxonomy key=%s is empty", key)
	}
	return entries, nil
}

var _ Source = (*ObjectSource)(nil)
