package retrieval

import (
	"context"
	"errors"
	"fmt"
)

// ErrRetrieval wraps knowledge-base failures. A retrieval failure aborts the
// current analysis run; it is never retried.
var ErrRetrieval = errors.New("knowledge retrieval failed")

// DefaultTopK is the fixed passage count requested per question.
const DefaultTopK = 20

// Retriever returns ranked plain-text passages supporting a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// Empty is a Retriever with no knowledge base behind it. Used when retrieval
// is not configured; assessments then run on the document alone.
type Empty struct{}

// Retrieve returns no passages.
func (Empty) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	return nil, nil
}

// WrapError tags a provider failure with ErrRetrieval, preserving the cause.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRetrieval, err)
}
