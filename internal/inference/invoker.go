package inference

import (
	"context"
	"errors"
	"fmt"
)

// ErrInference wraps any transport or provider failure from an inference call.
// The invoker never retries; a failed call aborts the caller's current unit of
// work.
var ErrInference = errors.New("inference failed")

// Image is an inline image attachment for a multimodal invocation, encoded as
// a data:<mediaType>;base64,<payload> URI.
type Image struct {
	DataURI   string
	MediaType string
}

// Invoker performs a single inference call. Implementations must honor ctx
// cancellation so generation runs can race an in-flight call against a
// cancellation signal.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string, image *Image) (string, error)
}

// WrapError tags a provider failure with ErrInference, preserving the cause.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInference, err)
}
