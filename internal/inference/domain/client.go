// Package domain defines the optional external inference capability.
package domain

import (
	"context"
	"errors"
)

// Client infers semantic meaning for headers and category labels the
// deterministic stages could not resolve. Implementations must honor the
// context deadline; the resolver treats any failure as "no answer", never as
// a hard error.
type Client interface {
	// InferField maps a raw column header (plus up to three sample cell
	// values) to a semantic field name.
	InferField(ctx context.Context, header string, samples []string) (string, error)

	// InferCategory maps a raw category label to one of the contract's
	// category names, or "excluded".
	InferCategory(ctx context.Context, raw string, categories []string) (string, error)
}

var ErrUnavailable = errors.New("inference_unavailable")
