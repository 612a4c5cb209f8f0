package filter

import (
	"context"

	"github.com/osa030/tubebox/internal/domain/track"
)

// Rejection is a track the chain refused, with the rejecting code.
type Rejection struct {
	Track track.Track
	Code  string
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain(filters ...Filter) *Chain {
	return &Chain{
		filters: append(make([]Filter, 0, len(filters)), filters...),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the track.
// Filters are only applied if they declare they apply to the given source.
func (c *Chain) Execute(ctx context.Context, t track.Track, source Source) Result {
	for _, f := range c.filters {
		// Skip filters that don't apply to this source
		if !f.AppliesTo(source) {
			continue
		}

		result := f.Check(ctx, t)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Partition runs the chain over tracks, keeping their order.
func (c *Chain) Partition(ctx context.Context, tracks []track.Track, source Source) ([]track.Track, []Rejection) {
	accepted := make([]track.Track, 0, len(tracks))
	var rejected []Rejection

	for _, t := range tracks {
		result := c.Execute(ctx, t, source)
		if result.Accepted {
			accepted = append(accepted, t)
			continue
		}
		rejected = append(rejected, Rejection{Track: t, Code: result.Code})
	}
	return accepted, rejected
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
