// Package filter provides the filter chain for tracks entering the queue.
package filter

import (
	"context"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/tubebox/internal/domain/track"
)

// Source identifies how a track is entering the queue.
type Source int

const (
	SourceUser     Source = iota // Added individually through the API
	SourcePlaylist               // Part of a playlist loaded from the catalog
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourcePlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Result is the outcome of a filter check. Code is set on rejection and
// doubles as a message key, e.g. "duration_too_long".
type Result struct {
	Accepted bool
	Code     string
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for track filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to tracks from the given source.
	AppliesTo(source Source) bool
	// Check performs the filter check.
	Check(ctx context.Context, t track.Track) Result
}

// registry maps a filter name to its factory. Filters register from init.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// RegisteredNames returns the registered filter names in sorted order.
func RegisteredNames() []string {
	return slices.Sorted(maps.Keys(registry))
}

// decodeSettings decodes filter settings into out, accepting numeric strings,
// then applies defaults and validation tags.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
