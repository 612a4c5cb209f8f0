package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tubebox/internal/domain/track"
)

// DurationLimitConfig bounds track length in minutes. A zero max means no
// upper bound.
type DurationLimitConfig struct {
	MinMinutes float64 `yaml:"min_minutes" mapstructure:"min_minutes" validate:"gte=0"`
	MaxMinutes float64 `yaml:"max_minutes" mapstructure:"max_minutes" validate:"gte=0"`
}

// DurationLimitFilter rejects tracks outside the configured length.
// Tracks of unknown duration pass.
type DurationLimitFilter struct {
	config *DurationLimitConfig
}

// NewDurationLimitFilter creates an unconfigured filter that accepts every
// track until ValidateConfig succeeds.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Rejects tracks shorter than min_minutes or longer than max_minutes"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{"duration_too_short", "duration_too_long"}
}

// ValidateConfig decodes and checks the settings, applying them only when
// they are valid.
func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	if config.MaxMinutes > 0 && config.MinMinutes > config.MaxMinutes {
		return errors.Newf("min_minutes (%v) cannot be greater than max_minutes (%v)", config.MinMinutes, config.MaxMinutes)
	}

	f.config = &config
	zlog.Info().Msgf("duration limit filter config: min=%vm max=%vm", config.MinMinutes, config.MaxMinutes)
	return nil
}

func (f *DurationLimitFilter) AppliesTo(source Source) bool {
	return true
}

func (f *DurationLimitFilter) Check(ctx context.Context, t track.Track) Result {
	if f.config == nil || t.Duration <= 0 {
		return Accept()
	}

	switch minutes := t.Duration.Minutes(); {
	case minutes < f.config.MinMinutes:
		return Reject("duration_too_short")
	case f.config.MaxMinutes > 0 && minutes > f.config.MaxMinutes:
		return Reject("duration_too_long")
	}
	return Accept()
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return NewDurationLimitFilter()
	})
}
