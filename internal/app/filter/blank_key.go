package filter

import (
	"context"

	"github.com/osa030/tubebox/internal/domain/track"
)

// BlankKeyFilter rejects tracks without a video key. It is always enabled.
type BlankKeyFilter struct{}

func (f *BlankKeyFilter) Name() string {
	return "blank_key_filter"
}

func (f *BlankKeyFilter) Description() string {
	return "Rejects tracks that have no video key"
}

func (f *BlankKeyFilter) ReturnCodes() []string {
	return []string{"blank_key"}
}

func (f *BlankKeyFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *BlankKeyFilter) AppliesTo(source Source) bool {
	return true
}

func (f *BlankKeyFilter) Check(ctx context.Context, t track.Track) Result {
	if !t.IsValid() {
		return Reject("blank_key")
	}
	return Accept()
}

func init() {
	Register("blank_key_filter", func() Filter {
		return &BlankKeyFilter{}
	})
}
