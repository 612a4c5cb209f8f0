package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/config"
)

// NamedProvider wraps a provider with its configured name.
type NamedProvider struct {
	Provider Provider
	Name     string
}

// Catalog holds the configured providers in configuration order.
type Catalog struct {
	providers []NamedProvider
}

// New creates a catalog over the given providers.
func New(providers ...NamedProvider) *Catalog {
	return &Catalog{providers: providers}
}

// NewFromConfig creates a catalog from configuration.
func NewFromConfig(cfg *config.Config, clients Clients) (*Catalog, error) {
	var providers []NamedProvider
	yt, sp, lf := clients.YouTube, clients.Spotify, clients.LastFm

	for i, pcfg := range cfg.Catalog.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating catalog provider: index=%d type=%s settings=%+v", i+1, pcfg.Type, pcfg.Settings)
		switch pcfg.Type {
		case config.ProviderYouTube:
			if yt == nil {
				return nil, errors.Newf("provider %s: youtube client is not configured", pcfg.Name)
			}
			provider, err = NewYouTubeProvider(yt, pcfg.Settings)

		case config.ProviderSpotify:
			if yt == nil || sp == nil {
				return nil, errors.Newf("provider %s: spotify and youtube clients are required", pcfg.Name)
			}
			provider, err = NewSpotifyProvider(sp, yt, pcfg.Settings)

		case config.ProviderLastFm:
			if yt == nil || lf == nil {
				return nil, errors.Newf("provider %s: lastfm and youtube clients are required", pcfg.Name)
			}
			provider, err = NewLastFmProvider(lf, yt, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, NamedProvider{Provider: provider, Name: pcfg.Name})
		zlog.Info().Msgf("registered catalog provider: index=%d type=%s name=%s", i+1, pcfg.Type, pcfg.Name)
	}

	return New(providers...), nil
}

// Names returns provider names in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name
	}
	return names
}

// Get returns the provider with the given name.
func (c *Catalog) Get(name string) (Provider, error) {
	for _, p := range c.providers {
		if p.Name == name {
			return p.Provider, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownProvider, "%s", name)
}

// Playlist retrieves a playlist from the named provider.
func (c *Catalog) Playlist(ctx context.Context, provider, ref string) (*playlist.Playlist, error) {
	p, err := c.Get(provider)
	if err != nil {
		return nil, err
	}
	return p.Playlist(ctx, ref)
}

// Search queries the named provider, or every provider in order when name
// is empty. Failing providers are skipped and results are deduplicated by key.
func (c *Catalog) Search(ctx context.Context, provider, query string, limit int) ([]track.Track, error) {
	if provider != "" {
		p, err := c.Get(provider)
		if err != nil {
			return nil, err
		}
		return p.Search(ctx, query, limit)
	}

	if len(c.providers) == 0 {
		return nil, errors.New("no catalog providers configured")
	}

	var all []track.Track
	seen := make(map[string]bool)
	var lastErr error

	for i, np := range c.providers {
		zlog.Debug().Msgf("trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), np.Name, np.Provider.Type())

		found, err := np.Provider.Search(ctx, query, limit)
		if err != nil {
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", np.Name, err)
			lastErr = err
			continue
		}
		for _, t := range found {
			if !seen[t.Key] {
				seen[t.Key] = true
				all = append(all, t)
			}
		}
	}

	if len(all) == 0 && lastErr != nil {
		return nil, errors.Wrap(lastErr, "all providers failed")
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
