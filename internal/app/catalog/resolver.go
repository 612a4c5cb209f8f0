package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/domain/track"
)

// song is a track known by metadata only, waiting to be matched to a video.
type song struct {
	id       string // provider ID; empty when the provider has none
	title    string
	artist   string
	duration time.Duration
	imageURL string
}

func (s song) query() string {
	return strings.TrimSpace(s.artist + " " + s.title)
}

func (s song) cacheKey() string {
	if s.id != "" {
		return s.id
	}
	return strings.ToLower(s.query())
}

// resolver matches songs to YouTube videos by searching for artist and
// title. Resolved songs are cached to minimize YouTube API calls.
type resolver struct {
	youtube     YouTubeClient
	concurrency int

	mu    sync.Mutex
	cache map[string]track.Track
}

func newResolver(yt YouTubeClient, concurrency int) *resolver {
	return &resolver{
		youtube:     yt,
		concurrency: max(concurrency, 1),
		cache:       make(map[string]track.Track),
	}
}

// resolveAll resolves songs with a bounded number of concurrent searches,
// keeping their order. Songs with no matching video are skipped.
func (r *resolver) resolveAll(ctx context.Context, songs []song) []track.Track {
	results := make([]*track.Track, len(songs))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

loop:
	for i, s := range songs {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			t, err := r.resolve(ctx, s)
			if err != nil {
				zlog.Warn().Msgf("failed to resolve song: title=%s artist=%s error=%v", s.title, s.artist, err)
				return
			}
			results[i] = t
		}()
	}
	wg.Wait()

	return lo.FilterMap(results, func(t *track.Track, _ int) (track.Track, bool) {
		if t == nil {
			return track.Track{}, false
		}
		return *t, true
	})
}

func (r *resolver) resolve(ctx context.Context, s song) (*track.Track, error) {
	key := s.cacheKey()
	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return &cached, nil
	}

	found, err := r.youtube.Search(ctx, s.query(), 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.Newf("no video found for %q", s.query())
	}

	// Provider metadata is cleaner than video titles
	t := found[0]
	t.Title = s.title
	if s.artist != "" {
		t.Artist = s.artist
	}
	if t.Duration == 0 {
		t.Duration = s.duration
	}
	if s.imageURL != "" {
		t.ThumbnailURL = s.imageURL
	}

	r.mu.Lock()
	r.cache[key] = t
	r.mu.Unlock()
	return &t, nil
}
