package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tubebox/internal/domain/track"
)

// stubFilter rejects tracks whose key is in reject.
type stubFilter struct {
	name    string
	code    string
	reject  map[string]bool
	sources []Source
	calls   int
}

func (f *stubFilter) Name() string                                 { return f.name }
func (f *stubFilter) Description() string                          { return "stub" }
func (f *stubFilter) ReturnCodes() []string                        { return []string{f.code} }
func (f *stubFilter) ValidateConfig(settings map[string]any) error { return nil }

func (f *stubFilter) AppliesTo(source Source) bool {
	for _, s := range f.sources {
		if s == source {
			return true
		}
	}
	return false
}

func (f *stubFilter) Check(ctx context.Context, t track.Track) Result {
	f.calls++
	if f.reject[t.Key] {
		return Reject(f.code)
	}
	return Accept()
}

func TestChain_Execute(t *testing.T) {
	first := &stubFilter{name: "first", code: "first_code", reject: map[string]bool{"a": true}, sources: []Source{SourceUser, SourcePlaylist}}
	second := &stubFilter{name: "second", code: "second_code", reject: map[string]bool{"a": true, "b": true}, sources: []Source{SourceUser}}
	chain := NewChain(first, second)

	tests := []struct {
		name     string
		key      string
		source   Source
		accepted bool
		code     string
	}{
		{name: "first rejection wins", key: "a", source: SourceUser, code: "first_code"},
		{name: "second filter rejects", key: "b", source: SourceUser, code: "second_code"},
		{name: "second filter skipped for playlists", key: "b", source: SourcePlaylist, accepted: true},
		{name: "accepted by all", key: "c", source: SourceUser, accepted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := chain.Execute(context.Background(), track.Track{Key: tt.key}, tt.source)
			assert.Equal(t, tt.accepted, result.Accepted)
			assert.Equal(t, tt.code, result.Code)
		})
	}
}

func TestChain_ExecuteStopsOnReject(t *testing.T) {
	first := &stubFilter{name: "first", code: "x", reject: map[string]bool{"a": true}, sources: []Source{SourceUser}}
	second := &stubFilter{name: "second", code: "y", sources: []Source{SourceUser}}
	chain := NewChain(first)
	chain.Add(second)

	chain.Execute(context.Background(), track.Track{Key: "a"}, SourceUser)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Len(t, chain.Filters(), 2)
}

func TestChain_Partition(t *testing.T) {
	limit := NewDurationLimitFilter()
	require.NoError(t, limit.ValidateConfig(map[string]any{"max_minutes": 10}))
	chain := NewChain(&BlankKeyFilter{}, limit)

	tracks := []track.Track{
		{Key: "a", Duration: 3 * time.Minute},
		{Key: "", Title: "no key"},
		{Key: "c", Duration: time.Hour},
		{Key: "d"},
	}

	accepted, rejected := chain.Partition(context.Background(), tracks, SourcePlaylist)

	require.Len(t, accepted, 2)
	assert.Equal(t, "a", accepted[0].Key)
	assert.Equal(t, "d", accepted[1].Key)

	require.Len(t, rejected, 2)
	assert.Equal(t, "blank_key", rejected[0].Code)
	assert.Equal(t, "no key", rejected[0].Track.Title)
	assert.Equal(t, "duration_too_long", rejected[1].Code)
	assert.Equal(t, "c", rejected[1].Track.Key)
}

func TestChain_Empty(t *testing.T) {
	accepted, rejected := NewChain().Partition(context.Background(), []track.Track{{Key: ""}}, SourceUser)
	assert.Len(t, accepted, 1)
	assert.Empty(t, rejected)
}

func TestBlankKeyFilter(t *testing.T) {
	f := &BlankKeyFilter{}
	assert.True(t, f.Check(context.Background(), track.Track{Key: "abc"}).Accepted)

	result := f.Check(context.Background(), track.Track{Title: "untitled"})
	assert.False(t, result.Accepted)
	assert.Equal(t, "blank_key", result.Code)

	assert.True(t, f.AppliesTo(SourceUser))
	assert.True(t, f.AppliesTo(SourcePlaylist))
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"blank_key_filter", "duplicate_key_filter", "duration_limit_filter"}, RegisteredNames())

	for name, factory := range GetRegistered() {
		f := factory()
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.ReturnCodes())
	}
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "user", SourceUser.String())
	assert.Equal(t, "playlist", SourcePlaylist.String())
	assert.Equal(t, "unknown", Source(9).String())
}
