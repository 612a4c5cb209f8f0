package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/tubebox/internal/app/catalog"
	"github.com/osa030/tubebox/internal/app/notification"
	"github.com/osa030/tubebox/internal/app/session"
	"github.com/osa030/tubebox/internal/app/ui"
	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/config"
	"github.com/osa030/tubebox/internal/infra/storage"
)

const testConfig = `
app:
  headless: true
server:
  control_token: secret
youtube:
  api_key: test-key
catalog:
  providers:
    - name: yt
      type: youtube
`

type stubProvider struct{}

func (stubProvider) Playlist(ctx context.Context, ref string) (*playlist.Playlist, error) {
	return &playlist.Playlist{
		ID:     ref,
		Title:  "Stub " + ref,
		Tracks: []track.Track{{Key: "p1", Title: "One"}, {Key: "p2", Title: "Two"}},
	}, nil
}

func (stubProvider) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	return []track.Track{{Key: "s1", Title: query}}, nil
}

func (stubProvider) Type() string { return "youtube" }

func newTestServer(t *testing.T) (*session.Manager, *httptest.Server) {
	t.Helper()

	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat := catalog.New(catalog.NamedProvider{Provider: stubProvider{}, Name: "yt"})
	mgr, err := session.NewManager(cfg, nil, store, cat)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle(NewPlayerServiceHandler(NewPlayerService(mgr)))
	mux.Handle(NewControlServiceHandler(
		NewControlService(mgr),
		connect.WithInterceptors(NewControlTokenInterceptor(cfg)),
	))

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		mgr.Close()
		srv.Close()
	})
	return mgr, srv
}

func TestControlService_RequiresToken(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()

	anonymous := NewClient(srv.Client(), srv.URL, "")
	_, err := anonymous.TogglePlay(ctx)
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	wrong := NewClient(srv.Client(), srv.URL, "nope")
	_, err = wrong.ClearQueue(ctx)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	// Read-only calls are public
	providers, err := anonymous.ListProviders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"yt"}, providers.Providers)
}

func TestControlService_EnqueueAndStatus(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	client := NewClient(srv.Client(), srv.URL, "secret")

	resp, err := client.Enqueue(ctx, &EnqueueRequest{Tracks: []track.Track{
		{Key: "a", Title: "A", Artist: "X"},
		{Title: "No key"},
		{Key: "b", Title: "B"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Added)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "blank_key", resp.Rejected[0].Code)
	assert.Equal(t, "The track has no video key", resp.Rejected[0].Message)

	status, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, status.Queue.Items, 2)
	require.NotNil(t, status.NowPlaying)
	assert.Equal(t, "a", status.NowPlaying.Key)
	assert.Equal(t, "A - X - Tubebox", status.Title)

	next, err := client.Next(ctx)
	require.NoError(t, err)
	assert.True(t, next.Success)

	next, err = client.Next(ctx)
	require.NoError(t, err)
	assert.False(t, next.Success)
	assert.Equal(t, "queue_empty", next.Code)

	repeat, err := client.ToggleRepeat(ctx)
	require.NoError(t, err)
	assert.True(t, repeat.Enabled)

	_, err = client.SetVolume(ctx, 30)
	require.NoError(t, err)
	status, err = client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, status.Player.Volume)
	assert.True(t, status.Player.IsRepeat)
	assert.Equal(t, "b", status.NowPlaying.Key)
}

func TestControlService_Errors(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	client := NewClient(srv.Client(), srv.URL, "secret")

	_, err := client.LoadPlaylist(ctx, &LoadPlaylistRequest{Provider: "missing", Ref: "PL"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.LoadPlaylist(ctx, &LoadPlaylistRequest{Provider: "yt"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Play(ctx, &PlayRequest{Index: 3, IndexInitial: true})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Remove(ctx, 0)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.TogglePlay(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = client.SetLanguage(ctx, "xx")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Enqueue(ctx, &EnqueueRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestControlService_LoadPlaylistAndSearch(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	client := NewClient(srv.Client(), srv.URL, "secret")

	loaded, err := client.LoadPlaylist(ctx, &LoadPlaylistRequest{Provider: "yt", Ref: "PL9", Start: 1})
	require.NoError(t, err)
	assert.Equal(t, "PL9", loaded.PlaylistID)
	assert.Equal(t, "Stub PL9", loaded.Title)
	assert.Equal(t, 2, loaded.Loaded)

	status, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PL9", status.Queue.SourcePlaylistID)
	assert.Equal(t, "p2", status.NowPlaying.Key)

	found, err := client.Search(ctx, &SearchRequest{Query: "hello"})
	require.NoError(t, err)
	require.Len(t, found.Tracks, 1)
	assert.Equal(t, "hello", found.Tracks[0].Title)

	_, err = client.Search(ctx, &SearchRequest{Query: "  "})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestPlayerService_GetUIState(t *testing.T) {
	mgr, srv := newTestServer(t)
	ctx := context.Background()
	client := NewClient(srv.Client(), srv.URL, "secret")

	mgr.UI().OpenEditPlaylist("PL1")
	_, err := client.SetLanguage(ctx, "es")
	require.NoError(t, err)

	st, err := client.GetUIState(ctx)
	require.NoError(t, err)
	fields := st.GetFields()
	assert.Equal(t, "es", fields["language"].GetStringValue())
	assert.Equal(t, "editPlaylist", fields["active_modal"].GetStringValue())
	assert.Equal(t, "PL1", fields["edit_playlist_id"].GetStringValue())
}

func TestControlService_SetModalAndFlags(t *testing.T) {
	mgr, srv := newTestServer(t)
	ctx := context.Background()
	client := NewClient(srv.Client(), srv.URL, "secret")

	_, err := client.SetModal(ctx, &SetModalRequest{Modal: "addVideo", AddVideo: &ui.AddVideoData{Key: "k1", Title: "Song"}})
	require.NoError(t, err)
	st := mgr.UI().State()
	assert.Equal(t, ui.ModalAddVideo, st.ActiveModal)
	require.NotNil(t, st.AddVideoData)
	assert.Equal(t, "k1", st.AddVideoData.Key)

	_, err = client.SetModal(ctx, &SetModalRequest{Modal: "editPlaylist"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	_, err = client.SetModal(ctx, &SetModalRequest{Modal: "settings"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.SetModal(ctx, &SetModalRequest{Modal: "none"})
	require.NoError(t, err)
	assert.Equal(t, ui.ModalNone, mgr.UI().State().ActiveModal)

	mobile := true
	_, err = client.SetUIFlags(ctx, &SetUIFlagsRequest{Mobile: &mobile})
	require.NoError(t, err)
	st = mgr.UI().State()
	assert.True(t, st.IsMobile)
	assert.False(t, st.SessionExpired, "omitted flags are unchanged")
}

func TestPlayerService_Subscribe(t *testing.T) {
	_, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := NewClient(srv.Client(), srv.URL, "secret")

	stream, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial snapshot: %v", stream.Err())
	assert.Equal(t, notification.TypeInitial, stream.Msg().Type)

	_, err = client.Enqueue(ctx, &EnqueueRequest{Tracks: []track.Track{{Key: "a", Title: "A"}}})
	require.NoError(t, err)

	gotQueue := false
	for !gotQueue && stream.Receive() {
		gotQueue = stream.Msg().Type == notification.TypeQueue
	}
	assert.True(t, gotQueue, "stream error: %v", stream.Err())
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(&SetVolumeRequest{Volume: 40})
	require.NoError(t, err)
	assert.JSONEq(t, `{"volume":40}`, string(data))

	var req SetVolumeRequest
	require.NoError(t, codec.Unmarshal([]byte(`{"volume":55}`), &req))
	assert.Equal(t, 55, req.Volume)

	var empty Empty
	require.NoError(t, codec.Unmarshal(nil, &empty))

	st, err := structpb.NewStruct(map[string]any{"language": "en"})
	require.NoError(t, err)
	data, err = codec.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"en"}`, string(data))

	var decoded structpb.Struct
	require.NoError(t, codec.Unmarshal(data, &decoded))
	assert.Equal(t, "en", decoded.GetFields()["language"].GetStringValue())
}
