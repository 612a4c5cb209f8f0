package connect

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/tubebox/internal/app/notification"
	"github.com/osa030/tubebox/internal/app/session"
)

// Client calls both services of a tubebox server.
type Client struct {
	getStatus     *connect.Client[Empty, session.Status]
	getUIState    *connect.Client[Empty, structpb.Struct]
	search        *connect.Client[SearchRequest, SearchResponse]
	listProviders *connect.Client[Empty, ListProvidersResponse]
	getHistory    *connect.Client[GetHistoryRequest, GetHistoryResponse]
	subscribe     *connect.Client[Empty, notification.Notification]

	togglePlay    *connect.Client[Empty, ToggleResponse]
	next          *connect.Client[Empty, ControlResponse]
	previous      *connect.Client[Empty, ControlResponse]
	play          *connect.Client[PlayRequest, ControlResponse]
	remove        *connect.Client[RemoveRequest, ControlResponse]
	seek          *connect.Client[SeekRequest, ControlResponse]
	seekPercent   *connect.Client[SeekPercentRequest, ControlResponse]
	setVolume     *connect.Client[SetVolumeRequest, ControlResponse]
	toggleMute    *connect.Client[Empty, ToggleResponse]
	toggleRepeat  *connect.Client[Empty, ToggleResponse]
	toggleShuffle *connect.Client[Empty, ToggleResponse]
	stop          *connect.Client[Empty, ControlResponse]
	enqueue       *connect.Client[EnqueueRequest, EnqueueResponse]
	loadPlaylist  *connect.Client[LoadPlaylistRequest, LoadPlaylistResponse]
	clearQueue    *connect.Client[Empty, ControlResponse]
	logout        *connect.Client[Empty, ControlResponse]
	setLanguage   *connect.Client[SetLanguageRequest, ControlResponse]
	dismiss       *connect.Client[DismissRequest, ControlResponse]
	setModal      *connect.Client[SetModalRequest, ControlResponse]
	setUIFlags    *connect.Client[SetUIFlagsRequest, ControlResponse]
}

// NewClient creates a client for the server at baseURL. The token is sent
// with every unary call.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(NewTokenHeaderInterceptor(token)),
	}, opts...)

	return &Client{
		getStatus:     connect.NewClient[Empty, session.Status](httpClient, baseURL+PlayerServiceGetStatusProcedure, opts...),
		getUIState:    connect.NewClient[Empty, structpb.Struct](httpClient, baseURL+PlayerServiceGetUIStateProcedure, opts...),
		search:        connect.NewClient[SearchRequest, SearchResponse](httpClient, baseURL+PlayerServiceSearchProcedure, opts...),
		listProviders: connect.NewClient[Empty, ListProvidersResponse](httpClient, baseURL+PlayerServiceListProvidersProcedure, opts...),
		getHistory:    connect.NewClient[GetHistoryRequest, GetHistoryResponse](httpClient, baseURL+PlayerServiceGetHistoryProcedure, opts...),
		subscribe:     connect.NewClient[Empty, notification.Notification](httpClient, baseURL+PlayerServiceSubscribeProcedure, opts...),

		togglePlay:    connect.NewClient[Empty, ToggleResponse](httpClient, baseURL+ControlServiceTogglePlayProcedure, opts...),
		next:          connect.NewClient[Empty, ControlResponse](httpClient, baseURL+ControlServiceNextProcedure, opts...),
		previous:      connect.NewClient[Empty, ControlResponse](httpClient, baseURL+ControlServicePreviousProcedure, opts...),
		play:          connect.NewClient[PlayRequest, ControlResponse](httpClient, baseURL+ControlServicePlayProcedure, opts...),
		remove:        connect.NewClient[RemoveRequest, ControlResponse](httpClient, baseURL+ControlServiceRemoveProcedure, opts...),
		seek:          connect.NewClient[SeekRequest, ControlResponse](httpClient, baseURL+ControlServiceSeekProcedure, opts...),
		seekPercent:   connect.NewClient[SeekPercentRequest, ControlResponse](httpClient, baseURL+ControlServiceSeekPercentProcedure, opts...),
		setVolume:     connect.NewClient[SetVolumeRequest, ControlResponse](httpClient, baseURL+ControlServiceSetVolumeProcedure, opts...),
		toggleMute:    connect.NewClient[Empty, ToggleResponse](httpClient, baseURL+ControlServiceToggleMuteProcedure, opts...),
		toggleRepeat:  connect.NewClient[Empty, ToggleResponse](httpClient, baseURL+ControlServiceToggleRepeatProcedure, opts...),
		toggleShuffle: connect.NewClient[Empty, ToggleResponse](httpClient, baseURL+ControlServiceToggleShuffleProcedure, opts...),
		stop:          connect.NewClient[Empty, ControlResponse](httpClient, baseURL+ControlServiceStopProcedure, opts...),
		enqueue:       connect.NewClient[EnqueueRequest, EnqueueResponse](httpClient, baseURL+ControlServiceEnqueueProcedure, opts...),
		loadPlaylist:  connect.NewClient[LoadPlaylistRequest, LoadPlaylistResponse](httpClient, baseURL+ControlServiceLoadPlaylistProcedure, opts...),
		clearQueue:    connect.NewClient[Empty, ControlResponse](httpClient, baseURL+ControlServiceClearQueueProcedure, opts...),
		logout:        connect.NewClient[Empty, ControlResponse](httpClient, baseURL+ControlServiceLogoutProcedure, opts...),
		setLanguage:   connect.NewClient[SetLanguageRequest, ControlResponse](httpClient, baseURL+ControlServiceSetLanguageProcedure, opts...),
		dismiss:       connect.NewClient[DismissRequest, ControlResponse](httpClient, baseURL+ControlServiceDismissNotificationProcedure, opts...),
		setModal:      connect.NewClient[SetModalRequest, ControlResponse](httpClient, baseURL+ControlServiceSetModalProcedure, opts...),
		setUIFlags:    connect.NewClient[SetUIFlagsRequest, ControlResponse](httpClient, baseURL+ControlServiceSetUIFlagsProcedure, opts...),
	}
}

func unary[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// GetStatus returns the server status.
func (c *Client) GetStatus(ctx context.Context) (*session.Status, error) {
	return unary(ctx, c.getStatus, &Empty{})
}

// GetUIState returns the UI store as a generic struct.
func (c *Client) GetUIState(ctx context.Context) (*structpb.Struct, error) {
	return unary(ctx, c.getUIState, &Empty{})
}

// Search queries the catalog.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	return unary(ctx, c.search, req)
}

// ListProviders lists the catalog providers.
func (c *Client) ListProviders(ctx context.Context) (*ListProvidersResponse, error) {
	return unary(ctx, c.listProviders, &Empty{})
}

// GetHistory lists recently played tracks.
func (c *Client) GetHistory(ctx context.Context, limit int) (*GetHistoryResponse, error) {
	return unary(ctx, c.getHistory, &GetHistoryRequest{Limit: limit})
}

// Subscribe opens the notification stream.
func (c *Client) Subscribe(ctx context.Context) (*connect.ServerStreamForClient[notification.Notification], error) {
	return c.subscribe.CallServerStream(ctx, connect.NewRequest(&Empty{}))
}

// TogglePlay flips between playing and paused.
func (c *Client) TogglePlay(ctx context.Context) (*ToggleResponse, error) {
	return unary(ctx, c.togglePlay, &Empty{})
}

// Next plays the next track.
func (c *Client) Next(ctx context.Context) (*ControlResponse, error) {
	return unary(ctx, c.next, &Empty{})
}

// Previous plays the previous track.
func (c *Client) Previous(ctx context.Context) (*ControlResponse, error) {
	return unary(ctx, c.previous, &Empty{})
}

// Play plays a queued track.
func (c *Client) Play(ctx context.Context, req *PlayRequest) (*ControlResponse, error) {
	return unary(ctx, c.play, req)
}

// Remove removes a queue item.
func (c *Client) Remove(ctx context.Context, index int) (*ControlResponse, error) {
	return unary(ctx, c.remove, &RemoveRequest{Index: index})
}

// Seek moves the playhead.
func (c *Client) Seek(ctx context.Context, seconds float64) (*ControlResponse, error) {
	return unary(ctx, c.seek, &SeekRequest{Seconds: seconds})
}

// SeekPercent moves the playhead to a fraction of the duration.
func (c *Client) SeekPercent(ctx context.Context, percent float64) (*ControlResponse, error) {
	return unary(ctx, c.seekPercent, &SeekPercentRequest{Percent: percent})
}

// SetVolume sets the volume.
func (c *Client) SetVolume(ctx context.Context, volume int) (*ControlResponse, error) {
	return unary(ctx, c.setVolume, &SetVolumeRequest{Volume: volume})
}

// ToggleMute mutes or restores the volume.
func (c *Client) ToggleMute(ctx context.Context) (*ToggleResponse, error) {
	return unary(ctx, c.toggleMute, &Empty{})
}

// ToggleRepeat flips the repeat flag.
func (c *Client) ToggleRepeat(ctx context.Context) (*ToggleResponse, error) {
	return unary(ctx, c.toggleRepeat, &Empty{})
}

// ToggleShuffle flips the shuffle order.
func (c *Client) ToggleShuffle(ctx context.Context) (*ToggleResponse, error) {
	return unary(ctx, c.toggleShuffle, &Empty{})
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) (*ControlResponse, error) {
	return unary(ctx, c.stop, &Empty{})
}

// Enqueue adds tracks to the queue.
func (c *Client) Enqueue(ctx context.Context, req *EnqueueRequest) (*EnqueueResponse, error) {
	return unary(ctx, c.enqueue, req)
}

// LoadPlaylist replaces the queue with a catalog playlist.
func (c *Client) LoadPlaylist(ctx context.Context, req *LoadPlaylistRequest) (*LoadPlaylistResponse, error) {
	return unary(ctx, c.loadPlaylist, req)
}

// ClearQueue empties the queue.
func (c *Client) ClearQueue(ctx context.Context) (*ControlResponse, error) {
	return unary(ctx, c.clearQueue, &Empty{})
}

// SetLanguage switches the interface language.
func (c *Client) SetLanguage(ctx context.Context, lang string) (*ControlResponse, error) {
	return unary(ctx, c.setLanguage, &SetLanguageRequest{Language: lang})
}

// Logout stops playback and resets the session.
func (c *Client) Logout(ctx context.Context) (*ControlResponse, error) {
	return unary(ctx, c.logout, &Empty{})
}

// DismissNotification dismisses a UI notification.
func (c *Client) DismissNotification(ctx context.Context, id string) (*ControlResponse, error) {
	return unary(ctx, c.dismiss, &DismissRequest{ID: id})
}

// SetModal opens a modal, or closes it with "none".
func (c *Client) SetModal(ctx context.Context, req *SetModalRequest) (*ControlResponse, error) {
	return unary(ctx, c.setModal, req)
}

// SetUIFlags updates the viewport and session-expired flags.
func (c *Client) SetUIFlags(ctx context.Context, req *SetUIFlagsRequest) (*ControlResponse, error) {
	return unary(ctx, c.setUIFlags, req)
}
