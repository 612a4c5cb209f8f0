package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/app/filter"
	"github.com/osa030/tubebox/internal/app/session"
	"github.com/osa030/tubebox/internal/app/ui"
)

// ControlService implements the ControlService RPC. Every call requires the
// control token when one is configured.
type ControlService struct {
	session *session.Manager
}

// NewControlService creates a new ControlService.
func NewControlService(session *session.Manager) *ControlService {
	return &ControlService{
		session: session,
	}
}

func (s *ControlService) success() *connect.Response[ControlResponse] {
	return connect.NewResponse(&ControlResponse{
		Success: true,
		Message: s.session.Message("success"),
	})
}

func (s *ControlService) failure(code string) *connect.Response[ControlResponse] {
	return connect.NewResponse(&ControlResponse{
		Success: false,
		Message: s.session.Message(code),
		Code:    code,
	})
}

func (s *ControlService) rejected(rejections []filter.Rejection) []RejectedTrack {
	return lo.Map(rejections, func(r filter.Rejection, _ int) RejectedTrack {
		return RejectedTrack{
			Key:     r.Track.Key,
			Title:   r.Track.Title,
			Code:    r.Code,
			Message: s.session.Message(r.Code),
		}
	})
}

// TogglePlay flips between playing and paused.
func (s *ControlService) TogglePlay(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ToggleResponse], error) {
	playing, err := s.session.Playback().TogglePlay()
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ToggleResponse{Enabled: playing}), nil
}

// Next plays the next track.
func (s *ControlService) Next(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ControlResponse], error) {
	moved, err := s.session.Playback().After()
	if err != nil {
		return nil, toConnectError(err)
	}
	if !moved {
		return s.failure("queue_empty"), nil
	}
	return s.success(), nil
}

// Previous plays the previous track.
func (s *ControlService) Previous(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ControlResponse], error) {
	moved, err := s.session.Playback().Before()
	if err != nil {
		return nil, toConnectError(err)
	}
	if !moved {
		return s.failure("queue_empty"), nil
	}
	return s.success(), nil
}

// Play plays a queued track.
func (s *ControlService) Play(
	ctx context.Context,
	req *connect.Request[PlayRequest],
) (*connect.Response[ControlResponse], error) {
	if err := s.session.Playback().Lecture(req.Msg.Index, req.Msg.IndexInitial); err != nil {
		return nil, toConnectError(err)
	}
	return s.success(), nil
}

// Remove removes a queue item.
func (s *ControlService) Remove(
	ctx context.Context,
	req *connect.Request[RemoveRequest],
) (*connect.Response[ControlResponse], error) {
	if !s.session.Playback().RemoveToPlaylist(req.Msg.Index) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.Newf("no queue item at index %d", req.Msg.Index))
	}
	return s.success(), nil
}

// Seek moves the playhead to an absolute time.
func (s *ControlService) Seek(
	ctx context.Context,
	req *connect.Request[SeekRequest],
) (*connect.Response[ControlResponse], error) {
	if err := s.session.Playback().Seek(req.Msg.Seconds); err != nil {
		return nil, toConnectError(err)
	}
	return s.success(), nil
}

// SeekPercent moves the playhead to a fraction of the duration.
func (s *ControlService) SeekPercent(
	ctx context.Context,
	req *connect.Request[SeekPercentRequest],
) (*connect.Response[ControlResponse], error) {
	if err := s.session.Playback().SeekPercent(req.Msg.Percent); err != nil {
		return nil, toConnectError(err)
	}
	return s.success(), nil
}

// SetVolume sets and persists the volume.
func (s *ControlService) SetVolume(
	ctx context.Context,
	req *connect.Request[SetVolumeRequest],
) (*connect.Response[ControlResponse], error) {
	if err := s.session.Playback().SetVolume(req.Msg.Volume); err != nil {
		return nil, toConnectError(err)
	}
	return s.success(), nil
}

// ToggleMute mutes or restores the previous volume.
func (s *ControlService) ToggleMute(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ToggleResponse], error) {
	muted, err := s.session.Playback().ToggleMute()
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ToggleResponse{Enabled: muted}), nil
}

// ToggleRepeat flips and persists the repeat flag.
func (s *ControlService) ToggleRepeat(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ToggleResponse], error) {
	return connect.NewResponse(&ToggleResponse{Enabled: s.session.Playback().ToggleRepeat()}), nil
}

// ToggleShuffle flips the shuffle order.
func (s *ControlService) ToggleShuffle(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ToggleResponse], error) {
	return connect.NewResponse(&ToggleResponse{Enabled: s.session.Playback().ToggleShuffle()}), nil
}

// Stop stops playback and keeps the queue.
func (s *ControlService) Stop(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ControlResponse], error) {
	s.session.Playback().Stop()
	return s.success(), nil
}

// Enqueue adds tracks to the queue through the filter chain.
func (s *ControlService) Enqueue(
	ctx context.Context,
	req *connect.Request[EnqueueRequest],
) (*connect.Response[EnqueueResponse], error) {
	if len(req.Msg.Tracks) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("tracks are required"))
	}

	result, err := s.session.Enqueue(ctx, req.Msg.Tracks, req.Msg.PlayNext)
	if err != nil {
		return nil, toConnectError(err)
	}

	message := s.session.Message("tracks_added")
	if len(result.Added) == 0 {
		message = s.session.Message("default_error")
	}
	return connect.NewResponse(&EnqueueResponse{
		Added:    len(result.Added),
		Rejected: s.rejected(result.Rejected),
		Message:  message,
	}), nil
}

// LoadPlaylist replaces the queue with a catalog playlist.
func (s *ControlService) LoadPlaylist(
	ctx context.Context,
	req *connect.Request[LoadPlaylistRequest],
) (*connect.Response[LoadPlaylistResponse], error) {
	if strings.TrimSpace(req.Msg.Ref) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("ref is required"))
	}

	result, err := s.session.LoadPlaylist(ctx, req.Msg.Provider, req.Msg.Ref, req.Msg.Start)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LoadPlaylistResponse{
		PlaylistID: result.PlaylistID,
		Title:      result.Title,
		Loaded:     result.Loaded,
		Rejected:   s.rejected(result.Rejected),
	}), nil
}

// ClearQueue stops playback and empties the queue.
func (s *ControlService) ClearQueue(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ControlResponse], error) {
	s.session.ClearQueue()
	return s.success(), nil
}

// Logout resets the queue, the player and the UI.
func (s *ControlService) Logout(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ControlResponse], error) {
	s.session.Logout()
	return s.success(), nil
}

// SetLanguage switches the interface language.
func (s *ControlService) SetLanguage(
	ctx context.Context,
	req *connect.Request[SetLanguageRequest],
) (*connect.Response[ControlResponse], error) {
	if err := s.session.SetLanguage(req.Msg.Language); err != nil {
		return nil, toConnectError(err)
	}
	return s.success(), nil
}

// DismissNotification removes a notification before it expires.
func (s *ControlService) DismissNotification(
	ctx context.Context,
	req *connect.Request[DismissRequest],
) (*connect.Response[ControlResponse], error) {
	if !s.session.UI().Dismiss(req.Msg.ID) {
		return nil, connect.NewError(connect.CodeNotFound, errors.Newf("notification %s not found", req.Msg.ID))
	}
	return s.success(), nil
}

// SetModal opens or closes the active modal.
func (s *ControlService) SetModal(
	ctx context.Context,
	req *connect.Request[SetModalRequest],
) (*connect.Response[ControlResponse], error) {
	modal, err := ui.ParseModal(req.Msg.Modal)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := s.session.UI().OpenModal(modal, req.Msg.AddVideo, req.Msg.PlaylistID); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return s.success(), nil
}

// SetUIFlags updates the viewport and session-expired flags.
func (s *ControlService) SetUIFlags(
	ctx context.Context,
	req *connect.Request[SetUIFlagsRequest],
) (*connect.Response[ControlResponse], error) {
	if req.Msg.Mobile != nil {
		s.session.UI().SetMobile(*req.Msg.Mobile)
	}
	if req.Msg.SessionExpired != nil {
		s.session.UI().SetSessionExpired(*req.Msg.SessionExpired)
	}
	return s.success(), nil
}
