package connect

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/tubebox/internal/app/notification"
	"github.com/osa030/tubebox/internal/app/session"
)

var errStreamClosed = errors.New("stream closed")

// PlayerService implements the read-only PlayerService RPC.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{
		session: session,
	}
}

// GetStatus returns a snapshot of the queue, player and UI stores.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[session.Status], error) {
	status := s.session.Status()
	return connect.NewResponse(&status), nil
}

// GetUIState returns the UI store as a generic struct.
func (s *PlayerService) GetUIState(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[structpb.Struct], error) {
	data, err := json.Marshal(s.session.UI().State())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

// Search queries the catalog.
func (s *PlayerService) Search(
	ctx context.Context,
	req *connect.Request[SearchRequest],
) (*connect.Response[SearchResponse], error) {
	query := strings.TrimSpace(req.Msg.Query)
	if query == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("query is required"))
	}
	limit := req.Msg.Limit
	if limit <= 0 {
		limit = 10
	}

	tracks, err := s.session.Search(ctx, req.Msg.Provider, query, limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SearchResponse{Tracks: tracks}), nil
}

// ListProviders lists the catalog providers.
func (s *PlayerService) ListProviders(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ListProvidersResponse], error) {
	return connect.NewResponse(&ListProvidersResponse{Providers: s.session.Providers()}), nil
}

// GetHistory lists recently played tracks.
func (s *PlayerService) GetHistory(
	ctx context.Context,
	req *connect.Request[GetHistoryRequest],
) (*connect.Response[GetHistoryResponse], error) {
	entries, err := s.session.History(req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetHistoryResponse{Entries: entries}), nil
}

// Subscribe streams the current status followed by every store change until
// the client disconnects or the session closes.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[Empty],
	stream *connect.ServerStream[notification.Notification],
) error {
	notifManager := s.session.Notifications()

	// Subscribe before sending the snapshot so no change is lost in between.
	// Holding the adapter lock keeps broadcasts behind the snapshot.
	adapter := &notificationStreamAdapter{stream: stream}
	adapter.mu.Lock()
	subscriptionID := notifManager.Subscribe(adapter)
	err := stream.Send(&notification.Notification{
		Type:       notification.TypeInitial,
		SequenceNo: notifManager.NextSequenceNo(),
		Payload:    s.session.Status(),
	})
	adapter.mu.Unlock()
	if err != nil {
		notifManager.Unsubscribe(subscriptionID)
		return err
	}
	zlog.Debug().Msgf("subscriber connected: subscription_id=%s", subscriptionID)

	// Wait for context cancellation or session end
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}

	// Unsubscribe when done
	notifManager.Unsubscribe(subscriptionID)
	adapter.close()
	zlog.Debug().Msgf("subscriber disconnected: subscription_id=%s", subscriptionID)

	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// A send that timed out may still be running when the next one starts.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[notification.Notification]
	closed bool
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errStreamClosed
	}
	return a.stream.Send(n)
}

// close makes later sends fail once the handler has returned.
func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}
