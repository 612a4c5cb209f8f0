package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/tubebox/internal/app/catalog"
	"github.com/osa030/tubebox/internal/app/playback"
	"github.com/osa030/tubebox/internal/app/session"
	"github.com/osa030/tubebox/internal/infra/lastfm"
	"github.com/osa030/tubebox/internal/infra/spotify"
	"github.com/osa030/tubebox/internal/infra/youtube"
)

// toConnectError maps application errors to Connect error codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var code connect.Code
	switch {
	case errors.Is(err, playback.ErrIndexOutOfRange),
		errors.Is(err, session.ErrUnsupportedLanguage),
		errors.Is(err, catalog.ErrInvalidRef):
		code = connect.CodeInvalidArgument
	case errors.Is(err, catalog.ErrUnknownProvider),
		errors.Is(err, youtube.ErrNotFound),
		errors.Is(err, lastfm.ErrNotFound),
		errors.Is(err, spotify.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, playback.ErrQueueEmpty),
		errors.Is(err, session.ErrNoPlayableTracks):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, session.ErrClosed):
		code = connect.CodeUnavailable
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
