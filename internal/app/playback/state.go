// Package playback bridges an embeddable player to the queue and player stores.
package playback

import "github.com/osa030/tubebox/internal/domain/media"

// Message keys for player errors. They are looked up in the localized
// message catalog, so the values must not change.
const (
	ErrKeyInvalidParameter = "error_request_invalid_parameter"
	ErrKeyHTMLPlayer       = "error_request_html_player"
	ErrKeyNotFound         = "error_request_not_found"
	ErrKeyAccessDenied     = "error_request_access_denied"
	ErrKeyUnknown          = "error_request_unknown"
	ErrKeyPlayerLoad       = "error_player_load"
)

// ErrorMessageKey maps a player error code to its message key.
func ErrorMessageKey(code int) string {
	switch code {
	case media.ErrorInvalidParameter:
		return ErrKeyInvalidParameter
	case media.ErrorHTML5Player:
		return ErrKeyHTMLPlayer
	case media.ErrorNotFound:
		return ErrKeyNotFound
	case media.ErrorEmbedNotAllowed, media.ErrorEmbedNotAllowedAlias:
		return ErrKeyAccessDenied
	default:
		return ErrKeyUnknown
	}
}

// Storage keys
const (
	KeyVolume = "volume"
	KeyRepeat = "repeat"
)
