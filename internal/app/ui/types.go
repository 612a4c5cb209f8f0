// Package ui provides the ancillary interface state store.
package ui

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrMissingModalPayload is returned when a modal is opened without the data
// it displays.
var ErrMissingModalPayload = errors.New("missing modal payload")

// Modal identifies the active modal dialog.
type Modal int

const (
	ModalNone Modal = iota
	ModalLogin
	ModalRegister
	ModalAddVideo
	ModalResetPass
	ModalEditPlaylist
)

var modalNames = map[Modal]string{
	ModalNone:         "none",
	ModalLogin:        "login",
	ModalRegister:     "register",
	ModalAddVideo:     "addVideo",
	ModalResetPass:    "resetPass",
	ModalEditPlaylist: "editPlaylist",
}

// String returns the string representation of the modal.
func (m Modal) String() string {
	if name, ok := modalNames[m]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m Modal) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Modal) UnmarshalText(text []byte) error {
	parsed, err := ParseModal(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseModal returns the modal with the given name.
func ParseModal(name string) (Modal, error) {
	for m, n := range modalNames {
		if n == name {
			return m, nil
		}
	}
	return ModalNone, errors.Newf("unknown modal %q", name)
}

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

// Notification is a transient message shown to the user.
type Notification struct {
	ID       string           `json:"id"`
	Message  string           `json:"message"`
	Type     NotificationType `json:"type"`
	Duration time.Duration    `json:"duration"` // zero means sticky
}

// AddVideoData is the payload of the add-video modal.
type AddVideoData struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// State is the ancillary interface state.
type State struct {
	IsMobile       bool           `json:"is_mobile"`
	ActiveModal    Modal          `json:"active_modal"`
	AddVideoData   *AddVideoData  `json:"add_video_data,omitempty"`
	EditPlaylistID string         `json:"edit_playlist_id,omitempty"`
	Notifications  []Notification `json:"notifications"`
	SessionExpired bool           `json:"session_expired"`
	Language       string         `json:"language"`
}

func (s State) clone() State {
	s.Notifications = slices.Clone(s.Notifications)
	if s.AddVideoData != nil {
		data := *s.AddVideoData
		s.AddVideoData = &data
	}
	return s
}
