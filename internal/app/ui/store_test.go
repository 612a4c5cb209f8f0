package ui

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ShowNotification_Defaults(t *testing.T) {
	s := NewStore(Config{})

	id := s.ShowInfo("hello")

	st := s.State()
	require.Len(t, st.Notifications, 1)
	n := st.Notifications[0]
	assert.Equal(t, id, n.ID)
	assert.Equal(t, "hello", n.Message)
	assert.Equal(t, NotificationInfo, n.Type)
	assert.Equal(t, DefaultNotificationDuration, n.Duration)
	// Non-interactive stores never schedule timers
	assert.Equal(t, 0, s.PendingTimers())
}

func TestStore_ShowNotification_UniqueIDs(t *testing.T) {
	s := NewStore(Config{})

	a := s.ShowSuccess("a")
	b := s.ShowError("b")
	c := s.ShowWarning("c")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)

	types := []NotificationType{}
	for _, n := range s.State().Notifications {
		types = append(types, n.Type)
	}
	assert.Equal(t, []NotificationType{NotificationSuccess, NotificationError, NotificationWarning}, types)
}

func TestStore_AutoDismiss(t *testing.T) {
	s := NewStore(Config{Interactive: true})
	defer s.Close()

	s.ShowInfo("short", WithDuration(20*time.Millisecond))
	sticky := s.ShowError("sticky", WithDuration(0))

	require.Eventually(t, func() bool {
		return len(s.State().Notifications) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, sticky, s.State().Notifications[0].ID)
	assert.Equal(t, 0, s.PendingTimers())
}

func TestStore_NegativeDurationUsesDefault(t *testing.T) {
	s := NewStore(Config{Interactive: true, NotificationDuration: time.Hour})
	defer s.Close()

	s.ShowWarning("oops", WithDuration(-time.Second))

	st := s.State()
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, time.Hour, st.Notifications[0].Duration)
	assert.Equal(t, 1, s.PendingTimers(), "only zero is sticky")
}

func TestStore_Dismiss(t *testing.T) {
	s := NewStore(Config{Interactive: true, NotificationDuration: time.Hour})
	defer s.Close()

	id := s.ShowInfo("bye")
	require.Equal(t, 1, s.PendingTimers())

	assert.True(t, s.Dismiss(id))
	assert.Empty(t, s.State().Notifications)
	assert.Equal(t, 0, s.PendingTimers())

	assert.False(t, s.Dismiss(id))
}

func TestStore_Modals(t *testing.T) {
	s := NewStore(Config{})

	s.OpenAddVideo(AddVideoData{Key: "k1", Title: "Song"})
	st := s.State()
	assert.Equal(t, ModalAddVideo, st.ActiveModal)
	require.NotNil(t, st.AddVideoData)
	assert.Equal(t, "k1", st.AddVideoData.Key)

	// Opening replaces the current modal and its payload
	s.OpenEditPlaylist("PL1")
	st = s.State()
	assert.Equal(t, ModalEditPlaylist, st.ActiveModal)
	assert.Nil(t, st.AddVideoData)
	assert.Equal(t, "PL1", st.EditPlaylistID)

	s.OpenLogin()
	st = s.State()
	assert.Equal(t, ModalLogin, st.ActiveModal)
	assert.Empty(t, st.EditPlaylistID)

	s.OpenRegister()
	assert.Equal(t, ModalRegister, s.State().ActiveModal)
	s.OpenResetPassword()
	assert.Equal(t, ModalResetPass, s.State().ActiveModal)

	s.CloseModal()
	st = s.State()
	assert.Equal(t, ModalNone, st.ActiveModal)
	assert.Nil(t, st.AddVideoData)
	assert.Empty(t, st.EditPlaylistID)
}

func TestStore_OpenModal(t *testing.T) {
	tests := []struct {
		name       string
		modal      Modal
		data       *AddVideoData
		playlistID string
		wantErr    bool
	}{
		{name: "login", modal: ModalLogin},
		{name: "register", modal: ModalRegister},
		{name: "reset password", modal: ModalResetPass},
		{name: "add video", modal: ModalAddVideo, data: &AddVideoData{Key: "k1"}},
		{name: "add video without data", modal: ModalAddVideo, wantErr: true},
		{name: "edit playlist", modal: ModalEditPlaylist, playlistID: "PL1"},
		{name: "edit playlist without id", modal: ModalEditPlaylist, wantErr: true},
		{name: "unknown", modal: Modal(42), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(Config{})
			err := s.OpenModal(tt.modal, tt.data, tt.playlistID)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, ModalNone, s.State().ActiveModal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.modal, s.State().ActiveModal)

			require.NoError(t, s.OpenModal(ModalNone, nil, ""))
			assert.Equal(t, ModalNone, s.State().ActiveModal)
		})
	}

	err := NewStore(Config{}).OpenModal(ModalAddVideo, &AddVideoData{}, "")
	assert.True(t, errors.Is(err, ErrMissingModalPayload))
}

func TestStore_Reset(t *testing.T) {
	s := NewStore(Config{Interactive: true, Language: "ja"})
	defer s.Close()

	s.SetMobile(true)
	s.SetSessionExpired(true)
	s.OpenLogin()
	s.ShowInfo("pending", WithDuration(time.Hour))

	s.Reset()

	st := s.State()
	assert.True(t, st.IsMobile)
	assert.Equal(t, "ja", st.Language)
	assert.False(t, st.SessionExpired)
	assert.Equal(t, ModalNone, st.ActiveModal)
	assert.Empty(t, st.Notifications)
	assert.Equal(t, 0, s.PendingTimers())
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore(Config{})
	s.OpenAddVideo(AddVideoData{Key: "k1"})

	st := s.State()
	st.AddVideoData.Key = "mutated"

	assert.Equal(t, "k1", s.State().AddVideoData.Key)
}

func TestParseModal(t *testing.T) {
	tests := []struct {
		name    string
		want    Modal
		wantErr bool
	}{
		{name: "login", want: ModalLogin},
		{name: "addVideo", want: ModalAddVideo},
		{name: "editPlaylist", want: ModalEditPlaylist},
		{name: "none", want: ModalNone},
		{name: "settings", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModal(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.String())
		})
	}
}
