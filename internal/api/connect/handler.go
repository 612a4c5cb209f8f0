package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// Service names.
const (
	PlayerServiceName  = "tubebox.v1.PlayerService"
	ControlServiceName = "tubebox.v1.ControlService"
)

// PlayerService procedures.
const (
	PlayerServiceGetStatusProcedure     = "/" + PlayerServiceName + "/GetStatus"
	PlayerServiceGetUIStateProcedure    = "/" + PlayerServiceName + "/GetUIState"
	PlayerServiceSearchProcedure        = "/" + PlayerServiceName + "/Search"
	PlayerServiceListProvidersProcedure = "/" + PlayerServiceName + "/ListProviders"
	PlayerServiceGetHistoryProcedure    = "/" + PlayerServiceName + "/GetHistory"
	PlayerServiceSubscribeProcedure     = "/" + PlayerServiceName + "/Subscribe"
)

// ControlService procedures.
const (
	ControlServiceTogglePlayProcedure          = "/" + ControlServiceName + "/TogglePlay"
	ControlServiceNextProcedure                = "/" + ControlServiceName + "/Next"
	ControlServicePreviousProcedure            = "/" + ControlServiceName + "/Previous"
	ControlServicePlayProcedure                = "/" + ControlServiceName + "/Play"
	ControlServiceRemoveProcedure              = "/" + ControlServiceName + "/Remove"
	ControlServiceSeekProcedure                = "/" + ControlServiceName + "/Seek"
	ControlServiceSeekPercentProcedure         = "/" + ControlServiceName + "/SeekPercent"
	ControlServiceSetVolumeProcedure           = "/" + ControlServiceName + "/SetVolume"
	ControlServiceToggleMuteProcedure          = "/" + ControlServiceName + "/ToggleMute"
	ControlServiceToggleRepeatProcedure        = "/" + ControlServiceName + "/ToggleRepeat"
	ControlServiceToggleShuffleProcedure       = "/" + ControlServiceName + "/ToggleShuffle"
	ControlServiceStopProcedure                = "/" + ControlServiceName + "/Stop"
	ControlServiceEnqueueProcedure             = "/" + ControlServiceName + "/Enqueue"
	ControlServiceLoadPlaylistProcedure        = "/" + ControlServiceName + "/LoadPlaylist"
	ControlServiceClearQueueProcedure          = "/" + ControlServiceName + "/ClearQueue"
	ControlServiceLogoutProcedure              = "/" + ControlServiceName + "/Logout"
	ControlServiceSetLanguageProcedure         = "/" + ControlServiceName + "/SetLanguage"
	ControlServiceDismissNotificationProcedure = "/" + ControlServiceName + "/DismissNotification"
	ControlServiceSetModalProcedure            = "/" + ControlServiceName + "/SetModal"
	ControlServiceSetUIFlagsProcedure          = "/" + ControlServiceName + "/SetUIFlags"
)

func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewPlayerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	mux := http.NewServeMux()
	mux.Handle(PlayerServiceGetStatusProcedure, connect.NewUnaryHandler(PlayerServiceGetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(PlayerServiceGetUIStateProcedure, connect.NewUnaryHandler(PlayerServiceGetUIStateProcedure, svc.GetUIState, opts...))
	mux.Handle(PlayerServiceSearchProcedure, connect.NewUnaryHandler(PlayerServiceSearchProcedure, svc.Search, opts...))
	mux.Handle(PlayerServiceListProvidersProcedure, connect.NewUnaryHandler(PlayerServiceListProvidersProcedure, svc.ListProviders, opts...))
	mux.Handle(PlayerServiceGetHistoryProcedure, connect.NewUnaryHandler(PlayerServiceGetHistoryProcedure, svc.GetHistory, opts...))
	mux.Handle(PlayerServiceSubscribeProcedure, connect.NewServerStreamHandler(PlayerServiceSubscribeProcedure, svc.Subscribe, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// NewControlServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewControlServiceHandler(svc *ControlService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	mux := http.NewServeMux()
	mux.Handle(ControlServiceTogglePlayProcedure, connect.NewUnaryHandler(ControlServiceTogglePlayProcedure, svc.TogglePlay, opts...))
	mux.Handle(ControlServiceNextProcedure, connect.NewUnaryHandler(ControlServiceNextProcedure, svc.Next, opts...))
	mux.Handle(ControlServicePreviousProcedure, connect.NewUnaryHandler(ControlServicePreviousProcedure, svc.Previous, opts...))
	mux.Handle(ControlServicePlayProcedure, connect.NewUnaryHandler(ControlServicePlayProcedure, svc.Play, opts...))
	mux.Handle(ControlServiceRemoveProcedure, connect.NewUnaryHandler(ControlServiceRemoveProcedure, svc.Remove, opts...))
	mux.Handle(ControlServiceSeekProcedure, connect.NewUnaryHandler(ControlServiceSeekProcedure, svc.Seek, opts...))
	mux.Handle(ControlServiceSeekPercentProcedure, connect.NewUnaryHandler(ControlServiceSeekPercentProcedure, svc.SeekPercent, opts...))
	mux.Handle(ControlServiceSetVolumeProcedure, connect.NewUnaryHandler(ControlServiceSetVolumeProcedure, svc.SetVolume, opts...))
	mux.Handle(ControlServiceToggleMuteProcedure, connect.NewUnaryHandler(ControlServiceToggleMuteProcedure, svc.ToggleMute, opts...))
	mux.Handle(ControlServiceToggleRepeatProcedure, connect.NewUnaryHandler(ControlServiceToggleRepeatProcedure, svc.ToggleRepeat, opts...))
	mux.Handle(ControlServiceToggleShuffleProcedure, connect.NewUnaryHandler(ControlServiceToggleShuffleProcedure, svc.ToggleShuffle, opts...))
	mux.Handle(ControlServiceStopProcedure, connect.NewUnaryHandler(ControlServiceStopProcedure, svc.Stop, opts...))
	mux.Handle(ControlServiceEnqueueProcedure, connect.NewUnaryHandler(ControlServiceEnqueueProcedure, svc.Enqueue, opts...))
	mux.Handle(ControlServiceLoadPlaylistProcedure, connect.NewUnaryHandler(ControlServiceLoadPlaylistProcedure, svc.LoadPlaylist, opts...))
	mux.Handle(ControlServiceClearQueueProcedure, connect.NewUnaryHandler(ControlServiceClearQueueProcedure, svc.ClearQueue, opts...))
	mux.Handle(ControlServiceLogoutProcedure, connect.NewUnaryHandler(ControlServiceLogoutProcedure, svc.Logout, opts...))
	mux.Handle(ControlServiceSetLanguageProcedure, connect.NewUnaryHandler(ControlServiceSetLanguageProcedure, svc.SetLanguage, opts...))
	mux.Handle(ControlServiceDismissNotificationProcedure, connect.NewUnaryHandler(ControlServiceDismissNotificationProcedure, svc.DismissNotification, opts...))
	mux.Handle(ControlServiceSetModalProcedure, connect.NewUnaryHandler(ControlServiceSetModalProcedure, svc.SetModal, opts...))
	mux.Handle(ControlServiceSetUIFlagsProcedure, connect.NewUnaryHandler(ControlServiceSetUIFlagsProcedure, svc.SetUIFlags, opts...))
	return "/" + ControlServiceName + "/", mux
}
