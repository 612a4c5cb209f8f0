// Package main provides the command line client entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/tubebox/internal/api/connect"
	"github.com/osa030/tubebox/internal/app/session"
	"github.com/osa030/tubebox/internal/app/ui"
	"github.com/osa030/tubebox/internal/domain/track"
)

var (
	app    = kingpin.New("tubebox-ctl", "Tubebox command line client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("TUBEBOX_SERVER").String()
	token  = app.Flag("token", "Control token (or set TUBEBOX_CONTROL_TOKEN env)").Envar("TUBEBOX_CONTROL_TOKEN").String()

	statusCmd = app.Command("status", "Show player and queue status")

	toggleCmd = app.Command("toggle", "Toggle between play and pause").Alias("pause")
	nextCmd   = app.Command("next", "Play the next track")
	prevCmd   = app.Command("prev", "Play the previous track")
	stopCmd   = app.Command("stop", "Stop playback")

	playCmd      = app.Command("play", "Play a queued track")
	playIndex    = playCmd.Arg("index", "Queue item index").Required().Int()
	playPosition = playCmd.Flag("position", "Treat index as a playback position").Bool()

	removeCmd   = app.Command("remove", "Remove a queued track")
	removeIndex = removeCmd.Arg("index", "Queue item index").Required().Int()

	seekCmd     = app.Command("seek", "Move the playhead")
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()
	seekPercent = seekCmd.Flag("percent", "Treat the value as a percentage of the duration").Bool()

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume from 0 to 100").Required().Int()

	muteCmd    = app.Command("mute", "Toggle mute")
	repeatCmd  = app.Command("repeat", "Toggle repeat")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle")

	enqueueCmd    = app.Command("enqueue", "Add a video to the queue").Alias("add")
	enqueueKey    = enqueueCmd.Arg("key", "Video key").Required().String()
	enqueueTitle  = enqueueCmd.Flag("title", "Track title").String()
	enqueueArtist = enqueueCmd.Flag("artist", "Track artist").String()
	enqueueNext   = enqueueCmd.Flag("next", "Play after the current track").Bool()

	loadCmd      = app.Command("load", "Replace the queue with a playlist")
	loadProvider = loadCmd.Arg("provider", "Catalog provider name").Required().String()
	loadRef      = loadCmd.Arg("ref", "Playlist ID or URL").Required().String()
	loadStart    = loadCmd.Flag("start", "Index of the first track to play").Default("0").Int()

	clearCmd  = app.Command("clear", "Clear the queue")
	logoutCmd = app.Command("logout", "Stop playback and reset the session")

	languageCmd  = app.Command("language", "Switch the interface language")
	languageName = languageCmd.Arg("lang", "Language code").Required().String()

	dismissCmd = app.Command("dismiss", "Dismiss a notification")
	dismissID  = dismissCmd.Arg("id", "Notification ID").Required().String()

	modalCmd        = app.Command("modal", "Open a modal (login, register, addVideo, resetPass, editPlaylist) or close it (none)")
	modalName       = modalCmd.Arg("modal", "Modal name").Required().String()
	modalKey        = modalCmd.Flag("key", "Video key for addVideo").String()
	modalTitle      = modalCmd.Flag("title", "Video title for addVideo").String()
	modalArtist     = modalCmd.Flag("artist", "Video artist for addVideo").String()
	modalPlaylistID = modalCmd.Flag("playlist", "Playlist ID for editPlaylist").String()

	uiFlagsCmd       = app.Command("ui-flags", "Set the mobile and session-expired flags")
	uiMobile         = uiFlagsCmd.Flag("mobile", "Mobile viewport").IsSetByUser(&uiMobileSet).Bool()
	uiSessionExpired = uiFlagsCmd.Flag("session-expired", "Session expired").IsSetByUser(&uiExpiredSet).Bool()
	uiMobileSet      bool
	uiExpiredSet     bool

	searchCmd      = app.Command("search", "Search the catalog")
	searchQuery    = searchCmd.Arg("query", "Search query").Required().String()
	searchProvider = searchCmd.Flag("provider", "Provider name (default: all)").String()
	searchLimit    = searchCmd.Flag("limit", "Maximum results").Default("10").Int()

	providersCmd = app.Command("providers", "List catalog providers")

	historyCmd   = app.Command("history", "Show recently played tracks")
	historyLimit = historyCmd.Flag("limit", "Maximum entries (0: server default)").Default("0").Int()

	watchCmd = app.Command("watch", "Print notifications as they arrive")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if command != watchCmd.FullCommand() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := execute(ctx, client, command); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, client *apiconnect.Client, command string) error {
	switch command {
	case statusCmd.FullCommand():
		return status(ctx, client)
	case toggleCmd.FullCommand():
		return toggle(client.TogglePlay(ctx))("Playing", "Paused")
	case nextCmd.FullCommand():
		return control(client.Next(ctx))
	case prevCmd.FullCommand():
		return control(client.Previous(ctx))
	case stopCmd.FullCommand():
		return control(client.Stop(ctx))
	case playCmd.FullCommand():
		return control(client.Play(ctx, &apiconnect.PlayRequest{Index: *playIndex, IndexInitial: *playPosition}))
	case removeCmd.FullCommand():
		return control(client.Remove(ctx, *removeIndex))
	case seekCmd.FullCommand():
		if *seekPercent {
			return control(client.SeekPercent(ctx, *seekSeconds))
		}
		return control(client.Seek(ctx, *seekSeconds))
	case volumeCmd.FullCommand():
		return control(client.SetVolume(ctx, *volumeLevel))
	case muteCmd.FullCommand():
		return toggle(client.ToggleMute(ctx))("Muted", "Unmuted")
	case repeatCmd.FullCommand():
		return toggle(client.ToggleRepeat(ctx))("Repeat on", "Repeat off")
	case shuffleCmd.FullCommand():
		return toggle(client.ToggleShuffle(ctx))("Shuffle on", "Shuffle off")
	case enqueueCmd.FullCommand():
		return enqueue(ctx, client)
	case loadCmd.FullCommand():
		return load(ctx, client)
	case clearCmd.FullCommand():
		return control(client.ClearQueue(ctx))
	case logoutCmd.FullCommand():
		return control(client.Logout(ctx))
	case languageCmd.FullCommand():
		return control(client.SetLanguage(ctx, *languageName))
	case dismissCmd.FullCommand():
		return control(client.DismissNotification(ctx, *dismissID))
	case modalCmd.FullCommand():
		req := &apiconnect.SetModalRequest{Modal: *modalName, PlaylistID: *modalPlaylistID}
		if *modalKey != "" {
			req.AddVideo = &ui.AddVideoData{Key: *modalKey, Title: *modalTitle, Artist: *modalArtist}
		}
		return control(client.SetModal(ctx, req))
	case uiFlagsCmd.FullCommand():
		req := &apiconnect.SetUIFlagsRequest{}
		if uiMobileSet {
			req.Mobile = uiMobile
		}
		if uiExpiredSet {
			req.SessionExpired = uiSessionExpired
		}
		return control(client.SetUIFlags(ctx, req))
	case searchCmd.FullCommand():
		return search(ctx, client)
	case providersCmd.FullCommand():
		return providers(ctx, client)
	case historyCmd.FullCommand():
		return history(ctx, client)
	case watchCmd.FullCommand():
		return watch(ctx, client)
	}
	return nil
}

func control(resp *apiconnect.ControlResponse, err error) error {
	if err != nil {
		return err
	}
	if !resp.Success {
		fmt.Printf("Failed: %s (%s)\n", resp.Message, resp.Code)
		return nil
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	} else {
		fmt.Println("OK")
	}
	return nil
}

func toggle(resp *apiconnect.ToggleResponse, err error) func(on, off string) error {
	return func(on, off string) error {
		if err != nil {
			return err
		}
		if resp.Enabled {
			fmt.Println(on)
		} else {
			fmt.Println(off)
		}
		return nil
	}
}

func status(ctx context.Context, client *apiconnect.Client) error {
	s, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	printStatus(s)
	return nil
}

func printStatus(s *session.Status) {
	fmt.Println("\n=== CURRENT STATUS ===")
	fmt.Printf("Player: %s (ready: %v)\n", s.Player.Status, s.Player.IsPlayerReady)
	fmt.Printf("Volume: %d (muted: %v)\n", s.Player.Volume, s.Player.IsMuted)
	fmt.Printf("Repeat: %v  Shuffle: %v\n", s.Player.IsRepeat, s.Queue.IsShuffled)

	if s.NowPlaying != nil {
		fmt.Println("\nNow Playing:")
		fmt.Printf("  %s\n", formatTrack(*s.NowPlaying))
		fmt.Printf("  Position: %s / %s\n",
			formatSeconds(s.Player.CurrentTime), formatSeconds(s.Player.Duration))
	} else {
		fmt.Println("\nNothing playing")
	}

	fmt.Printf("\nQueue (%d):\n", len(s.Queue.Items))
	for pos, idx := range s.Queue.TabIndex {
		marker := "  "
		if pos == s.Queue.CurrentIndex {
			marker = "> "
		}
		fmt.Printf("%s[%d] %s\n", marker, idx, formatTrack(s.Queue.Items[idx]))
	}
	fmt.Println()
}

func enqueue(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.Enqueue(ctx, &apiconnect.EnqueueRequest{
		Tracks:   []track.Track{{Key: *enqueueKey, Title: *enqueueTitle, Artist: *enqueueArtist}},
		PlayNext: *enqueueNext,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added %d track(s)\n", resp.Added)
	printRejected(resp.Rejected)
	return nil
}

func load(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.LoadPlaylist(ctx, &apiconnect.LoadPlaylistRequest{
		Provider: *loadProvider,
		Ref:      *loadRef,
		Start:    *loadStart,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %q: %d track(s)\n", resp.Title, resp.Loaded)
	printRejected(resp.Rejected)
	return nil
}

func printRejected(rejected []apiconnect.RejectedTrack) {
	for _, r := range rejected {
		fmt.Printf("  rejected %s %q: %s\n", r.Key, r.Title, r.Message)
	}
}

func search(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.Search(ctx, &apiconnect.SearchRequest{
		Provider: *searchProvider,
		Query:    *searchQuery,
		Limit:    *searchLimit,
	})
	if err != nil {
		return err
	}
	if len(resp.Tracks) == 0 {
		fmt.Println("No results")
		return nil
	}
	for _, t := range resp.Tracks {
		fmt.Printf("%-12s %s\n", t.Key, formatTrack(t))
	}
	return nil
}

func providers(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.ListProviders(ctx)
	if err != nil {
		return err
	}
	for _, name := range resp.Providers {
		fmt.Println(name)
	}
	return nil
}

func history(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.GetHistory(ctx, *historyLimit)
	if err != nil {
		return err
	}
	for _, e := range resp.Entries {
		fmt.Printf("%s  %s\n", e.PlayedAt.Local().Format(time.DateTime), formatTrack(e.Track))
	}
	return nil
}

func watch(ctx context.Context, client *apiconnect.Client) error {
	stream, err := client.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		n := stream.Msg()
		payload, err := json.Marshal(n.Payload)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s %s\n", n.SequenceNo, n.Type, payload)
	}
	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func formatTrack(t track.Track) string {
	s := t.Title
	if s == "" {
		s = t.Key
	}
	if t.Artist != "" {
		s = t.Artist + " - " + s
	}
	if t.Duration > 0 {
		s += " (" + t.Duration.Round(time.Second).String() + ")"
	}
	return s
}

func formatSeconds(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
