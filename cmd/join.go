package cmd

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"expertmeet/config"
	"expertmeet/services/signaling"
	"expertmeet/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// opusSilence is a single 20ms Opus frame of silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

func newJoinCommand() *cobra.Command {
	var (
		roomID   string
		identity string
		silence  bool
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a call room as a headless participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runJoin(ctx, roomID, identity, silence)
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Call room id")
	cmd.Flags().StringVar(&identity, "identity", "", "Participant identity (user id)")
	cmd.Flags().BoolVar(&silence, "silence", true, "Send Opus silence on the audio track")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func runJoin(ctx context.Context, roomID, identity string, silence bool) error {
	logger := utils.GetLogger().Named("join")
	client := utils.GetSignalClient()
	presenceTTL := time.Duration(config.AppConfig.PresenceTTLMinutes) * time.Minute

	var engine signaling.MediaEngine = signaling.NewPionEngine(config.STUNServers(), logger)
	if silence {
		engine = &silenceEngine{MediaEngine: engine, ctx: ctx}
	}

	onState, failed := watchForFailure(logger)
	coord, err := signaling.NewCoordinator(signaling.Config{
		RoomID:   roomID,
		Identity: identity,
		Channel:  signaling.NewRedisChannel(client, logger),
		Presence: signaling.NewRedisPresence(client, presenceTTL, logger),
		Engine:   engine,
		Logger:   logger,
		OnStateChange: onState,
		OnError: func(err error) {
			logger.Warn("call error", zap.String("kind", string(utils.KindOf(err))), zap.Error(err))
		},
	})
	if err != nil {
		return err
	}
	if err := coord.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-coord.Done():
	case <-failed:
	}

	endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := coord.End(endCtx); err != nil {
		logger.Warn("call teardown incomplete", zap.Error(err))
	}
	logger.Info("left room", zap.String("state", string(coord.State())))
	return nil
}

// watchForFailure logs state changes and closes the returned channel once the
// call reaches the terminal failed state.
func watchForFailure(logger *zap.Logger) (func(signaling.State), <-chan struct{}) {
	failed := make(chan struct{})
	var once sync.Once
	return func(s signaling.State) {
		logger.Info("call state", zap.String("state", string(s)))
		if s == signaling.StateFailed {
			once.Do(func() { close(failed) })
		}
	}, failed
}

// silenceEngine feeds Opus silence into the audio sample track so the remote
// side receives a live stream.
type silenceEngine struct {
	signaling.MediaEngine
	ctx context.Context
}

func (e *silenceEngine) AcquireLocalMedia(ctx context.Context) ([]signaling.LocalTrack, error) {
	tracks, err := e.MediaEngine.AcquireLocalMedia(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		if st, ok := t.(*signaling.SampleTrack); ok && st.Kind() == signaling.TrackAudio {
			go feedSilence(e.ctx, st)
		}
	}
	return tracks, nil
}

func feedSilence(ctx context.Context, track *signaling.SampleTrack) {
	const frame = 20 * time.Millisecond
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := track.WriteSample(opusSilence, frame); err != nil {
				return
			}
		}
	}
}
