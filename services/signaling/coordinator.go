package signaling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expertmeet/utils"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateFailed     State = "failed"
)

const eventBuffer = 64

// Config wires a Coordinator to its room and capabilities. OnStateChange and
// OnError are called synchronously and must not call End.
type Config struct {
	RoomID   string
	Identity string
	Channel  MessageChannel
	Presence PresenceTracker
	Engine   MediaEngine
	Logger   *zap.Logger

	OnStateChange func(State)
	OnError       func(error)
}

// Coordinator negotiates one peer connection between the two participants of
// a room. The first of two present participants sends the only offer; the
// other answers. Channel messages, presence changes and engine callbacks are
// all handled on a single goroutine.
type Coordinator struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	started bool
	ended   bool
	tracks  []LocalTrack
	peer    Peer
	sub     Subscription
	unwatch func()
	tracked bool

	ctx     context.Context
	cancel  context.CancelFunc
	watchCh <-chan struct{}
	events  chan func(context.Context)
	done    chan struct{}

	// owned by the event goroutine
	initiator     bool
	offered       bool
	answerApplied bool

	endOnce sync.Once
	endErr  error
}

func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.RoomID == "" || cfg.Identity == "" {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "room and identity are required")
	}
	if cfg.Channel == nil || cfg.Presence == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("coordinator initialization error: channel, presence or engine is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:    cfg,
		logger: logger.With(zap.String("room", cfg.RoomID), zap.String("identity", cfg.Identity)),
		state:  StateIdle,
		events: make(chan func(context.Context), eventBuffer),
		done:   make(chan struct{}),
	}, nil
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the event goroutine exits.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Start acquires local media, creates the peer, subscribes to the room and
// announces presence. Without local media nothing else is set up.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("coordinator for room %s already started", c.cfg.RoomID)
	}
	c.started = true
	c.mu.Unlock()

	tracks, err := c.cfg.Engine.AcquireLocalMedia(ctx)
	if err != nil {
		close(c.done)
		return utils.WrapAppError(utils.KindMediaAcquisition, err, "could not access camera or microphone")
	}
	c.mu.Lock()
	c.tracks = tracks
	c.mu.Unlock()

	if err := c.setup(ctx); err != nil {
		close(c.done)
		c.mu.Lock()
		endedDuringSetup := c.ended
		c.mu.Unlock()
		cleanup := func() error { return c.End(context.WithoutCancel(ctx)) }
		if endedDuringSetup {
			// End already ran its teardown, possibly before setup allocated anything
			cleanup = func() error { return c.teardown(context.WithoutCancel(ctx)) }
		}
		if endErr := cleanup(); endErr != nil {
			c.logger.Warn("cleanup after failed start", zap.Error(endErr))
		}
		return err
	}

	c.setState(StateConnecting)
	go c.loop()
	c.post(func(ctx context.Context) { c.onPresence(ctx) })
	return nil
}

func (c *Coordinator) setup(ctx context.Context) error {
	peer, err := c.cfg.Engine.NewPeer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}
	c.mu.Lock()
	c.peer = peer
	c.mu.Unlock()

	for _, t := range c.tracks {
		if err := peer.AddTrack(t); err != nil {
			return fmt.Errorf("failed to attach %s track: %w", t.Kind(), err)
		}
	}
	peer.OnICECandidate(func(cand Candidate) {
		c.post(func(ctx context.Context) { c.publish(ctx, cand) })
	})
	peer.OnTrack(func(kind TrackKind) {
		c.post(func(context.Context) { c.onRemoteTrack(kind) })
	})
	peer.OnICEConnectionStateChange(func(s ICEState) {
		c.post(func(context.Context) { c.onICEState(s) })
	})

	sub, err := c.cfg.Channel.Subscribe(ctx, c.cfg.RoomID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to room: %w", err)
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	watch, unwatch, err := c.cfg.Presence.Watch(ctx, c.cfg.RoomID)
	if err != nil {
		return fmt.Errorf("failed to watch presence: %w", err)
	}
	c.mu.Lock()
	c.unwatch = unwatch
	c.mu.Unlock()

	if err := c.cfg.Presence.Track(ctx, c.cfg.RoomID, c.cfg.Identity); err != nil {
		return fmt.Errorf("failed to announce presence: %w", err)
	}
	c.mu.Lock()
	c.tracked = true
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.ctx, c.cancel = loopCtx, cancel
	ended := c.ended
	c.mu.Unlock()
	if ended {
		cancel()
		return utils.NewAppError(utils.KindSignaling, "call ended during setup")
	}
	c.watchCh = watch
	return nil
}

func (c *Coordinator) loop() {
	defer close(c.done)
	msgs := c.sub.Messages()
	watch := c.watchCh
	for {
		select {
		case <-c.ctx.Done():
			return
		case fn := <-c.events:
			fn(c.ctx)
		case raw, ok := <-msgs:
			if !ok {
				msgs = nil
				if c.ctx.Err() == nil {
					c.report(utils.NewAppError(utils.KindSignaling, "room channel closed"))
				}
				continue
			}
			c.onMessage(c.ctx, raw)
		case _, ok := <-watch:
			if !ok {
				watch = nil
				continue
			}
			c.onPresence(c.ctx)
		}
	}
}

// post queues fn for the event goroutine. It is dropped once the coordinator ended.
func (c *Coordinator) post(fn func(context.Context)) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

func (c *Coordinator) onPresence(ctx context.Context) {
	if c.offered {
		return
	}
	entries, err := c.cfg.Presence.State(ctx, c.cfg.RoomID)
	if err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not read room presence"))
		return
	}
	if len(entries) != 2 || entries[0].Identity != c.cfg.Identity || entries[1].Identity == c.cfg.Identity {
		return
	}

	c.initiator = true
	c.offered = true
	sdp, err := c.peer.CreateOffer(ctx)
	if err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not create offer"))
		return
	}
	c.logger.Info("sending offer", zap.String("peer", entries[1].Identity))
	c.publish(ctx, Offer{SDP: sdp})
}

func (c *Coordinator) onMessage(ctx context.Context, raw []byte) {
	env, err := Decode(raw)
	if err != nil {
		c.report(err)
		return
	}
	if env.From == c.cfg.Identity {
		return
	}

	switch sig := env.Signal.(type) {
	case Offer:
		c.onOffer(ctx, env.From, sig)
	case Answer:
		c.onAnswer(env.From, sig)
	case Candidate:
		c.onCandidate(sig)
	default:
		c.report(utils.NewAppError(utils.KindSignaling, "unhandled signal %T from %s", sig, env.From))
	}
}

func (c *Coordinator) onOffer(ctx context.Context, from string, offer Offer) {
	if c.initiator {
		c.report(utils.NewAppError(utils.KindSignaling, "ignored offer from %s: this side is the initiator", from))
		return
	}
	if err := c.peer.SetRemoteDescription(SDPOffer, offer.SDP); err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not apply offer from %s", from))
		return
	}
	sdp, err := c.peer.CreateAnswer(ctx)
	if err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not create answer"))
		return
	}
	c.logger.Info("answering offer", zap.String("peer", from))
	c.publish(ctx, Answer{SDP: sdp})
}

func (c *Coordinator) onAnswer(from string, answer Answer) {
	if !c.offered {
		c.report(utils.NewAppError(utils.KindSignaling, "ignored answer from %s: no offer was sent", from))
		return
	}
	if c.answerApplied {
		c.report(utils.NewAppError(utils.KindSignaling, "ignored duplicate answer from %s", from))
		return
	}
	if err := c.peer.SetRemoteDescription(SDPAnswer, answer.SDP); err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not apply answer from %s", from))
		return
	}
	c.answerApplied = true
}

func (c *Coordinator) onCandidate(cand Candidate) {
	if cand.Candidate == "" {
		return
	}
	if err := c.peer.AddICECandidate(cand); err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not apply ICE candidate"))
	}
}

func (c *Coordinator) onRemoteTrack(kind TrackKind) {
	c.logger.Debug("remote track", zap.String("kind", string(kind)))
	if c.State() == StateConnecting {
		c.setState(StateConnected)
	}
}

func (c *Coordinator) onICEState(s ICEState) {
	c.logger.Debug("ice state", zap.String("state", string(s)))
	if s != ICEFailed {
		return
	}
	if c.setState(StateFailed) {
		c.report(utils.NewAppError(utils.KindIceFailure, "peer connection could not be established"))
	}
}

func (c *Coordinator) publish(ctx context.Context, s Signal) {
	raw, err := Encode(c.cfg.Identity, s)
	if err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not encode %s", s.Type()))
		return
	}
	if err := c.cfg.Channel.Publish(ctx, c.cfg.RoomID, raw); err != nil {
		c.report(utils.WrapAppError(utils.KindSignaling, err, "could not send %s", s.Type()))
	}
}

// setState applies a transition and reports whether it happened. Failed is terminal.
func (c *Coordinator) setState(s State) bool {
	c.mu.Lock()
	if c.state == s || c.state == StateFailed {
		c.mu.Unlock()
		return false
	}
	c.state = s
	c.mu.Unlock()

	c.logger.Info("call state changed", zap.String("state", string(s)))
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(s)
	}
	return true
}

func (c *Coordinator) report(err error) {
	c.logger.Warn("signaling problem", zap.String("kind", string(utils.KindOf(err))), zap.Error(err))
	if c.cfg.OnError != nil {
		c.cfg.OnError(err)
	}
}

// SetMicrophoneEnabled toggles local audio. Nothing is sent to the peer.
func (c *Coordinator) SetMicrophoneEnabled(enabled bool) {
	c.setEnabled(TrackAudio, enabled)
}

// SetCameraEnabled toggles local video. Nothing is sent to the peer.
func (c *Coordinator) SetCameraEnabled(enabled bool) {
	c.setEnabled(TrackVideo, enabled)
}

func (c *Coordinator) setEnabled(kind TrackKind, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tracks {
		if t.Kind() == kind {
			t.SetEnabled(enabled)
		}
	}
}

// End releases local tracks, the peer, the room subscription and presence, in
// that order. Every step runs even when an earlier one fails; the errors are
// joined. Later calls return the first result. Ending a coordinator that never
// started prevents it from starting.
func (c *Coordinator) End(ctx context.Context) error {
	c.endOnce.Do(func() {
		c.mu.Lock()
		neverStarted := !c.started
		c.started = true
		c.ended = true
		cancel := c.cancel
		c.mu.Unlock()
		if neverStarted {
			close(c.done)
		}
		if cancel != nil {
			cancel()
		}
		c.endErr = c.teardown(ctx)
		c.logger.Info("call ended")
	})
	return c.endErr
}

func (c *Coordinator) teardown(ctx context.Context) error {
	c.mu.Lock()
	tracks, peer, sub, unwatch, tracked := c.tracks, c.peer, c.sub, c.unwatch, c.tracked
	c.mu.Unlock()

	var errs []error
	for _, t := range tracks {
		errs = append(errs, attempt("stop "+string(t.Kind())+" track", t.Stop))
	}
	if peer != nil {
		errs = append(errs, attempt("close peer", peer.Close))
	}
	if sub != nil {
		errs = append(errs, attempt("unsubscribe", sub.Close))
	}
	if unwatch != nil {
		errs = append(errs, attempt("stop presence watch", func() error { unwatch(); return nil }))
	}
	if tracked {
		errs = append(errs, attempt("leave presence", func() error {
			return c.cfg.Presence.Untrack(ctx, c.cfg.RoomID, c.cfg.Identity)
		}))
	}
	return errors.Join(errs...)
}

// attempt runs one cleanup step, turning a panic into an error.
func attempt(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", step, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}
