package signaling

import (
	"context"
	"errors"
	"sync"
)

type fakeTrack struct {
	mu      sync.Mutex
	kind    TrackKind
	enabled bool
	stopped bool
	stopErr error
}

func (t *fakeTrack) Kind() TrackKind { return t.kind }

func (t *fakeTrack) SetEnabled(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = on
}

func (t *fakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *fakeTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return t.stopErr
}

func (t *fakeTrack) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakePeer struct {
	mu         sync.Mutex
	name       string
	tracks     []LocalTrack
	remote     []SDPType
	candidates []Candidate
	candErr    error
	closed     bool
	closeErr   error

	onCandidate func(Candidate)
	onTrack     func(TrackKind)
	onICE       func(ICEState)
}

func (p *fakePeer) AddTrack(t LocalTrack) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = append(p.tracks, t)
	return nil
}

func (p *fakePeer) CreateOffer(context.Context) (string, error)  { return "offer-from-" + p.name, nil }
func (p *fakePeer) CreateAnswer(context.Context) (string, error) { return "answer-from-" + p.name, nil }

func (p *fakePeer) SetRemoteDescription(kind SDPType, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remote = append(p.remote, kind)
	return nil
}

func (p *fakePeer) AddICECandidate(c Candidate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.candErr != nil {
		return p.candErr
	}
	p.candidates = append(p.candidates, c)
	return nil
}

func (p *fakePeer) OnICECandidate(fn func(Candidate))            { p.onCandidate = fn }
func (p *fakePeer) OnTrack(fn func(TrackKind))                   { p.onTrack = fn }
func (p *fakePeer) OnICEConnectionStateChange(fn func(ICEState)) { p.onICE = fn }

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

func (p *fakePeer) remoteDescriptions() []SDPType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SDPType(nil), p.remote...)
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeEngine struct {
	mu       sync.Mutex
	name     string
	mediaErr error
	tracks   []*fakeTrack
	peers    []*fakePeer
	closeErr error

	// beforePeer runs at the start of NewPeer, outside the engine lock
	beforePeer func()
}

func newFakeEngine(name string) *fakeEngine {
	return &fakeEngine{name: name}
}

func (e *fakeEngine) AcquireLocalMedia(context.Context) ([]LocalTrack, error) {
	if e.mediaErr != nil {
		return nil, e.mediaErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks = []*fakeTrack{{kind: TrackAudio, enabled: true}, {kind: TrackVideo, enabled: true}}
	return []LocalTrack{e.tracks[0], e.tracks[1]}, nil
}

func (e *fakeEngine) NewPeer(context.Context) (Peer, error) {
	if e.beforePeer != nil {
		e.beforePeer()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p := &fakePeer{name: e.name, closeErr: e.closeErr}
	e.peers = append(e.peers, p)
	return p, nil
}

func (e *fakeEngine) peer() *fakePeer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.peers) == 0 {
		return nil
	}
	return e.peers[0]
}

var errDeviceBusy = errors.New("device busy")
