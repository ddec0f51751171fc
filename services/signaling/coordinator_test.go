package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"expertmeet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	room    = "room_test"
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// spy records every envelope published to a room.
type spy struct {
	mu   sync.Mutex
	envs []Envelope
}

func watchRoom(t *testing.T, hub *MemoryHub) *spy {
	t.Helper()
	sub, err := hub.Subscribe(context.Background(), room)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	s := &spy{}
	go func() {
		for raw := range sub.Messages() {
			env, err := Decode(raw)
			if err != nil {
				continue
			}
			s.mu.Lock()
			s.envs = append(s.envs, env)
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *spy) count(typ SignalType, from string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.envs {
		if e.Signal.Type() == typ && (from == "" || e.From == from) {
			n++
		}
	}
	return n
}

func (s *spy) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.envs)
}

type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) add(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *errorLog) has(kind utils.ErrorKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, err := range l.errs {
		if utils.KindOf(err) == kind {
			return true
		}
	}
	return false
}

type participant struct {
	coord  *Coordinator
	engine *fakeEngine
	errs   *errorLog
}

func join(t *testing.T, hub *MemoryHub, identity string) *participant {
	t.Helper()
	p := &participant{engine: newFakeEngine(identity), errs: &errorLog{}}
	coord, err := NewCoordinator(Config{
		RoomID:   room,
		Identity: identity,
		Channel:  hub,
		Presence: hub,
		Engine:   p.engine,
		OnError:  p.errs.add,
	})
	require.NoError(t, err)
	require.NoError(t, coord.Start(context.Background()))
	t.Cleanup(func() { _ = coord.End(context.Background()) })
	p.coord = coord
	return p
}

func publishRaw(t *testing.T, hub *MemoryHub, raw string) {
	t.Helper()
	require.NoError(t, hub.Publish(context.Background(), room, []byte(raw)))
}

func TestExactlyOneParticipantOffers(t *testing.T) {
	hub := NewMemoryHub()
	s := watchRoom(t, hub)

	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")

	require.Eventually(t, func() bool {
		return len(bob.engine.peer().remoteDescriptions()) == 1 &&
			len(alice.engine.peer().remoteDescriptions()) == 1
	}, waitFor, tick)

	assert.Equal(t, []SDPType{SDPOffer}, bob.engine.peer().remoteDescriptions())
	assert.Equal(t, []SDPType{SDPAnswer}, alice.engine.peer().remoteDescriptions())

	require.Eventually(t, func() bool { return s.count(TypeAnswer, "bob") == 1 }, waitFor, tick)
	assert.Equal(t, 1, s.count(TypeOffer, ""))
	assert.Equal(t, 1, s.count(TypeOffer, "alice"))
	assert.Equal(t, 0, s.count(TypeOffer, "bob"))
	assert.Equal(t, StateConnecting, alice.coord.State())
}

func TestRemoteTrackConnectsAndCandidatesAreRelayed(t *testing.T) {
	hub := NewMemoryHub()
	s := watchRoom(t, hub)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")

	require.Eventually(t, func() bool { return len(alice.engine.peer().remoteDescriptions()) == 1 }, waitFor, tick)

	mid := "0"
	alice.engine.peer().onCandidate(Candidate{Candidate: "candidate:1 1 udp 2122260223 10.0.0.1 50000 typ host", SDPMid: &mid})
	require.Eventually(t, func() bool {
		p := bob.engine.peer()
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.candidates) == 1
	}, waitFor, tick)
	assert.Equal(t, 1, s.count(TypeCandidate, "alice"))

	alice.engine.peer().onTrack(TrackVideo)
	require.Eventually(t, func() bool { return alice.coord.State() == StateConnected }, waitFor, tick)
	assert.Equal(t, StateConnecting, bob.coord.State())
}

func TestAnswerWithoutOfferIsIgnored(t *testing.T) {
	hub := NewMemoryHub()
	alice := join(t, hub, "alice")

	publishRaw(t, hub, `{"type":"answer","from":"mallory","payload":{"sdp":"v=0"}}`)

	require.Eventually(t, func() bool { return alice.errs.has(utils.KindSignaling) }, waitFor, tick)
	assert.Empty(t, alice.engine.peer().remoteDescriptions())
	assert.Equal(t, StateConnecting, alice.coord.State())
}

func TestMalformedAndFailingMessagesAreReported(t *testing.T) {
	hub := NewMemoryHub()
	alice := join(t, hub, "alice")
	alice.engine.peer().mu.Lock()
	alice.engine.peer().candErr = errors.New("no remote description")
	alice.engine.peer().mu.Unlock()

	publishRaw(t, hub, `{not json`)
	publishRaw(t, hub, `{"type":"candidate","from":"bob","payload":{"candidate":"candidate:2"}}`)

	require.Eventually(t, func() bool {
		alice.errs.mu.Lock()
		defer alice.errs.mu.Unlock()
		return len(alice.errs.errs) == 2
	}, waitFor, tick)
	assert.True(t, alice.errs.has(utils.KindSignaling))
	assert.Equal(t, StateConnecting, alice.coord.State())
}

func TestOwnMessagesAreSkipped(t *testing.T) {
	hub := NewMemoryHub()
	alice := join(t, hub, "alice")

	raw, err := Encode("alice", Offer{SDP: "v=0"})
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), room, raw))
	publishRaw(t, hub, `{"type":"offer","from":"bob","payload":{"sdp":"v=0"}}`)

	require.Eventually(t, func() bool { return len(alice.engine.peer().remoteDescriptions()) == 1 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, alice.engine.peer().remoteDescriptions(), 1)
}

func TestICEFailureIsTerminal(t *testing.T) {
	hub := NewMemoryHub()
	alice := join(t, hub, "alice")

	alice.engine.peer().onICE(ICEChecking)
	alice.engine.peer().onICE(ICEFailed)
	require.Eventually(t, func() bool { return alice.coord.State() == StateFailed }, waitFor, tick)
	require.Eventually(t, func() bool { return alice.errs.has(utils.KindIceFailure) }, waitFor, tick)

	alice.engine.peer().onTrack(TrackAudio)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateFailed, alice.coord.State())
}

func TestMediaFailureStopsSetup(t *testing.T) {
	hub := NewMemoryHub()
	engine := newFakeEngine("alice")
	engine.mediaErr = errDeviceBusy

	coord, err := NewCoordinator(Config{RoomID: room, Identity: "alice", Channel: hub, Presence: hub, Engine: engine})
	require.NoError(t, err)

	err = coord.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrMediaAcquisition))
	assert.Nil(t, engine.peer())
	assert.Equal(t, StateIdle, coord.State())

	hub.mu.Lock()
	assert.Empty(t, hub.subs[room])
	hub.mu.Unlock()
	members, err := hub.State(context.Background(), room)
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.NoError(t, coord.End(context.Background()))
}

func TestEndBeforeStartPreventsStart(t *testing.T) {
	hub := NewMemoryHub()
	engine := newFakeEngine("alice")

	coord, err := NewCoordinator(Config{RoomID: room, Identity: "alice", Channel: hub, Presence: hub, Engine: engine})
	require.NoError(t, err)
	require.NoError(t, coord.End(context.Background()))

	select {
	case <-coord.Done():
	default:
		t.Fatal("Done not closed after End")
	}
	require.Error(t, coord.Start(context.Background()))
	assert.Empty(t, engine.tracks)
	assert.Nil(t, engine.peer())
}

func TestEndDuringStartReleasesLateResources(t *testing.T) {
	hub := NewMemoryHub()
	engine := newFakeEngine("alice")

	coord, err := NewCoordinator(Config{RoomID: room, Identity: "alice", Channel: hub, Presence: hub, Engine: engine})
	require.NoError(t, err)
	engine.beforePeer = func() { _ = coord.End(context.Background()) }

	require.Error(t, coord.Start(context.Background()))

	select {
	case <-coord.Done():
	case <-time.After(waitFor):
		t.Fatal("Done not closed")
	}
	require.NotNil(t, engine.peer())
	assert.True(t, engine.peer().isClosed())
	for _, tr := range engine.tracks {
		assert.True(t, tr.isStopped())
	}
	hub.mu.Lock()
	assert.Empty(t, hub.subs[room])
	hub.mu.Unlock()
	members, err := hub.State(context.Background(), room)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestEndReleasesEverythingDespiteFailures(t *testing.T) {
	hub := NewMemoryHub()
	engine := newFakeEngine("alice")
	engine.closeErr = errors.New("close failed")

	coord, err := NewCoordinator(Config{RoomID: room, Identity: "alice", Channel: hub, Presence: hub, Engine: engine})
	require.NoError(t, err)
	require.NoError(t, coord.Start(context.Background()))
	engine.tracks[0].stopErr = errors.New("stop failed")

	err = coord.End(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop failed")
	assert.Contains(t, err.Error(), "close failed")

	for _, tr := range engine.tracks {
		assert.True(t, tr.isStopped())
	}
	assert.True(t, engine.peer().isClosed())

	members, err := hub.State(context.Background(), room)
	require.NoError(t, err)
	assert.Empty(t, members)

	select {
	case <-coord.Done():
	case <-time.After(waitFor):
		t.Fatal("event loop did not stop")
	}
	hub.mu.Lock()
	assert.Empty(t, hub.subs[room])
	hub.mu.Unlock()

	assert.Equal(t, err, coord.End(context.Background()))
}

func TestMuteTogglesTracksWithoutSignaling(t *testing.T) {
	hub := NewMemoryHub()
	s := watchRoom(t, hub)
	alice := join(t, hub, "alice")
	join(t, hub, "bob")

	require.Eventually(t, func() bool { return s.count(TypeAnswer, "bob") == 1 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)
	before := s.total()

	alice.coord.SetMicrophoneEnabled(false)
	alice.coord.SetCameraEnabled(false)
	alice.coord.SetCameraEnabled(true)

	assert.False(t, alice.engine.tracks[0].Enabled())
	assert.True(t, alice.engine.tracks[1].Enabled())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, s.total())
}

func TestEnvelopeWireFormat(t *testing.T) {
	raw, err := Encode("alice", Offer{SDP: "v=0"})
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "offer", wire["type"])
	assert.Equal(t, "alice", wire["from"])
	assert.Equal(t, map[string]any{"sdp": "v=0"}, wire["payload"])

	env, err := Decode([]byte(`{"type":"candidate","from":"bob","payload":{"candidate":"candidate:1","sdpMid":"0","sdpMLineIndex":0}}`))
	require.NoError(t, err)
	cand, ok := env.Signal.(Candidate)
	require.True(t, ok)
	require.NotNil(t, cand.SDPMLineIndex)
	assert.Equal(t, uint16(0), *cand.SDPMLineIndex)
	assert.Equal(t, "0", *cand.SDPMid)

	for _, bad := range []string{
		`{"type":"renegotiate","from":"bob","payload":{}}`,
		`{"type":"offer","from":"bob"}`,
		`{"type":"answer","from":"bob","payload":{"sdp":""}}`,
		`{"type":"offer","payload":{"sdp":"v=0"}}`,
	} {
		_, err := Decode([]byte(bad))
		assert.True(t, errors.Is(err, utils.ErrSignaling), bad)
	}
}
