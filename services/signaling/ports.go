package signaling

import (
	"context"
	"time"
)

// Subscription delivers a room's raw messages in send order until closed.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// MessageChannel relays raw envelopes between the participants of a room.
type MessageChannel interface {
	Publish(ctx context.Context, roomID string, raw []byte) error
	Subscribe(ctx context.Context, roomID string) (Subscription, error)
}

type PresenceEntry struct {
	Identity string    `json:"identity"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PresenceTracker reports who is in a room, ordered by join time. Tracking an
// identity twice keeps its original position.
type PresenceTracker interface {
	Track(ctx context.Context, roomID, identity string) error
	Untrack(ctx context.Context, roomID, identity string) error
	State(ctx context.Context, roomID string) ([]PresenceEntry, error)
	// Watch signals on every membership change. Signals may be coalesced.
	Watch(ctx context.Context, roomID string) (<-chan struct{}, func(), error)
}

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// LocalTrack is a captured microphone or camera track.
type LocalTrack interface {
	Kind() TrackKind
	SetEnabled(enabled bool)
	Enabled() bool
	Stop() error
}

type SDPType string

const (
	SDPOffer  SDPType = "offer"
	SDPAnswer SDPType = "answer"
)

type ICEState string

const (
	ICENew          ICEState = "new"
	ICEChecking     ICEState = "checking"
	ICEConnected    ICEState = "connected"
	ICECompleted    ICEState = "completed"
	ICEDisconnected ICEState = "disconnected"
	ICEFailed       ICEState = "failed"
	ICEClosed       ICEState = "closed"
)

// Peer is one side of a peer connection. Callbacks may fire on any goroutine.
type Peer interface {
	AddTrack(track LocalTrack) error
	// CreateOffer and CreateAnswer also apply the result as local description.
	CreateOffer(ctx context.Context) (string, error)
	CreateAnswer(ctx context.Context) (string, error)
	SetRemoteDescription(kind SDPType, sdp string) error
	AddICECandidate(c Candidate) error
	OnICECandidate(fn func(Candidate))
	OnTrack(fn func(kind TrackKind))
	OnICEConnectionStateChange(fn func(ICEState))
	Close() error
}

// MediaEngine captures local media and builds peers.
type MediaEngine interface {
	AcquireLocalMedia(ctx context.Context) ([]LocalTrack, error)
	NewPeer(ctx context.Context) (Peer, error)
}
