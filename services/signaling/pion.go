package signaling

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"go.uber.org/zap"
)

// PionEngine is a MediaEngine for headless participants. Its local tracks are
// sample tracks fed by the caller through SampleTrack.WriteSample.
type PionEngine struct {
	stunURLs []string
	logger   *zap.Logger
}

var _ MediaEngine = (*PionEngine)(nil)

func NewPionEngine(stunURLs []string, logger *zap.Logger) *PionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PionEngine{stunURLs: stunURLs, logger: logger}
}

func (e *PionEngine) AcquireLocalMedia(context.Context) ([]LocalTrack, error) {
	stream := "expertmeet-" + uuid.NewString()
	audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio track: %w", err)
	}
	video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create video track: %w", err)
	}
	return []LocalTrack{newSampleTrack(TrackAudio, audio), newSampleTrack(TrackVideo, video)}, nil
}

func (e *PionEngine) NewPeer(context.Context) (Peer, error) {
	cfg := webrtc.Configuration{}
	if len(e.stunURLs) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: e.stunURLs}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}
	return &pionPeer{pc: pc, logger: e.logger}, nil
}

// SampleTrack is a local track that drops samples while disabled or stopped.
type SampleTrack struct {
	kind    TrackKind
	track   *webrtc.TrackLocalStaticSample
	enabled atomic.Bool
	stopped atomic.Bool
}

func newSampleTrack(kind TrackKind, track *webrtc.TrackLocalStaticSample) *SampleTrack {
	t := &SampleTrack{kind: kind, track: track}
	t.enabled.Store(true)
	return t
}

func (t *SampleTrack) Kind() TrackKind    { return t.kind }
func (t *SampleTrack) SetEnabled(on bool) { t.enabled.Store(on) }
func (t *SampleTrack) Enabled() bool      { return t.enabled.Load() }
func (t *SampleTrack) Stop() error {
	t.stopped.Store(true)
	return nil
}

func (t *SampleTrack) WriteSample(data []byte, d time.Duration) error {
	if t.stopped.Load() || !t.enabled.Load() {
		return nil
	}
	return t.track.WriteSample(media.Sample{Data: data, Duration: d})
}

type pionPeer struct {
	pc     *webrtc.PeerConnection
	logger *zap.Logger
}

func (p *pionPeer) AddTrack(track LocalTrack) error {
	st, ok := track.(*SampleTrack)
	if !ok {
		return fmt.Errorf("unsupported track type %T", track)
	}
	sender, err := p.pc.AddTrack(st.track)
	if err != nil {
		return err
	}
	// RTCP must be read for interceptors to work
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

func (p *pionPeer) CreateOffer(context.Context) (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return offer.SDP, nil
}

func (p *pionPeer) CreateAnswer(context.Context) (string, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return answer.SDP, nil
}

func (p *pionPeer) SetRemoteDescription(kind SDPType, sdp string) error {
	var t webrtc.SDPType
	switch kind {
	case SDPOffer:
		t = webrtc.SDPTypeOffer
	case SDPAnswer:
		t = webrtc.SDPTypeAnswer
	default:
		return fmt.Errorf("unsupported sdp type %q", kind)
	}
	return p.pc.SetRemoteDescription(webrtc.SessionDescription{Type: t, SDP: sdp})
}

func (p *pionPeer) AddICECandidate(c Candidate) error {
	return p.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        c.SDPMid,
		SDPMLineIndex: c.SDPMLineIndex,
	})
}

func (p *pionPeer) OnICECandidate(fn func(Candidate)) {
	p.pc.OnICECandidate(func(ic *webrtc.ICECandidate) {
		if ic == nil {
			return
		}
		init := ic.ToJSON()
		fn(Candidate{Candidate: init.Candidate, SDPMid: init.SDPMid, SDPMLineIndex: init.SDPMLineIndex})
	})
}

func (p *pionPeer) OnTrack(fn func(TrackKind)) {
	p.pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		fn(TrackKind(remote.Kind().String()))
		go func() {
			for {
				if _, _, err := remote.ReadRTP(); err != nil {
					return
				}
			}
		}()
	})
}

func (p *pionPeer) OnICEConnectionStateChange(fn func(ICEState)) {
	p.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		fn(ICEState(s.String()))
	})
}

func (p *pionPeer) Close() error {
	return p.pc.Close()
}
