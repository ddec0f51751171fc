package signaling

import (
	"encoding/json"
	"fmt"

	"expertmeet/utils"
)

type SignalType string

const (
	TypeOffer     SignalType = "offer"
	TypeAnswer    SignalType = "answer"
	TypeCandidate SignalType = "candidate"
)

// Signal is one of Offer, Answer or Candidate.
type Signal interface {
	Type() SignalType
}

type Offer struct {
	SDP string `json:"sdp"`
}

type Answer struct {
	SDP string `json:"sdp"`
}

// Candidate mirrors RTCIceCandidateInit. An empty Candidate marks the end of
// gathering.
type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

func (Offer) Type() SignalType     { return TypeOffer }
func (Answer) Type() SignalType    { return TypeAnswer }
func (Candidate) Type() SignalType { return TypeCandidate }

// Envelope is the unit relayed on a room channel:
//
//	{"type":"offer","from":"alice","payload":{"sdp":"v=0..."}}
type Envelope struct {
	From   string
	Signal Signal
}

type wireEnvelope struct {
	Type    SignalType      `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Signal == nil {
		return nil, fmt.Errorf("envelope from %q has no signal", e.From)
	}
	payload, err := json.Marshal(e.Signal)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{Type: e.Signal.Type(), From: e.From, Payload: payload})
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.Payload) == 0 || string(w.Payload) == "null" {
		return fmt.Errorf("%s envelope has no payload", w.Type)
	}

	var sig Signal
	switch w.Type {
	case TypeOffer:
		var o Offer
		if err := json.Unmarshal(w.Payload, &o); err != nil {
			return err
		}
		if o.SDP == "" {
			return fmt.Errorf("offer without sdp")
		}
		sig = o
	case TypeAnswer:
		var a Answer
		if err := json.Unmarshal(w.Payload, &a); err != nil {
			return err
		}
		if a.SDP == "" {
			return fmt.Errorf("answer without sdp")
		}
		sig = a
	case TypeCandidate:
		var c Candidate
		if err := json.Unmarshal(w.Payload, &c); err != nil {
			return err
		}
		sig = c
	default:
		return fmt.Errorf("unknown signal type %q", w.Type)
	}
	e.From = w.From
	e.Signal = sig
	return nil
}

// Encode serializes a signal sent by from.
func Encode(from string, s Signal) ([]byte, error) {
	return json.Marshal(Envelope{From: from, Signal: s})
}

// Decode parses a raw channel message. Any failure is a signaling error.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, utils.WrapAppError(utils.KindSignaling, err, "malformed signaling message")
	}
	if env.From == "" {
		return Envelope{}, utils.NewAppError(utils.KindSignaling, "signaling message without sender")
	}
	return env, nil
}
