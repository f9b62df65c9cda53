package livekit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/speechroom/speechroom-server/internal/video"
)

// Engine implements video.Engine using LiveKit as the media backend.
// LiveKit creates rooms on demand when the first participant joins, so only
// access tokens are minted here.
type Engine struct {
	apiKey    string
	apiSecret string
	wsURL     string
	ttl       time.Duration
}

// New creates a new LiveKit engine.
func New(apiKey, apiSecret, wsURL string, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Engine{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
		ttl:       ttl,
	}
}

// JoinInfo creates join credentials for a participant.
func (e *Engine) JoinInfo(_ context.Context, roomName, identity, name string) (*video.JoinInfo, error) {
	if roomName == "" || identity == "" {
		return nil, errors.New("room name and identity are required")
	}

	at := auth.NewAccessToken(e.apiKey, e.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(e.ttl)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &video.JoinInfo{
		URL:      e.wsURL,
		Token:    token,
		RoomName: roomName,
		Identity: identity,
	}, nil
}

var _ video.Engine = (*Engine)(nil)
