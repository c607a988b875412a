package rpc

import (
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/events"
)

// Message types carried in the stream envelope.
const (
	msgTrade            = "trade"
	msgLaunch           = "launch"
	msgGraduation       = "graduation"
	msgGraduationFailed = "graduation_failed"
	msgClaim            = "claim"
)

// StreamPublisher pushes engine events onto the websocket hub. It
// satisfies events.Publisher so the engine never depends on the
// transport.
type StreamPublisher struct {
	hub *Hub
}

// NewStreamPublisher wraps hub as an event publisher.
func NewStreamPublisher(hub *Hub) *StreamPublisher {
	return &StreamPublisher{hub: hub}
}

func (p *StreamPublisher) PublishAssetCreated(event *events.AssetCreatedEvent) {
	if event == nil || p.hub == nil {
		return
	}
	p.hub.Broadcast(StreamLaunches, msgLaunch, event.Asset, event)
}

func (p *StreamPublisher) PublishTrade(event *events.TradeEvent) {
	if event == nil || p.hub == nil {
		return
	}
	p.hub.Broadcast(StreamTrades, msgTrade, event.Asset, event)
}

func (p *StreamPublisher) PublishGraduation(event *events.GraduationEvent) {
	if event == nil || p.hub == nil {
		return
	}
	p.hub.Broadcast(StreamGraduations, msgGraduation, event.Asset, event)
}

func (p *StreamPublisher) PublishGraduationFailed(event *events.GraduationFailedEvent) {
	if event == nil || p.hub == nil {
		return
	}
	p.hub.Broadcast(StreamGraduations, msgGraduationFailed, event.Asset, event)
}

func (p *StreamPublisher) PublishClaim(event *events.ClaimEvent) {
	if event == nil || p.hub == nil {
		return
	}
	p.hub.Broadcast(StreamClaims, msgClaim, assetid.AssetID{}, event)
}

var _ events.Publisher = (*StreamPublisher)(nil)
