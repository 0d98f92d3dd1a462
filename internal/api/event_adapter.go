package api

import (
	"time"

	"godoor/domain/door"
)

// EventAnalysisCompleted is the SSE event name for stored analyses
const EventAnalysisCompleted = "analysis.completed"

// SSEEventBroadcaster adapts the SSEHub to ports.AnalysisNotifier
type SSEEventBroadcaster struct {
	sseHub *SSEHub
}

// NewSSEEventBroadcaster creates a new SSE event broadcaster
func NewSSEEventBroadcaster(sseHub *SSEHub) *SSEEventBroadcaster {
	return &SSEEventBroadcaster{sseHub: sseHub}
}

// AnalysisCompleted announces a stored analysis
func (seb *SSEEventBroadcaster) AnalysisCompleted(a *door.Analysis) {
	seb.sseHub.Broadcast(AnalysisEvent{
		EventType:    EventAnalysisCompleted,
		AnalysisID:   a.ID.String(),
		TreatmentArm: a.TreatmentArm,
		ControlArm:   a.ControlArm,
		WinRatio:     a.Result.WinRatio.Format(4),
		NetBenefit:   a.Result.NetBenefit,
		PValue:       a.Result.PValue,
		Timestamp:    time.Now().UTC(),
	})
}
