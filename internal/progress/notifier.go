package progress

import "time"

// AnalysisEvent reports per-question progress of an analysis run.
type AnalysisEvent struct {
	Processed int    `json:"processedQuestions"`
	Total     int    `json:"totalQuestions"`
	Pillar    string `json:"currentPillar"`
	Question  string `json:"currentQuestion"`
}

// ImplementationEvent reports progress of an IaC generation run.
type ImplementationEvent struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// Event is the envelope pushed to subscribers. Exactly one payload field is
// set, matching Type.
type Event struct {
	Type           string               `json:"type"`
	WorkItemID     string               `json:"workItemId"`
	Analysis       *AnalysisEvent       `json:"analysis,omitempty"`
	Implementation *ImplementationEvent `json:"implementation,omitempty"`
	At             time.Time            `json:"at"`
}

const (
	EventAnalysis       = "analysis"
	EventImplementation = "implementation"
)

// Notifier pushes progress events to whoever is watching a run. Delivery is
// fire-and-forget: implementations must never block an orchestrator, and lost
// events are acceptable.
type Notifier interface {
	EmitAnalysisProgress(userID, workItemID string, event AnalysisEvent)
	EmitImplementationProgress(userID, workItemID string, event ImplementationEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) EmitAnalysisProgress(string, string, AnalysisEvent)             {}
func (NopNotifier) EmitImplementationProgress(string, string, ImplementationEvent) {}
