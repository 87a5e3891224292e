package observability

import (
	"fmt"
	"sort"
	"time"
)

// Metrics summarises assistant usage and board changes from the event log.
type Metrics struct {
	Turns             int            `json:"turns"`
	TurnsByIntent     map[string]int `json:"turns_by_intent"`
	AverageConfidence float64        `json:"average_confidence"`
	ActionsProposed   int            `json:"actions_proposed"`
	TasksCreated      int            `json:"tasks_created"`
	TasksUpdated      int            `json:"tasks_updated"`
	TasksAssigned     int            `json:"tasks_assigned"`
	TasksBlocked      int            `json:"tasks_blocked"`
	StatusChanges     map[string]int `json:"status_changes"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// IntentCount pairs an intent with how often it was seen.
type IntentCount struct {
	Intent string
	Count  int
}

// TopIntents returns intents ordered by descending count, then name.
func (m *Metrics) TopIntents() []IntentCount {
	out := make([]IntentCount, 0, len(m.TurnsByIntent))
	for intent, n := range m.TurnsByIntent {
		out = append(out, IntentCount{Intent: intent, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Intent < out[j].Intent
	})
	return out
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		TurnsByIntent: make(map[string]int),
		StatusChanges: make(map[string]int),
		EventCount:    len(events),
	}

	var confidenceSum float64
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case EventAssistantTurn:
			m.Turns++
			if intent, ok := event.Data["intent"].(string); ok {
				m.TurnsByIntent[intent]++
			}
			if c, ok := event.Data["confidence"].(float64); ok {
				confidenceSum += c
			}
			if has, ok := event.Data["has_action"].(bool); ok && has {
				m.ActionsProposed++
			}
		case EventTaskCreated:
			m.TasksCreated++
		case EventTaskUpdated:
			m.TasksUpdated++
		case EventTaskAssigned:
			m.TasksAssigned++
		case EventTaskBlocked:
			m.TasksBlocked++
		case EventTaskStatusChanged:
			if status, ok := event.Data["new_status"].(string); ok {
				m.StatusChanges[status]++
			}
		}
	}

	if m.Turns > 0 {
		m.AverageConfidence = confidenceSum / float64(m.Turns)
	}

	return m, nil
}
