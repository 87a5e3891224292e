package observability

import (
	"math"
	"testing"
	"time"
)

func writeEvents(t *testing.T, log EventLog, events ...Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestMetricsCalculator_Empty(t *testing.T) {
	m, err := NewMetricsCalculator(NewMemoryEventLog()).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Turns != 0 || m.EventCount != 0 || m.AverageConfidence != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
	if m.OldestEvent != nil || m.NewestEvent != nil {
		t.Error("expected nil event bounds")
	}
}

func TestMetricsCalculator_Aggregates(t *testing.T) {
	log := NewMemoryEventLog()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		Event{Time: base, Type: EventAssistantTurn, Data: map[string]any{"intent": "sprint_progress", "confidence": 0.98, "has_action": false}},
		Event{Time: base.Add(time.Minute), Type: EventAssistantTurn, Data: map[string]any{"intent": "update_task", "confidence": 0.95, "has_action": true}},
		Event{Time: base.Add(2 * time.Minute), Type: EventTaskUpdated, Data: map[string]any{"task_id": "6"}},
		Event{Time: base.Add(2 * time.Minute), Type: EventTaskStatusChanged, Data: map[string]any{"task_id": "6", "new_status": "done"}},
		Event{Time: base.Add(3 * time.Minute), Type: EventAssistantTurn, Data: map[string]any{"intent": "update_task", "confidence": 0.7, "has_action": false}},
		Event{Time: base.Add(4 * time.Minute), Type: EventTaskCreated, Data: map[string]any{"task_id": "x"}},
		Event{Time: base.Add(5 * time.Minute), Type: EventTaskAssigned, Data: map[string]any{"task_id": "x"}},
		Event{Time: base.Add(6 * time.Minute), Type: EventTaskBlocked, Data: map[string]any{"task_id": "x"}},
	)

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Turns != 3 {
		t.Errorf("Turns = %d, want 3", m.Turns)
	}
	if m.TurnsByIntent["update_task"] != 2 || m.TurnsByIntent["sprint_progress"] != 1 {
		t.Errorf("TurnsByIntent = %v", m.TurnsByIntent)
	}
	if want := (0.98 + 0.95 + 0.7) / 3; math.Abs(m.AverageConfidence-want) > 1e-9 {
		t.Errorf("AverageConfidence = %f, want %f", m.AverageConfidence, want)
	}
	if m.ActionsProposed != 1 {
		t.Errorf("ActionsProposed = %d, want 1", m.ActionsProposed)
	}
	if m.TasksCreated != 1 || m.TasksUpdated != 1 || m.TasksAssigned != 1 || m.TasksBlocked != 1 {
		t.Errorf("task counters = %+v", m)
	}
	if m.StatusChanges["done"] != 1 {
		t.Errorf("StatusChanges = %v", m.StatusChanges)
	}
	if m.EventCount != 8 {
		t.Errorf("EventCount = %d, want 8", m.EventCount)
	}
	if !m.OldestEvent.Equal(base) || !m.NewestEvent.Equal(base.Add(6*time.Minute)) {
		t.Errorf("bounds = %s..%s", m.OldestEvent, m.NewestEvent)
	}

	top := m.TopIntents()
	if len(top) != 2 || top[0].Intent != "update_task" || top[0].Count != 2 {
		t.Errorf("TopIntents = %+v", top)
	}
}

func TestMetricsCalculator_Since(t *testing.T) {
	log := NewMemoryEventLog()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		Event{Time: base, Type: EventAssistantTurn, Data: map[string]any{"intent": "recommend"}},
		Event{Time: base.Add(48 * time.Hour), Type: EventAssistantTurn, Data: map[string]any{"intent": "recommend"}},
	)

	m, err := NewMetricsCalculator(log).Calculate(base.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Turns != 1 {
		t.Errorf("Turns = %d, want 1", m.Turns)
	}
}

func TestMetricsCalculator_JSONLRoundTripsConfidence(t *testing.T) {
	// Numbers decoded from JSONL come back as float64, which the calculator relies on.
	for name, newLog := range eventLogFactories(t) {
		t.Run(name, func(t *testing.T) {
			log := newLog()
			writeEvents(t, log, Event{Time: time.Now().UTC(), Type: EventAssistantTurn, Data: map[string]any{"intent": "unknown", "confidence": 0.6, "has_action": false}})

			m, err := NewMetricsCalculator(log).Calculate(time.Time{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(m.AverageConfidence-0.6) > 1e-9 {
				t.Errorf("AverageConfidence = %f, want 0.6", m.AverageConfidence)
			}
		})
	}
}
