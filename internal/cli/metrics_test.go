package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/scrum-assistant/internal/observability"
)

// metricsMock implements observability.MetricsCalculator for testing.
type metricsMock struct {
	metrics *observability.Metrics
	err     error
	since   time.Time
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	m.since = since
	return m.metrics, m.err
}

func resetMetricsFlags(t *testing.T) {
	t.Helper()
	origJSON, origSince := metricsJSON, metricsSince
	t.Cleanup(func() { metricsJSON, metricsSince = origJSON, origSince })
	metricsJSON, metricsSince = false, "7d"
}

func TestParseSinceDuration(t *testing.T) {
	tests := []struct {
		input   string
		wantAgo time.Duration
		wantErr string
	}{
		{input: "", wantAgo: 7 * 24 * time.Hour},
		{input: "7d", wantAgo: 7 * 24 * time.Hour},
		{input: " 30d ", wantAgo: 30 * 24 * time.Hour},
		{input: "24h", wantAgo: 24 * time.Hour},
		{input: "1w", wantErr: "unsupported duration suffix"},
		{input: "xd", wantErr: "invalid duration"},
		{input: "-3d", wantErr: "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSinceDuration(tt.input)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseSinceDuration(%q) error = %v, want containing %q", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSinceDuration(%q) unexpected error: %v", tt.input, err)
			}
			ago := time.Since(got)
			if diff := ago - tt.wantAgo; diff < -time.Minute || diff > time.Minute {
				t.Errorf("parseSinceDuration(%q) is %s ago, want about %s", tt.input, ago, tt.wantAgo)
			}
		})
	}
}

func TestMetricsCmd_FromConversation(t *testing.T) {
	useSeededBoard(t)
	resetMetricsFlags(t)

	ctx := context.Background()
	for _, msg := range []string{"show sprint progress", "update task database to review", "what are the blockers?"} {
		if _, err := Chat.Submit(ctx, msg); err != nil {
			t.Fatalf("Submit(%q): %v", msg, err)
		}
	}

	out, err := runCmd(t, metricsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Assistant turns:", "sprint_progress:", "update_task:", "show_blockers:", "Status changes:", "review:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMetricsCmd_JSON(t *testing.T) {
	useSeededBoard(t)
	resetMetricsFlags(t)
	metricsJSON = true
	MetricsCalc = &metricsMock{metrics: &observability.Metrics{
		Turns:         2,
		TurnsByIntent: map[string]int{"recommend": 2},
		TasksCreated:  1,
	}}

	out, err := runCmd(t, metricsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got observability.Metrics
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Turns != 2 || got.TasksCreated != 1 || got.TurnsByIntent["recommend"] != 2 {
		t.Errorf("unexpected metrics: %+v", got)
	}
}

func TestMetricsCmd_Since(t *testing.T) {
	useSeededBoard(t)
	resetMetricsFlags(t)
	metricsSince = "24h"
	mock := &metricsMock{metrics: &observability.Metrics{}}
	MetricsCalc = mock

	if _, err := runCmd(t, metricsCmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ago := time.Since(mock.since); ago < 23*time.Hour || ago > 25*time.Hour {
		t.Errorf("calculator got since %s ago, want about 24h", ago)
	}
}

func TestMetricsCmd_Errors(t *testing.T) {
	useSeededBoard(t)
	resetMetricsFlags(t)

	metricsSince = "soon"
	if _, err := runCmd(t, metricsCmd); err == nil || !strings.Contains(err.Error(), "parsing --since") {
		t.Errorf("expected since error, got %v", err)
	}

	metricsSince = "7d"
	errRead := errors.New("disk gone")
	MetricsCalc = &metricsMock{err: errRead}
	if _, err := runCmd(t, metricsCmd); !errors.Is(err, errRead) {
		t.Errorf("expected wrapped calculator error, got %v", err)
	}

	MetricsCalc = nil
	if _, err := runCmd(t, metricsCmd); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}
