package observability

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.Notify(nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify([]Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alerts := []Alert{
		{
			ID:          "blocked-3",
			Condition:   "task_blocked_too_long",
			Severity:    SeverityHigh,
			Message:     `"API endpoint development" has been blocked for 3 day(s): Waiting on auth`,
			TriggeredAt: time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:          "sprint-risk",
			Condition:   "sprint_at-risk",
			Severity:    SeverityMedium,
			Message:     "Sprint 5 is at-risk",
			TriggeredAt: time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC),
		},
	}

	if err := NewSlackNotifier(srv.URL).Notify(alerts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	var msg slackMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}

	// header + section + divider + section
	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" || msg.Blocks[0].Text.Text != "Scrum Board Alerts" {
		t.Errorf("unexpected header block: %+v", msg.Blocks[0])
	}
	if msg.Blocks[2].Type != "divider" {
		t.Errorf("expected divider, got %s", msg.Blocks[2].Type)
	}
	first := msg.Blocks[1].Text.Text
	if !strings.Contains(first, "[HIGH]") || !strings.Contains(first, "API endpoint development") {
		t.Errorf("first alert text = %q", first)
	}
	if !strings.Contains(first, "2026-03-10 10:30 UTC") {
		t.Errorf("expected timestamp in %q", first)
	}
	if !strings.Contains(msg.Blocks[3].Text.Text, "[MEDIUM]") {
		t.Errorf("second alert text = %q", msg.Blocks[3].Text.Text)
	}
}

func TestSlackNotifier_NotifyAction(t *testing.T) {
	var msg slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&msg)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).NotifyAction(ActionNotice{
		Kind:    "update_task",
		Title:   "Task Updated",
		Message: `Moved "Setup CI/CD pipeline" to done`,
		TaskID:  "6",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(msg.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(msg.Blocks))
	}
	text := msg.Blocks[0].Text.Text
	if !strings.HasPrefix(text, "✅ *Task Updated*") {
		t.Errorf("unexpected text %q", text)
	}
	if !strings.Contains(text, "_task 6_") {
		t.Errorf("expected task id in %q", text)
	}
}

func TestSlackNotifier_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).Notify([]Alert{{ID: "x", Severity: SeverityLow, Message: "m"}})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestSlackNotifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if err := NewSlackNotifier(url).NotifyAction(ActionNotice{Title: "t"}); err == nil {
		t.Fatal("expected error for unreachable webhook")
	}
}

func TestSeverityEmoji(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []AlertSeverity{SeverityHigh, SeverityMedium, SeverityLow, "other"} {
		e := severityEmoji(s)
		if e == "" {
			t.Errorf("empty emoji for %s", s)
		}
		seen[e] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected distinct emojis, got %v", seen)
	}
}

func TestFuncNotifier(t *testing.T) {
	var gotAlerts []Alert
	var gotNotice ActionNotice
	n := FuncNotifier{
		OnAlerts: func(a []Alert) error { gotAlerts = a; return nil },
		OnAction: func(a ActionNotice) error { gotNotice = a; return nil },
	}
	if err := n.Notify([]Alert{{ID: "a"}}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.NotifyAction(ActionNotice{Title: "Task Created"}); err != nil {
		t.Fatalf("NotifyAction: %v", err)
	}
	if len(gotAlerts) != 1 || gotNotice.Title != "Task Created" {
		t.Errorf("callbacks not invoked: %v %+v", gotAlerts, gotNotice)
	}

	var empty FuncNotifier
	if err := empty.Notify(nil); err != nil {
		t.Errorf("nil callback should be a no-op, got %v", err)
	}
	if err := empty.NotifyAction(ActionNotice{}); err != nil {
		t.Errorf("nil callback should be a no-op, got %v", err)
	}
}

func TestMultiNotifier(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	ok := FuncNotifier{
		OnAlerts: func([]Alert) error { calls++; return nil },
		OnAction: func(ActionNotice) error { calls++; return nil },
	}
	failing := FuncNotifier{
		OnAlerts: func([]Alert) error { calls++; return errBoom },
		OnAction: func(ActionNotice) error { calls++; return errBoom },
	}

	m := MultiNotifier{failing, ok}
	if err := m.Notify([]Alert{{ID: "a"}}); !errors.Is(err, errBoom) {
		t.Errorf("expected joined error to wrap errBoom, got %v", err)
	}
	if err := m.NotifyAction(ActionNotice{}); !errors.Is(err, errBoom) {
		t.Errorf("expected joined error to wrap errBoom, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected every notifier to be called, got %d calls", calls)
	}

	if err := (MultiNotifier{ok}).Notify(nil); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
