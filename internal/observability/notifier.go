package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ActionNotice describes a board change made on the user's behalf.
type ActionNotice struct {
	Kind    string
	Title   string
	Message string
	TaskID  string
}

// Notifier sends alerts and action notices to external channels.
type Notifier interface {
	Notify(alerts []Alert) error
	NotifyAction(notice ActionNotice) error
}

// slackNotifier sends notifications to a Slack incoming webhook.
type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that posts to the given Slack webhook URL.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify sends the given alerts as one message. It returns nil without
// making a request if alerts is empty.
func (s *slackNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return s.post(buildAlertMessage(alerts))
}

// NotifyAction posts a single action notice.
func (s *slackNotifier) NotifyAction(notice ActionNotice) error {
	text := fmt.Sprintf("✅ *%s*\n%s", notice.Title, notice.Message)
	if notice.TaskID != "" {
		text += fmt.Sprintf("\n_task %s_", notice.TaskID)
	}
	return s.post(slackMessage{Blocks: []slackBlock{
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}},
	}})
}

func (s *slackNotifier) post(msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildAlertMessage(alerts []Alert) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "Scrum Board Alerts"},
		},
	}

	for i, alert := range alerts {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		text := fmt.Sprintf("%s *[%s]* %s\n_%s_",
			severityEmoji(alert.Severity),
			strings.ToUpper(string(alert.Severity)),
			alert.Message,
			alert.TriggeredAt.Format("2006-01-02 15:04 UTC"),
		)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}

	return slackMessage{Blocks: blocks}
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}

// FuncNotifier adapts plain functions to Notifier. Nil fields are no-ops.
type FuncNotifier struct {
	OnAlerts func([]Alert) error
	OnAction func(ActionNotice) error
}

func (f FuncNotifier) Notify(alerts []Alert) error {
	if f.OnAlerts == nil {
		return nil
	}
	return f.OnAlerts(alerts)
}

func (f FuncNotifier) NotifyAction(notice ActionNotice) error {
	if f.OnAction == nil {
		return nil
	}
	return f.OnAction(notice)
}

// MultiNotifier fans a notification out to every notifier and joins the
// errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(alerts []Alert) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Notify(alerts))
	}
	return errors.Join(errs...)
}

func (m MultiNotifier) NotifyAction(notice ActionNotice) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyAction(notice))
	}
	return errors.Join(errs...)
}
