package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// repoSource serves snapshots straight from a fakeRepo.
type repoSource struct {
	repo     *fakeRepo
	sprint   models.SprintMetrics
	blockers []models.Blocker
	err      error
	delay    time.Duration
}

func (s *repoSource) Snapshot() (Snapshot, error) {
	time.Sleep(s.delay)
	if s.err != nil {
		return Snapshot{}, s.err
	}
	return NewSnapshot(s.repo.ListTasks(), s.sprint, s.blockers), nil
}

func newTestConversation(repo *fakeRepo, exec ActionExecutor, events EventLogger) *Conversation {
	c := NewConversation(&repoSource{repo: repo, sprint: boardSprint(), blockers: boardBlockers()}, exec, events, nil)
	var n int
	c.newID = func() string { n++; return fmt.Sprintf("msg-%d", n) }
	c.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestConversation_StartsWithGreeting(t *testing.T) {
	c := NewConversation(&repoSource{repo: newFakeRepo()}, nil, nil, nil)
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, GreetingText, msgs[0].Content)
	assert.NotEmpty(t, msgs[0].ID)
}

func TestConversation_SubmitAppliesUpdate(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	events := &fakeEvents{}
	c := newTestConversation(repo, NewActionExecutor(repo, nil, events, nil, nil), events)

	turn, err := c.Submit(context.Background(), "update task ci/cd to review")
	require.NoError(t, err)

	assert.Equal(t, IntentUpdateTask, turn.Intent.Kind())
	assert.Equal(t, "update task ci/cd to review", turn.User.Content)
	assert.Equal(t, models.RoleUser, turn.User.Role)
	assert.Equal(t, models.RoleAssistant, turn.Assistant.Role)
	require.NotNil(t, turn.Assistant.Action)
	require.NotNil(t, turn.Confirmation)
	assert.Equal(t, "Task Updated", turn.Confirmation.Title)
	assert.NoError(t, turn.ActionErr)
	assert.Equal(t, models.StatusReview, repo.tasks[5].Status)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"msg-1", "msg-2", "msg-3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	assert.Equal(t, turn.Assistant, msgs[2])

	assert.Equal(t, "assistant.turn", events.events[0].eventType)
	assert.Equal(t, "update_task", events.events[0].data["intent"])
}

func TestConversation_EmptyInputLeavesLogUntouched(t *testing.T) {
	c := newTestConversation(newFakeRepo(), nil, nil)

	_, err := c.Submit(context.Background(), "   ")
	require.True(t, errors.Is(err, ErrEmptyInput))
	assert.Len(t, c.Messages(), 1)
}

func TestConversation_ActionFailureStillRecordsReply(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("read-only board")
	c := newTestConversation(repo, NewActionExecutor(repo, nil, nil, nil, nil), nil)

	turn, err := c.Submit(context.Background(), "create a task for audit logging")
	require.NoError(t, err)
	require.Error(t, turn.ActionErr)
	assert.Contains(t, turn.ActionErr.Error(), "read-only board")
	assert.Nil(t, turn.Confirmation)
	assert.Len(t, c.Messages(), 3)
}

func TestConversation_WithoutExecutorDoesNotMutate(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	c := newTestConversation(repo, nil, nil)

	turn, err := c.Submit(context.Background(), "update task ci/cd to todo")
	require.NoError(t, err)
	require.NotNil(t, turn.Assistant.Action)
	assert.Nil(t, turn.Confirmation)
	assert.Equal(t, models.StatusDone, repo.tasks[5].Status)
}

func TestConversation_SnapshotError(t *testing.T) {
	c := NewConversation(&repoSource{repo: newFakeRepo(), err: errors.New("seed missing")}, nil, nil, nil)
	_, err := c.Submit(context.Background(), "show sprint progress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading board snapshot")
}

func TestConversation_CancelledContext(t *testing.T) {
	c := newTestConversation(newFakeRepo(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	user, err := c.Post("show sprint progress")
	require.NoError(t, err)
	_, err = c.Reply(ctx, user)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, c.Messages(), 2)
}

func TestConversation_Reset(t *testing.T) {
	c := newTestConversation(newFakeRepo(boardTasks()...), nil, nil)
	_, err := c.Submit(context.Background(), "show team performance")
	require.NoError(t, err)
	require.Len(t, c.Messages(), 3)

	c.Reset()
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, GreetingText, msgs[0].Content)
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	c := newTestConversation(newFakeRepo(), nil, nil)
	msgs := c.Messages()
	msgs[0].Content = "tampered"
	assert.Equal(t, GreetingText, c.Messages()[0].Content)
}

func TestConversation_ConcurrentSubmitsAreSerialised(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	c := NewConversation(&repoSource{repo: repo, sprint: boardSprint(), delay: 2 * time.Millisecond}, nil, nil, nil)

	const n = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		turns []*Turn
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn, err := c.Submit(context.Background(), "show sprint progress")
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			mu.Lock()
			turns = append(turns, turn)
			mu.Unlock()
		}()
	}
	wg.Wait()

	msgs := c.Messages()
	require.Len(t, msgs, 1+2*n)
	require.Len(t, turns, n)

	replyTo := make(map[string]string, n)
	for _, turn := range turns {
		replyTo[turn.User.ID] = turn.Assistant.ID
	}
	for i := 1; i < len(msgs); i += 2 {
		require.Equal(t, models.RoleUser, msgs[i].Role, "message %d", i)
		require.Equal(t, models.RoleAssistant, msgs[i+1].Role, "message %d", i+1)
		assert.Equal(t, replyTo[msgs[i].ID], msgs[i+1].ID, "reply at %d does not answer the message before it", i+1)
	}
}

func TestQuickActionsClassify(t *testing.T) {
	want := []IntentKind{
		IntentSprintProgress,
		IntentShowBlockers,
		IntentTeamPerformance,
		IntentRecommend,
		IntentMarkBlocker,
	}
	require.Len(t, QuickActions, len(want))
	for i, qa := range QuickActions {
		intent, err := Classify(qa.Prompt)
		require.NoError(t, err)
		assert.Equal(t, want[i], intent.Kind(), "quick action %q", qa.Label)
	}
}
