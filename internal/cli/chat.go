package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// toastTTL is how long a confirmation stays in the status bar.
const toastTTL = 4 * time.Second

type chatKeyMap struct {
	Send       key.Binding
	Quit       key.Binding
	Reset      key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quick      []key.Binding
}

var chatKeys = chatKeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
	Reset: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "new conversation"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Quick: quickActionBindings(),
}

// quickActionBindings maps F1..Fn to the quick actions in order.
func quickActionBindings() []key.Binding {
	bindings := make([]key.Binding, len(core.QuickActions))
	for i, qa := range core.QuickActions {
		k := fmt.Sprintf("f%d", i+1)
		bindings[i] = key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(strings.ToUpper(k), qa.Label),
		)
	}
	return bindings
}

type toast struct {
	id      int
	title   string
	message string
	isError bool
}

// replyDueMsg fires once the thinking delay for a posted message is over.
type replyDueMsg struct {
	user models.ChatMessage
}

// turnMsg carries a finished turn back to the model.
type turnMsg struct {
	turn *core.Turn
	err  error
}

type toastExpiredMsg struct {
	id int
}

type chatModel struct {
	ctx   context.Context
	conv  *core.Conversation
	delay time.Duration

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	// pending is set from the moment a message is posted until its reply
	// arrives. Input is ignored meanwhile.
	pending bool

	toast     *toast
	nextToast int
}

var (
	chatTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	metaStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	actionStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("57")).Padding(0, 1)
	thinkingStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Italic(true)
	toastStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	toastErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	chatHelpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newChatModel(ctx context.Context, conv *core.Conversation, delay time.Duration) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about the sprint, or: update task <name> to done"
	ti.Prompt = "❯ "
	ti.CharLimit = 500
	ti.Width = 80
	ti.Focus()

	return chatModel{
		ctx:   ctx,
		conv:  conv,
		delay: delay,
		input: ti,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, chatKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, chatKeys.Send):
			return m.submit(m.input.Value())
		case key.Matches(msg, chatKeys.Reset):
			if m.pending {
				return m, nil
			}
			m.conv.Reset()
			m.input.Reset()
			m.refresh()
			return m, nil
		case key.Matches(msg, chatKeys.ScrollUp), key.Matches(msg, chatKeys.ScrollDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		for i, b := range chatKeys.Quick {
			if key.Matches(msg, b) {
				return m.submit(core.QuickActions[i].Prompt)
			}
		}
		if m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case replyDueMsg:
		return m, m.replyCmd(msg.user)

	case turnMsg:
		m.pending = false
		var cmd tea.Cmd
		switch {
		case msg.err != nil:
			cmd = m.showToast("Error", msg.err.Error(), true)
		case msg.turn.ActionErr != nil:
			cmd = m.showToast("Action failed", msg.turn.ActionErr.Error(), true)
		case msg.turn.Confirmation != nil:
			cmd = m.showToast(msg.turn.Confirmation.Title, msg.turn.Confirmation.Message, false)
		}
		m.refresh()
		return m, cmd

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit posts raw and schedules the reply after the thinking delay. Blank
// input and input while a reply is pending are dropped.
func (m chatModel) submit(raw string) (tea.Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	user, err := m.conv.Post(raw)
	if err != nil {
		return m, nil
	}
	m.input.Reset()
	m.pending = true
	m.refresh()
	return m, tea.Tick(m.delay, func(time.Time) tea.Msg {
		return replyDueMsg{user: user}
	})
}

func (m chatModel) replyCmd(user models.ChatMessage) tea.Cmd {
	ctx, conv := m.ctx, m.conv
	return func() tea.Msg {
		turn, err := conv.Reply(ctx, user)
		return turnMsg{turn: turn, err: err}
	}
}

func (m *chatModel) showToast(title, message string, isError bool) tea.Cmd {
	m.nextToast++
	id := m.nextToast
	m.toast = &toast{id: id, title: title, message: message, isError: isError}
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m chatModel) renderMessages() string {
	width := m.width
	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width - 2).PaddingLeft(2)

	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		if msg.Role == models.RoleUser {
			b.WriteString(userLabelStyle.Render("You"))
		} else {
			b.WriteString(assistantLabelStyle.Render("Scrum Master"))
		}
		b.WriteString(metaStyle.Render("  " + msg.Timestamp.Format("15:04")))
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Content))
		b.WriteString("\n")

		if msg.Role == models.RoleAssistant && msg.Confidence > 0 {
			meta := fmt.Sprintf("%d%% confidence", int(math.Round(msg.Confidence*100)))
			if msg.Reasoning != "" {
				meta += " · " + msg.Reasoning
			}
			b.WriteString(body.Render(metaStyle.Render(meta)))
			b.WriteString("\n")
		}
		if msg.Action != nil && msg.Action.Label != "" {
			b.WriteString(body.Render(actionStyle.Render(msg.Action.Label)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.pending {
		b.WriteString(thinkingStyle.Render("Scrum Master is thinking..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var status string
	if m.toast != nil {
		style := toastStyle
		mark := "✓"
		if m.toast.isError {
			style = toastErrorStyle
			mark = "✗"
		}
		status = style.Render(fmt.Sprintf("%s %s: %s", mark, m.toast.title, m.toast.message))
	}

	hints := make([]string, 0, len(chatKeys.Quick)+2)
	for _, b := range chatKeys.Quick {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	hints = append(hints, chatKeys.Reset.Help().Key+" reset", chatKeys.Quit.Help().Key+" quit")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		chatTitleStyle.Render(" AI Scrum Master "),
		m.viewport.View(),
		status,
		m.input.View(),
		chatHelpStyle.Render(strings.Join(hints, " · ")),
	)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the scrum assistant",
	Long: `Open the interactive assistant. Type a message and press enter, or use
F1-F5 for the quick actions. Replies that carry a board action apply it and
show a confirmation in the status bar.

ctrl+r starts a new conversation, esc quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Chat == nil {
			return fmt.Errorf("assistant not initialized")
		}
		p := tea.NewProgram(newChatModel(commandContext(cmd), Chat, thinkingDelay()), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
