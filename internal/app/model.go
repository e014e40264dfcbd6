package app

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/oxbot/oxbot/internal/events"
	"github.com/oxbot/oxbot/internal/export"
	"github.com/oxbot/oxbot/internal/interpreter"
	"github.com/oxbot/oxbot/internal/models"
	"github.com/oxbot/oxbot/internal/provider"
	"github.com/oxbot/oxbot/ui/components"
)

// tickInterval drives both the event drain and the loading animation.
const tickInterval = 100 * time.Millisecond

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea front end. It owns presentation state only; the
// interpreter core is the source of truth for the conversation.
type Model struct {
	app   *Application
	state models.AppModel
}

func NewModel(app *Application) *Model {
	return &Model{
		app:   app,
		state: createInitialModel(app),
	}
}

func (m *Model) pushProgram(text string) {
	m.state.Messages = append(m.state.Messages, models.Message{Content: text, Type: models.Program})
}

func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.onTick()
		return m, tickCmd()
	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m *Model) onTick() {
	for _, ev := range m.app.wrapper.DrainEvents() {
		m.applyEvent(ev)
	}
	if m.state.Loading {
		m.state.LoadingDots = (m.state.LoadingDots + 1) % 4
	}
	m.state.HealthState = m.app.monitor.State().String()
	m.state.ProviderName = m.app.registry.Active()
	m.state.SessionTokensIn, m.state.SessionTokensOut = m.app.wrapper.SessionTokens()
	m.state.AutoRun = m.app.wrapper.AutoRun()
	m.state.AutomationOn = m.app.automation.Enabled()
	m.state.VisionOn = m.app.vision.Enabled()
}

// applyEvent maps one core event onto presentation state. Text fragments
// extend the open streaming assistant message; every other kind closes it.
func (m *Model) applyEvent(ev events.Event) {
	switch ev.Kind {
	case events.Text:
		if n := len(m.state.Messages); n > 0 && m.state.Messages[n-1].Streaming {
			m.state.Messages[n-1].Content += ev.Content
			return
		}
		m.state.Messages = append(m.state.Messages, models.Message{
			Content:   ev.Content,
			Type:      models.Assistant,
			Streaming: true,
		})
	case events.Code:
		m.closeStreaming()
		m.state.Messages = append(m.state.Messages, models.Message{
			Content:  ev.Content,
			Type:     models.CodeBlock,
			Language: ev.Language,
		})
	case events.ConsoleOutput:
		m.closeStreaming()
		m.state.Messages = append(m.state.Messages, models.Message{
			Content: ev.Content,
			Type:    models.Console,
		})
	case events.Error:
		m.closeStreaming()
		m.state.Messages = append(m.state.Messages, models.Message{
			Content: ev.Content,
			Type:    models.ErrorLine,
		})
		m.state.Loading = false
	case events.ApprovalRequest:
		m.closeStreaming()
		m.state.AwaitingApproval = true
		m.state.PendingCode = ev.Content
		m.state.PendingLanguage = ev.Language
		m.state.Status = "Awaiting approval"
	case events.Status:
		m.state.Status = ev.Content
		if ev.Final {
			m.closeStreaming()
			m.state.Loading = false
			m.state.AwaitingApproval = false
			m.state.PendingCode = ""
			m.state.PendingLanguage = ""
		}
	}
}

func (m *Model) closeStreaming() {
	if n := len(m.state.Messages); n > 0 {
		m.state.Messages[n-1].Streaming = false
	}
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.AwaitingApproval {
		switch msg.String() {
		case "y", "Y":
			if m.app.wrapper.Approve(true) {
				m.state.AwaitingApproval = false
				m.state.Status = "Approved, executing"
			}
			return m, nil
		case "n", "N":
			if m.app.wrapper.Approve(false) {
				m.state.AwaitingApproval = false
				m.state.Status = "Rejected"
			}
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c":
		m.app.Stop()
		return m, tea.Quit
	case "ctrl+x":
		m.app.wrapper.EmergencyStop()
		m.pushProgram("Emergency stop requested.")
		return m, nil
	case "ctrl+r":
		m.app.wrapper.ResetConversation()
		m.state.Messages = nil
		m.pushProgram("Conversation reset.")
		m.state.Status = "Ready"
		m.state.Loading = false
		m.state.AwaitingApproval = false
		return m, nil
	case "ctrl+a":
		m.app.wrapper.SetAutoRun(!m.app.wrapper.AutoRun())
		return m, nil
	case "ctrl+s":
		m.captureScreenshot()
		return m, nil
	case "ctrl+e":
		m.exportConversation()
		return m, nil
	case "ctrl+p":
		m.switchProvider()
		return m, nil
	case "enter":
		m.submit()
		return m, nil
	case "backspace":
		if len(m.state.Input) > 0 {
			runes := []rune(m.state.Input)
			m.state.Input = string(runes[:len(runes)-1])
		}
		return m, nil
	default:
		if msg.Type == tea.KeyRunes {
			m.state.Input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.state.Input += " "
		}
		return m, nil
	}
}

func (m *Model) submit() {
	text := strings.TrimSpace(m.state.Input)
	if text == "" {
		return
	}
	err := m.app.wrapper.Submit(text)
	switch {
	case errors.Is(err, interpreter.ErrBusy):
		m.state.Status = "Still processing, wait or press ctrl+x"
		return
	case errors.Is(err, interpreter.ErrNotConfigured):
		m.pushProgram("No provider configured. Switch with ctrl+p or run `oxbot provider`.")
		return
	case err != nil:
		m.pushProgram("Submit failed: " + err.Error())
		return
	}
	m.state.Messages = append(m.state.Messages, models.Message{Content: text, Type: models.User})
	m.state.Input = ""
	m.state.Loading = true
	m.state.Status = "Processing"
}

func (m *Model) captureScreenshot() {
	payload, err := m.app.vision.Capture()
	if err != nil {
		m.pushProgram("Screenshot failed: " + err.Error())
		return
	}
	m.app.vision.SetPending(payload)
	m.pushProgram("Screenshot attached to your next message.")
}

func (m *Model) exportConversation() {
	history := m.app.wrapper.History()
	if len(history) == 0 {
		m.pushProgram("Nothing to export yet.")
		return
	}
	mdPath, err := export.Markdown(m.app.settings.Dir(), history)
	if err != nil {
		m.pushProgram("Export failed: " + err.Error())
		return
	}
	jsonPath, err := export.JSON(m.app.settings.Dir(), history)
	if err != nil {
		m.pushProgram("Export failed: " + err.Error())
		return
	}
	m.pushProgram("Conversation exported to " + mdPath + " and " + jsonPath)
}

func (m *Model) switchProvider() {
	next := provider.KeyLocal
	if m.app.registry.Active() == provider.KeyLocal {
		next = provider.KeyCloud
	}
	if err := m.app.registry.SelectActive(next); err != nil {
		m.pushProgram("Switch failed: " + err.Error())
		return
	}
	if err := m.app.Configure(); err != nil {
		m.pushProgram("Provider " + next + " not usable: " + err.Error())
		return
	}
	m.app.log.Info("provider switched", zap.String("provider", next))
	m.state.Messages = nil
	m.pushProgram("Switched to " + next + " provider. Conversation reset.")
	m.state.Status = "Ready"
	m.state.Loading = false
	m.state.AwaitingApproval = false
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(components.RenderMessages(m.state.Messages))
	if m.state.AwaitingApproval {
		b.WriteString(components.RenderApproval(m.state.PendingCode, m.state.PendingLanguage, m.state.Width))
		b.WriteString("\n")
	}
	b.WriteString(components.RenderInput(m.state.Input, m.state.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(components.StatusInfo{
		Text:        m.state.Status,
		Loading:     m.state.Loading,
		LoadingDots: m.state.LoadingDots,
		Provider:    m.state.ProviderName,
		Health:      m.state.HealthState,
		AutoRun:     m.state.AutoRun,
		Automation:  m.state.AutomationOn,
		Vision:      m.state.VisionOn,
		TokensIn:    m.state.SessionTokensIn,
		TokensOut:   m.state.SessionTokensOut,
	}, m.state.Width))

	return b.String()
}
