package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/cli/formatter"
	"github.com/alexanderramin/expeditions/internal/contract"
)

type playKeys struct {
	Up      key.Binding
	Down    key.Binding
	Attempt key.Binding
	Submit  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultPlayKeys() playKeys {
	return playKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Attempt: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "attempt")),
		Submit:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k playKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Attempt, k.Submit, k.Help, k.Quit}
}

func (k playKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Attempt, k.Submit}, {k.Refresh, k.Help, k.Quit}}
}

type stateLoadedMsg struct {
	state *contract.ExpeditionState
	err   error
}

type transitionMsg struct {
	res *contract.TransitionResult
	err error
}

// playModel is an interactive map of one student's expedition.
type playModel struct {
	ctx          context.Context
	app          *App
	student      string
	expeditionID string

	state   *contract.ExpeditionState
	cursor  int
	loading bool
	notice  string
	err     error

	form    *huh.Form
	files   string
	comment string

	spinner spinner.Model
	help    help.Model
	keys    playKeys
}

func newPlayModel(ctx context.Context, app *App, student, expeditionID string) *playModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StyleHeader
	return &playModel{
		ctx:          ctx,
		app:          app,
		student:      student,
		expeditionID: expeditionID,
		loading:      true,
		spinner:      sp,
		help:         help.New(),
		keys:         defaultPlayKeys(),
	}
}

func (m *playModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m *playModel) load() tea.Cmd {
	return func() tea.Msg {
		st, err := m.app.Progression.GetExpeditionState(m.ctx, m.student, m.expeditionID, m.student)
		return stateLoadedMsg{state: st, err: err}
	}
}

func (m *playModel) selected() *contract.PinView {
	if m.state == nil || m.cursor < 0 || m.cursor >= len(m.state.Pins) {
		return nil
	}
	return &m.state.Pins[m.cursor]
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case stateLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.state = msg.state
			m.focusCurrent()
		}
		return m, nil

	case transitionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		var names map[string]string
		if m.state != nil {
			names = formatter.PinNames(&m.state.GraphView)
		}
		m.notice = strings.TrimRight(formatter.FormatTransition(msg.res, names), "\n")
		return m, m.load()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *playModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.state != nil && m.cursor < len(m.state.Pins)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.load(), m.spinner.Tick)
	case key.Matches(msg, m.keys.Attempt):
		if pin := m.selected(); pin != nil {
			return m, m.attempt(pin.ID)
		}
	case key.Matches(msg, m.keys.Submit):
		pin := m.selected()
		if pin == nil {
			return m, nil
		}
		if !pin.RequiresSubmission {
			m.err = fmt.Errorf("%s does not take submissions; press enter to attempt it", pin.Name)
			return m, nil
		}
		return m, m.openForm(pin.Name)
	}
	return m, nil
}

// focusCurrent moves the cursor to the progress's current pin.
func (m *playModel) focusCurrent() {
	if m.state.Progress == nil || m.state.Progress.CurrentPinID == nil {
		return
	}
	for i, p := range m.state.Pins {
		if p.ID == *m.state.Progress.CurrentPinID {
			m.cursor = i
			return
		}
	}
}

func (m *playModel) attempt(pinID string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.app.Progression.AttemptPin(m.ctx, contract.AttemptRequest{StudentProfileID: m.student, PinID: pinID})
		return transitionMsg{res: res, err: err}
	}
}

func (m *playModel) submit(pinID string) tea.Cmd {
	var files []string
	for _, f := range strings.Split(m.files, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	comment := strings.TrimSpace(m.comment)
	return func() tea.Msg {
		res, err := m.app.Progression.Submit(m.ctx, contract.SubmitRequest{
			StudentProfileID: m.student,
			PinID:            pinID,
			Files:            files,
			Comment:          comment,
		})
		return transitionMsg{res: res, err: err}
	}
}

func (m *playModel) openForm(pinName string) tea.Cmd {
	m.files, m.comment = "", ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Files for "+pinName).
				Description("Uploaded file URLs, comma separated").
				Value(&m.files),
			huh.NewInput().
				Title("Comment (optional)").
				Value(&m.comment),
		),
	).WithTheme(playHuhTheme()).WithShowHelp(false)
	return m.form.Init()
}

func (m *playModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.notice = formatter.Dim("Cancelled.")
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.form = nil
		if pin := m.selected(); pin != nil {
			return m, tea.Batch(cmd, m.submit(pin.ID))
		}
	}
	return m, cmd
}

func (m *playModel) View() string {
	if m.form != nil {
		return m.form.View()
	}
	if m.loading && m.state == nil {
		return m.spinner.View() + " Loading expedition..."
	}

	var b strings.Builder
	if m.state != nil {
		b.WriteString(formatter.FormatState(m.state, m.app.now()))
		if pin := m.selected(); pin != nil {
			b.WriteString("\n" + formatter.RenderBox(pin.Name, m.pinDetail(pin)) + "\n")
		}
	}
	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *playModel) pinDetail(pin *contract.PinView) string {
	lines := []string{formatter.PinTypeBadge(pin.Type) + "  " + formatter.PinStatusIndicator(m.state.PinStatus(pin.ID))}
	if pin.Story != "" {
		lines = append(lines, "", lipgloss.NewStyle().Width(60).Render(pin.Story))
	}
	if pin.RequiresSubmission {
		lines = append(lines, "", formatter.Dim("Submission required · due ")+formatter.DueLabel(pin.DueDate, m.app.now()))
	}
	return strings.Join(lines, "\n")
}

func playHuhTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

var errNotInteractive = errors.New("play needs an interactive terminal; use state, attempt and submit instead")

func newPlayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "play EXPEDITION_ID",
		Short: "Explore an expedition interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := app.actor()
			if err != nil {
				return err
			}
			if app.IsInteractive != nil && !app.IsInteractive() {
				return errNotInteractive
			}
			p := tea.NewProgram(newPlayModel(cmd.Context(), app, student, args[0]), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}
