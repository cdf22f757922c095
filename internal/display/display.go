// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent timer panel and an input prompt at
// the bottom of the terminal. All application output is printed above
// the rendered area via Program.Println / Printf, ensuring concurrent
// writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/vibetimer/internal/domain"
)

// RefreshInterval is how often the panel polls its StatusSource.
const RefreshInterval = 200 * time.Millisecond

const promptText = "vibe> "

// Status is everything the panel shows.
type Status struct {
	Title       string
	State       domain.RunState
	Activities  []domain.Activity
	RepeatCount int
	Counter     domain.CounterState
	Theme       domain.Theme
}

// StatusSource supplies the latest status. Called from the UI goroutine.
type StatusSource interface {
	Status() Status
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	source  StatusSource
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(source StatusSource) *UI {
	return &UI{
		source:  source,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintInfo prints a regular feedback line.
func (u *UI) PrintInfo(text string) {
	u.Println(infoStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render(indent(text)))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice prints a voice-recognised input line.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("vibe") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	m := newModel(u.source, u.inputCh, u.readyCh, u.PrintUserInput)
	// Ask the terminal before Bubble Tea owns stdin.
	m.autoDark = lipgloss.HasDarkBackground()
	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	source   StatusSource
	input    textinput.Model
	activity progress.Model
	overall  progress.Model
	inputCh  chan<- string
	readyCh  chan struct{}
	echoFn   func(string) // prints user input into scrollback
	status   Status
	autoDark bool // terminal background, for ThemeAuto
	dark     bool
	width    int
}

// Messages.
type tickMsg time.Time

func newModel(source StatusSource, inputCh chan<- string, readyCh chan struct{}, echoFn func(string)) model {
	ti := textinput.New()
	// Plain-text prompt so the textinput width math stays correct.
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	return model{
		source:   source,
		input:    ti,
		activity: progress.New(progress.WithSolidFill(string(activeColor)), progress.WithoutPercentage()),
		overall:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		inputCh:  inputCh,
		readyCh:  readyCh,
		echoFn:   echoFn,
		autoDark: true,
		dark:     true,
		width:    80,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if ch != nil {
			close(ch)
		}
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo outside Update so it won't deadlock on msgs.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(m.titleStr()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) refresh() {
	m.status = m.source.Status()
	m.dark = isDark(m.status.Theme, m.autoDark)

	barWidth := m.width - 14
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 10 {
		barWidth = 10
	}
	m.activity.Width = barWidth
	m.overall.Width = barWidth
	m.activity.FullColor = string(categoryColor(m.currentCategory()))
}

func (m model) currentCategory() domain.Category {
	i := m.status.State.ActivityIndex
	if i < 0 || i >= len(m.status.Activities) {
		return domain.CategoryActive
	}
	return m.status.Activities[i].Category
}

// titleStr mirrors the countdown in the terminal title.
func (m model) titleStr() string {
	s := m.status
	if len(s.Activities) == 0 || s.State.Phase == domain.PhaseIdle {
		return "VibeTimer"
	}
	if s.State.Phase == domain.PhaseCompleted {
		return "VibeTimer - done!"
	}
	name := s.Activities[s.State.ActivityIndex].Name
	title := fmt.Sprintf("%s %s - VibeTimer", fmtClock(s.State.RemainingSeconds), name)
	if s.State.Phase == domain.PhasePaused {
		title = "⏸ " + title
	}
	return title
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.renderPanel())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

// renderPanel draws the status block: activity, countdown, position,
// progress bars and counter.
func (m model) renderPanel() string {
	p := paletteFor(m.dark)
	s := m.status

	if len(s.Activities) == 0 {
		return p.dim.Render("  No sequence loaded. Type presets, list or add <name> <m:ss>.")
	}

	cur := s.Activities[s.State.ActivityIndex]
	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(categoryColor(cur.Category))

	var lines []string
	header := p.label.Render("  "+s.Title+"  ") + phaseStyle(s.State.Phase).Render(strings.ToUpper(s.State.Phase.String()))
	lines = append(lines, header)

	lines = append(lines,
		"  "+nameStyle.Render(cur.Name)+"  "+p.clock.Render(fmtClock(s.State.RemainingSeconds)))

	lines = append(lines, p.dim.Render(fmt.Sprintf("  Activity %d/%d   Cycle %d/%d",
		s.State.ActivityIndex+1, len(s.Activities), s.State.CycleIndex, s.RepeatCount)))

	actPct := domain.ActivityProgress(s.State, s.Activities)
	allPct := domain.OverallProgress(s.State, s.Activities)
	if s.State.Phase == domain.PhaseCompleted {
		actPct, allPct = 1, 1
	}
	lines = append(lines,
		"  "+p.label.Render("now   ")+m.activity.ViewAs(actPct),
		"  "+p.label.Render("cycle ")+m.overall.ViewAs(allPct))

	if next, ok := upNext(s); ok {
		lines = append(lines, p.dim.Render("  Up next: "+next))
	}

	lines = append(lines, p.label.Render(fmt.Sprintf("  %s: ", s.Counter.Label))+p.clock.Render(fmt.Sprint(s.Counter.Value)))

	return p.panel.Width(m.width).Render(strings.Join(lines, "\n"))
}

// upNext names the activity after the current one, if any.
func upNext(s Status) (string, bool) {
	if s.State.Phase == domain.PhaseCompleted {
		return "", false
	}
	i := s.State.ActivityIndex + 1
	if i < len(s.Activities) {
		return s.Activities[i].Name, true
	}
	if s.State.CycleIndex < s.RepeatCount {
		return s.Activities[0].Name + " (next round)", true
	}
	return "", false
}

// ── Helpers ──────────────────────────────────────────────────────

// fmtClock renders seconds as mm:ss.
func fmtClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if !strings.HasPrefix(l, "  ") {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}
