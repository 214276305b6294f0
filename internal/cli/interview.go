package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/pkg/models"
)

// Minimum answer length before writing suggestions are shown.
const suggestionMinRunes = 10

// submittedMsg carries the outcome of saving and analysing an answer.
type submittedMsg struct {
	sub *core.Submission
}

// dictatedMsg carries the outcome of a speech capture.
type dictatedMsg struct {
	transcript core.Transcript
	err        error
}

type interviewModel struct {
	textarea textarea.Model
	progress progress.Model
	spinner  spinner.Model

	question    models.Question
	hasQuestion bool
	stage       models.StageInfo
	index       int
	count       int
	overall     int

	analysis *models.AnswerAnalysis
	notice   *core.Notice
	busy     string
	finished bool

	width  int
	height int
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	boxStyle      = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

func newInterviewModel() interviewModel {
	ta := textarea.New()
	ta.Placeholder = "在这里写下你的回答..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 5000
	ta.SetWidth(72)
	ta.SetHeight(6)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	m := interviewModel{
		textarea: ta,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  sp,
	}
	m.syncQuestion()
	return m
}

// syncQuestion reloads the current question from the interview and puts
// any saved answer into the editor.
func (m *interviewModel) syncQuestion() {
	m.overall = Interview.Progress().Overall
	m.finished = Interview.State() == core.StateCompleted

	q, ok := Interview.CurrentQuestion()
	m.question, m.hasQuestion = q, ok
	m.stage, _ = Interview.CurrentStageInfo()
	m.count = len(Interview.CurrentQuestions())
	if s := Interview.Session(); s != nil {
		m.index = s.CurrentQuestionIndex
	}
	m.analysis = nil

	m.textarea.Reset()
	if ok {
		if a, found := Interview.Answer(q.ID); found {
			m.textarea.SetValue(a.Content)
		}
	}
}

func (m interviewModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m interviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.busy != "" {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+s":
			if !m.hasQuestion {
				return m, nil
			}
			m.busy = "正在分析回答..."
			m.notice = nil
			return m, submitAnswer(m.question.ID, m.textarea.Value())
		case "ctrl+n":
			m.applyMove(Interview.NextQuestion())
			return m, nil
		case "ctrl+p":
			m.applyMove(Interview.PreviousQuestion())
			return m, nil
		case "ctrl+a":
			m.applyMove(Interview.AdvanceStage())
			return m, nil
		case "ctrl+d":
			if Dictation == nil {
				m.setNotice(core.NoticeWarning, "语音识别未配置")
				return m, nil
			}
			m.busy = "正在录音..."
			m.notice = nil
			return m, captureSpeech()
		}

	case submittedMsg:
		m.busy = ""
		sub := msg.sub
		if !sub.Saved.Applied() {
			m.setNotice(core.NoticeWarning, sub.Saved.String())
			return m, nil
		}
		m.overall = Interview.Progress().Overall
		m.analysis = sub.Analysis
		if sub.AnalysisErr == nil {
			m.setNotice(core.NoticeInfo, "回答已保存")
		}
		return m, nil

	case dictatedMsg:
		m.busy = ""
		if msg.err != nil && !errors.Is(msg.err, core.ErrLowConfidence) {
			m.setNotice(core.NoticeError, msg.err.Error())
			return m, nil
		}
		if msg.err == nil {
			m.textarea.SetValue(strings.TrimSpace(m.textarea.Value() + msg.transcript.Text))
		}
		return m, nil

	case noticeMsg:
		n := msg.notice
		m.notice = &n
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 8
		if w < 30 {
			w = 30
		}
		m.textarea.SetWidth(w)
		m.progress.Width = w / 2
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *interviewModel) applyMove(r core.Result) {
	if r.Finished {
		m.syncQuestion()
		m.setNotice(core.NoticeInfo, "访谈已完成，运行 'yishu biography' 生成传记")
		return
	}
	if !r.Applied() {
		m.setNotice(core.NoticeWarning, r.String())
		return
	}
	m.syncQuestion()
	m.notice = nil
}

func (m *interviewModel) setNotice(level core.NoticeLevel, msg string) {
	m.notice = &core.Notice{Level: level, Message: msg}
}

func (m interviewModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" yishu 人生访谈 "))
	b.WriteString("  ")
	b.WriteString(m.progress.ViewAs(float64(m.overall) / 100))
	b.WriteString("\n\n")

	switch {
	case m.finished:
		b.WriteString(successStyle.Render("访谈已完成。运行 'yishu biography' 生成传记。"))
		b.WriteString("\n")
	case !m.hasQuestion:
		b.WriteString("No interview session. Run 'yishu start' first.\n")
	default:
		b.WriteString(m.renderQuestion())
	}

	if m.busy != "" {
		b.WriteString(fmt.Sprintf("\n%s %s\n", m.spinner.View(), m.busy))
	}
	if m.notice != nil {
		b.WriteString("\n")
		b.WriteString(renderNotice(*m.notice))
		b.WriteString("\n")
	}
	if m.analysis != nil {
		b.WriteString("\n")
		b.WriteString(renderAnalysisPanel(m.analysis))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("ctrl+s: save | ctrl+n/ctrl+p: next/prev | ctrl+a: next stage | ctrl+d: dictate | esc: quit"))
	return b.String()
}

func (m interviewModel) renderQuestion() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%s)  %d/%d", m.stage.Title, m.stage.AgeRange, m.index+1, m.count)))
	b.WriteString("\n")
	req := dimStyle.Render("(可选)")
	if m.question.Required {
		req = noticeWarningStyle.Render("(必答)")
	}
	b.WriteString(questionStyle.Render(m.question.Text) + " " + req)
	b.WriteString("\n")
	for _, h := range core.QuestionHints(m.question) {
		b.WriteString(dimStyle.Render("  · " + h))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")

	if partial := m.textarea.Value(); len([]rune(partial)) >= suggestionMinRunes && m.analysis == nil {
		for _, s := range core.ContentSuggestions(m.question.Stage, partial) {
			b.WriteString(dimStyle.Render("  提示: " + s))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderAnalysisPanel(a *models.AnswerAnalysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("完整度: %d/100", a.Completeness.Score))
	if a.Completeness.IsComplete {
		b.WriteString(" " + successStyle.Render("✓"))
	}
	b.WriteString("\n")
	for _, s := range a.Completeness.Suggestions {
		b.WriteString("  - " + s + "\n")
	}
	if len(a.FollowUps) > 0 {
		b.WriteString("\n追问:\n")
		for _, f := range a.FollowUps {
			b.WriteString("  - " + f + "\n")
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func submitAnswer(questionID, content string) tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{sub: Flow.Submit(context.Background(), questionID, content, core.AnswerOpts{})}
	}
}

func captureSpeech() tea.Cmd {
	return func() tea.Msg {
		t, err := Dictation.Capture(context.Background())
		return dictatedMsg{transcript: t, err: err}
	}
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run the interview in an interactive screen",
	Long: `Open an interactive screen that shows the current question, an editor
for the answer and the analysis after each save.

Keys: ctrl+s saves, ctrl+n and ctrl+p move between questions, ctrl+a moves
to the next stage, ctrl+d dictates an answer, esc quits. A new session is
started if there is none.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Interview == nil || Flow == nil {
			return fmt.Errorf("interview flow not initialized")
		}
		if Interview.State() == core.StateNoSession {
			user := UserID
			if user == "" {
				user = "local"
			}
			Interview.Start(user)
		}
		if Interview.State() == core.StatePaused {
			Interview.Continue()
		}

		p := tea.NewProgram(newInterviewModel(), tea.WithAltScreen())
		restore := routeNotices(p)
		defer restore()
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)
}
