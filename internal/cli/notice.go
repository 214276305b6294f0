package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yishu-dev/yishu/internal/core"
)

var (
	noticeInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	noticeWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	noticeErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func styleForNotice(level core.NoticeLevel) lipgloss.Style {
	switch level {
	case core.NoticeWarning:
		return noticeWarningStyle
	case core.NoticeError:
		return noticeErrorStyle
	default:
		return noticeInfoStyle
	}
}

// renderNotice formats a notice as a single styled line.
func renderNotice(n core.Notice) string {
	return styleForNotice(n.Level).Render(fmt.Sprintf("[%s] %s", n.Level, n.Message))
}

// noticeMsg delivers a notice to a running Bubble Tea screen.
type noticeMsg struct {
	notice core.Notice
}

type noticePrinter struct {
	mu   sync.Mutex
	w    io.Writer
	send func(tea.Msg)
}

var notices *noticePrinter

// NewNoticePrinter returns a core.Notifier that prints notices to w, or to
// stderr when w is nil. While an interactive screen is running the notices
// are shown on it instead.
func NewNoticePrinter(w io.Writer) core.Notifier {
	if w == nil {
		w = os.Stderr
	}
	notices = &noticePrinter{w: w}
	return notices
}

func (p *noticePrinter) Notify(n core.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.send != nil {
		p.send(noticeMsg{notice: n})
		return
	}
	fmt.Fprintln(p.w, renderNotice(n))
}

// routeNotices sends notices to prog until the returned func is called.
func routeNotices(prog *tea.Program) (restore func()) {
	if notices == nil {
		return func() {}
	}
	notices.mu.Lock()
	notices.send = prog.Send
	notices.mu.Unlock()
	return func() {
		notices.mu.Lock()
		notices.send = nil
		notices.mu.Unlock()
	}
}

// requireInterview fails when the interview engine was not wired.
func requireInterview() error {
	if Interview == nil {
		return fmt.Errorf("interview manager not initialized")
	}
	return nil
}

// reportResult turns a session operation result into command output. An
// unchanged result is informational; anything else that did not apply is
// an error.
func reportResult(action string, r core.Result, done string) error {
	switch r.Outcome {
	case core.OutcomeApplied:
		fmt.Println(successStyle.Render(done))
		return nil
	case core.OutcomeUnchanged:
		fmt.Println(noticeInfoStyle.Render(r.Reason))
		return nil
	case core.OutcomeNoSession:
		return fmt.Errorf("%s: no interview session, run 'yishu start' first", action)
	case core.OutcomePaused:
		return fmt.Errorf("%s: session is paused, run 'yishu resume' first", action)
	default:
		return fmt.Errorf("%s: %s", action, r)
	}
}
