package ui

import (
	"context"
	"fmt"
	"strings"

	"notion-blog-sync/models"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	writtenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			PaddingLeft(2)

	skippedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D")).
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			PaddingLeft(2)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D"))
)

// 화면에 남겨둘 최근 페이지 결과 개수
const maxVisibleResults = 15

// Model 동기화 진행 상황을 보여주는 TUI 모델
type Model struct {
	spinner  spinner.Model
	cancel   context.CancelFunc
	total    int
	results  []models.PageResult
	err      error
	started  bool
	done     bool
	quitting bool
}

// NewModel 새로운 TUI 모델을 생성합니다
func NewModel(cancel context.CancelFunc) *Model {
	return &Model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(loadingStyle),
		),
		cancel: cancel,
	}
}

// Init bubbletea 초기화 함수
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update bubbletea 업데이트 함수
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case startedMsg:
		m.started = true
		m.total = msg.total
		return m, nil

	case pageDoneMsg:
		m.results = append(m.results, msg.result)
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View bubbletea 뷰 함수
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📚 Notion 블로그 동기화"))
	b.WriteString("\n")

	if !m.started {
		b.WriteString(m.spinner.View() + " Notion 에서 페이지를 가져오는 중...\n")
		return b.String()
	}

	// 최근 결과만 표시
	visible := m.results
	if len(visible) > maxVisibleResults {
		visible = visible[len(visible)-maxVisibleResults:]
	}
	for _, r := range visible {
		b.WriteString(resultLine(r))
		b.WriteString("\n")
	}

	if m.done || m.quitting {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("❌ 오류: %v", m.err)))
			b.WriteString("\n")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%s %d/%d 처리 중...\n", m.spinner.View(), len(m.results), m.total)
	return b.String()
}

func resultLine(r models.PageResult) string {
	name := r.Slug
	if name == "" {
		name = r.Title
	}

	switch r.Status {
	case models.PageWritten:
		line := fmt.Sprintf("✅ %s.md", name)
		if n := len(r.Images); n > 0 {
			line += fmt.Sprintf(" (이미지 %d개)", n)
		}
		return writtenStyle.Render(line)
	case models.PageSkipped:
		return skippedStyle.Render(fmt.Sprintf("⏭  초안 건너뜀: %s", name))
	default:
		return errorStyle.Render(fmt.Sprintf("❌ %s: %v", name, r.Err))
	}
}

type startedMsg struct{ total int }

type pageDoneMsg struct{ result models.PageResult }

type doneMsg struct{ err error }

// Progress syncer.Observer 를 구현해서 진행 상황을 TUI 로 전달합니다
type Progress struct {
	program *tea.Program
	cancel  context.CancelFunc
}

// NewProgress 진행 상황 TUI 를 생성합니다
func NewProgress(cancel context.CancelFunc, opts ...tea.ProgramOption) *Progress {
	return &Progress{program: tea.NewProgram(NewModel(cancel), opts...), cancel: cancel}
}

// Started 조회된 페이지 수를 전달합니다
func (p *Progress) Started(total int) {
	p.program.Send(startedMsg{total: total})
}

// PageDone 페이지 하나의 처리 결과를 전달합니다
func (p *Progress) PageDone(result models.PageResult) {
	p.program.Send(pageDoneMsg{result: result})
}

// Run fn 을 실행하는 동안 TUI 를 표시합니다. fn 의 에러를 그대로 반환합니다.
func (p *Progress) Run(fn func() error) error {
	errc := make(chan error, 1)
	go func() {
		err := fn()
		errc <- err
		p.program.Send(doneMsg{err: err})
	}()

	if _, err := p.program.Run(); err != nil {
		// TUI 가 먼저 끝나도 fn 이 멈출 때까지 기다림
		if p.cancel != nil {
			p.cancel()
		}
		<-errc
		return fmt.Errorf("TUI 실행 실패: %w", err)
	}
	return <-errc
}

// RenderSummary 동기화 결과 요약을 스타일이 적용된 문자열로 만듭니다
func RenderSummary(summary *models.Summary) string {
	var b strings.Builder

	imagesOK, imagesFailed := summary.ImageCounts()
	b.WriteString(titleStyle.Render("Sync complete!"))
	b.WriteString("\n")
	b.WriteString(writtenStyle.Render(fmt.Sprintf("기록: %d", summary.Count(models.PageWritten))))
	b.WriteString("\n")
	b.WriteString(skippedStyle.Render(fmt.Sprintf("초안: %d", summary.Count(models.PageSkipped))))
	b.WriteString("\n")
	b.WriteString(errorStyle.Render(fmt.Sprintf("실패: %d", summary.Count(models.PageFailed))))
	b.WriteString("\n")
	b.WriteString(writtenStyle.Render(fmt.Sprintf("이미지: %d (실패 %d)", imagesOK, imagesFailed)))
	b.WriteString("\n")
	if summary.ContentDir != "" {
		b.WriteString(writtenStyle.Render(fmt.Sprintf("%s: 게시글 %d개", summary.ContentDir, summary.Documents)))
		b.WriteString("\n")
	}
	if summary.ImagesDir != "" {
		b.WriteString(writtenStyle.Render("이미지 디렉터리: " + summary.ImagesDir))
		b.WriteString("\n")
	}

	for _, r := range summary.Failed() {
		b.WriteString(resultLine(r))
		b.WriteString("\n")
	}
	return b.String()
}
