package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"notion-blog-sync/models"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel_Update(t *testing.T) {
	cancelled := false
	m := NewModel(func() { cancelled = true })

	if view := m.View(); !strings.Contains(view, "가져오는 중") {
		t.Errorf("initial view = %q, want loading message", view)
	}

	m.Update(startedMsg{total: 2})
	if !m.started || m.total != 2 {
		t.Fatalf("after startedMsg: started=%v total=%d", m.started, m.total)
	}

	m.Update(pageDoneMsg{result: models.PageResult{Slug: "hello-world", Status: models.PageWritten}})
	m.Update(pageDoneMsg{result: models.PageResult{Title: "Broken", Status: models.PageFailed, Err: errors.New("boom")}})
	view := m.View()
	for _, want := range []string{"hello-world.md", "Broken", "boom"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatal("doneMsg should finish the model and return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("doneMsg command is not tea.Quit")
	}
	if cancelled {
		t.Error("cancel called without user interrupt")
	}
}

func TestModel_QuitCancels(t *testing.T) {
	cancelled := false
	m := NewModel(func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled || !m.quitting {
		t.Error("q should cancel the sync and mark the model quitting")
	}
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
}

func TestModel_ViewKeepsRecentResults(t *testing.T) {
	m := NewModel(nil)
	m.Update(startedMsg{total: maxVisibleResults + 5})
	for i := 0; i < maxVisibleResults+5; i++ {
		slug := "post-" + string(rune('a'+i))
		m.Update(pageDoneMsg{result: models.PageResult{Slug: slug, Status: models.PageWritten}})
	}

	view := m.View()
	if strings.Contains(view, "post-a.md") {
		t.Error("oldest result should scroll out of view")
	}
	if !strings.Contains(view, "post-t.md") {
		t.Errorf("newest result missing from view:\n%s", view)
	}
}

func TestRenderSummary(t *testing.T) {
	summary := &models.Summary{}
	summary.Add(models.PageResult{
		Slug:   "a",
		Status: models.PageWritten,
		Images: []models.ImageResult{{}, {Err: errors.New("404")}},
	})
	summary.Add(models.PageResult{Slug: "b", Status: models.PageSkipped})
	summary.Add(models.PageResult{Slug: "c", Status: models.PageFailed, Err: errors.New("render failed")})
	summary.ContentDir = "content/posts"
	summary.ImagesDir = "static/images/posts"
	summary.Documents = 4

	out := RenderSummary(summary)
	for _, want := range []string{"Sync complete!", "기록: 1", "초안: 1", "실패: 1", "이미지: 1 (실패 1)", "render failed", "content/posts: 게시글 4개", "static/images/posts"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestProgress_RunWaitsForSyncWhenTUIFails(t *testing.T) {
	tuiCtx, stopTUI := context.WithCancel(context.Background())
	stopTUI()
	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()

	p := NewProgress(cancelSync, tea.WithContext(tuiCtx), tea.WithInput(nil), tea.WithOutput(io.Discard))

	var finished atomic.Bool
	errc := make(chan error, 1)
	go func() {
		errc <- p.Run(func() error {
			<-syncCtx.Done()
			finished.Store(true)
			return syncCtx.Err()
		})
	}()

	select {
	case err := <-errc:
		if err == nil {
			t.Fatal("Run() error = nil, want TUI failure")
		}
		if !finished.Load() {
			t.Error("Run() returned before the sync function stopped")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after the TUI stopped")
	}
}
