package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"notion-blog-sync/notion"

	"github.com/jomei/notionapi"
)

type fakeSource struct {
	markdown string
	err      error
}

func (f fakeSource) PageMarkdown(ctx context.Context, pageID string) (string, error) {
	return f.markdown, f.err
}

type call struct {
	url   string
	slug  string
	index int
}

// fakeLocalizer 실패할 URL 을 지정할 수 있는 가짜 Localizer
type fakeLocalizer struct {
	calls []call
	fail  map[string]bool
}

func (f *fakeLocalizer) Localize(ctx context.Context, rawURL, slug string, index int) (string, error) {
	f.calls = append(f.calls, call{rawURL, slug, index})
	if f.fail[rawURL] {
		return "", errors.New("boom")
	}
	return fmt.Sprintf("/images/posts/%s-%d.png", slug, index), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindImages(t *testing.T) {
	md := strings.Join([]string{
		"![a](https://x.test/a.png) text ![b](http://x.test/b.gif)",
		"![local](/images/c.png)",
		"`![inline](https://x.test/inline.png)`",
		"```",
		"![fenced](https://x.test/fenced.png)",
		"```",
		"![](https://x.test/noalt.jpg)",
	}, "\n")

	got := FindImages(md)
	var urls []string
	for _, m := range got {
		urls = append(urls, m.URL)
		if md[m.Start:m.End] != fmt.Sprintf("![%s](%s)", m.Alt, m.URL) {
			t.Errorf("match offsets do not cover %q", m.URL)
		}
	}

	want := []string{"https://x.test/a.png", "http://x.test/b.gif", "https://x.test/noalt.jpg"}
	if strings.Join(urls, ",") != strings.Join(want, ",") {
		t.Errorf("FindImages() urls = %v, want %v", urls, want)
	}
}

func TestFindImages_MatchStartingInCodeSpan(t *testing.T) {
	md := "`![a](http://x.test/a.png` ![b](http://x.test/b.png)\n"

	got := FindImages(md)
	if len(got) != 1 || got[0].URL != "http://x.test/b.png" {
		t.Fatalf("FindImages() = %+v, want only b.png", got)
	}
	if md[got[0].Start:got[0].End] != "![b](http://x.test/b.png)" {
		t.Errorf("match covers %q", md[got[0].Start:got[0].End])
	}
}

func TestFindImages_ToDoChildren(t *testing.T) {
	para := func(s string) *notion.BlockNode {
		return &notion.BlockNode{Block: &notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{{PlainText: s}},
		}}}
	}
	image := &notion.BlockNode{Block: &notionapi.ImageBlock{Image: notionapi.Image{
		External: &notionapi.FileObject{URL: "https://x.test/a.png"},
	}}}
	md := notion.ToMarkdown([]*notion.BlockNode{{
		Block:    &notionapi.ToDoBlock{ToDo: notionapi.ToDo{RichText: []notionapi.RichText{{PlainText: "task"}}}},
		Children: []*notion.BlockNode{para("note"), image},
	}})

	got := FindImages(md)
	if len(got) != 1 || got[0].URL != "https://x.test/a.png" {
		t.Errorf("FindImages(%q) = %+v, want the to-do child image", md, got)
	}
}

func TestLocalizeImages_TwoImages(t *testing.T) {
	loc := &fakeLocalizer{}
	r := NewRenderer(nil, loc, quietLogger())

	md := "intro\n\n![one](https://x.test/1.png)\n\n![two](https://x.test/2.png)\n"
	body := r.LocalizeImages(context.Background(), md, "post")

	want := "intro\n\n![one](/images/posts/post-0.png)\n\n![two](/images/posts/post-1.png)\n"
	if body.Markdown != want {
		t.Errorf("Markdown = %q, want %q", body.Markdown, want)
	}
	if body.ImageCount() != 2 {
		t.Fatalf("ImageCount() = %d, want 2", body.ImageCount())
	}
	for i, img := range body.Images {
		if img.Ref.SequenceIndex != i {
			t.Errorf("Images[%d].SequenceIndex = %d", i, img.Ref.SequenceIndex)
		}
		if img.Err != nil {
			t.Errorf("Images[%d].Err = %v", i, img.Err)
		}
	}
}

func TestLocalizeImages_DuplicateURLsGetSeparateIndices(t *testing.T) {
	loc := &fakeLocalizer{}
	r := NewRenderer(nil, loc, quietLogger())

	md := "![x](https://x.test/same.png) ![y](https://x.test/same.png)"
	body := r.LocalizeImages(context.Background(), md, "dup")

	want := "![x](/images/posts/dup-0.png) ![y](/images/posts/dup-1.png)"
	if body.Markdown != want {
		t.Errorf("Markdown = %q, want %q", body.Markdown, want)
	}
	if len(loc.calls) != 2 || loc.calls[0].index != 0 || loc.calls[1].index != 1 {
		t.Errorf("calls = %+v, want indices 0 and 1", loc.calls)
	}
}

func TestLocalizeImages_FailureLeavesOriginal(t *testing.T) {
	loc := &fakeLocalizer{fail: map[string]bool{"https://x.test/bad.png": true}}
	r := NewRenderer(nil, loc, quietLogger())

	md := "![bad](https://x.test/bad.png)\n![good](https://x.test/good.png)"
	body := r.LocalizeImages(context.Background(), md, "p")

	want := "![bad](https://x.test/bad.png)\n![good](/images/posts/p-1.png)"
	if body.Markdown != want {
		t.Errorf("Markdown = %q, want %q", body.Markdown, want)
	}
	failed := body.FailedImages()
	if len(failed) != 1 || failed[0].Ref.SourceURL != "https://x.test/bad.png" {
		t.Errorf("FailedImages() = %+v", failed)
	}
}

func TestLocalizeImages_Deterministic(t *testing.T) {
	md := "![a](https://x.test/a.png)\n\n![b](https://x.test/b.png)"

	first := NewRenderer(nil, &fakeLocalizer{}, quietLogger()).LocalizeImages(context.Background(), md, "s")
	second := NewRenderer(nil, &fakeLocalizer{}, quietLogger()).LocalizeImages(context.Background(), md, "s")

	if first.Markdown != second.Markdown {
		t.Errorf("renders differ:\n%q\n%q", first.Markdown, second.Markdown)
	}
	for i := range first.Images {
		if first.Images[i].Ref != second.Images[i].Ref {
			t.Errorf("Images[%d] differ: %+v vs %+v", i, first.Images[i].Ref, second.Images[i].Ref)
		}
	}
}

func TestRender_SourceError(t *testing.T) {
	r := NewRenderer(fakeSource{err: errors.New("api down")}, &fakeLocalizer{}, quietLogger())
	if _, err := r.Render(context.Background(), "page", "slug"); err == nil {
		t.Fatal("Render() error = nil, want error")
	}
}

func TestRender_NoImages(t *testing.T) {
	loc := &fakeLocalizer{}
	r := NewRenderer(fakeSource{markdown: "just text\n"}, loc, quietLogger())

	body, err := r.Render(context.Background(), "page", "slug")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if body.Markdown != "just text\n" || body.ImageCount() != 0 || len(loc.calls) != 0 {
		t.Errorf("Render() = %+v, calls = %d", body, len(loc.calls))
	}
}
