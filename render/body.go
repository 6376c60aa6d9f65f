package render

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"notion-blog-sync/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// 원격 이미지 마크다운: ![alt](http(s)://...)
var remoteImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\((https?://[^)]+)\)`)

// MarkdownSource 페이지 본문을 마크다운으로 제공하는 인터페이스
type MarkdownSource interface {
	PageMarkdown(ctx context.Context, pageID string) (string, error)
}

// ImageLocalizer 원격 이미지를 로컬 경로로 바꿔주는 인터페이스
type ImageLocalizer interface {
	Localize(ctx context.Context, rawURL, slug string, index int) (string, error)
}

// ImageMatch 본문에서 찾은 원격 이미지 한 개
type ImageMatch struct {
	Start, End int // 본문 바이트 오프셋 [Start, End)
	Alt        string
	URL        string
}

// Renderer 페이지 본문을 가져와 이미지 링크를 로컬 경로로 치환하는 구조체
type Renderer struct {
	source MarkdownSource
	images ImageLocalizer
	logger *slog.Logger
}

// NewRenderer 새로운 본문 렌더러를 생성합니다
func NewRenderer(source MarkdownSource, images ImageLocalizer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		source: source,
		images: images,
		logger: logger,
	}
}

// Render 페이지 본문을 마크다운으로 변환하고 원격 이미지를 로컬화합니다
func (r *Renderer) Render(ctx context.Context, pageID, slug string) (models.RenderedBody, error) {
	markdown, err := r.source.PageMarkdown(ctx, pageID)
	if err != nil {
		return models.RenderedBody{}, fmt.Errorf("본문 변환 실패: %w", err)
	}
	return r.LocalizeImages(ctx, markdown, slug), nil
}

// LocalizeImages 본문의 원격 이미지를 등장 순서대로 하나씩 내려받아 치환합니다.
// 실패한 이미지는 원래 마크다운을 그대로 남깁니다.
func (r *Renderer) LocalizeImages(ctx context.Context, markdown, slug string) models.RenderedBody {
	matches := FindImages(markdown)
	if len(matches) == 0 {
		return models.RenderedBody{Markdown: markdown}
	}

	var b strings.Builder
	results := make([]models.ImageResult, 0, len(matches))
	last := 0

	for i, m := range matches {
		b.WriteString(markdown[last:m.Start])
		last = m.End

		ref := models.LocalImageRef{SourceURL: m.URL, SequenceIndex: i}
		localPath, err := r.images.Localize(ctx, m.URL, slug, i)
		if err != nil {
			r.logger.Warn("이미지 다운로드 실패", "slug", slug, "url", m.URL, "error", err)
			results = append(results, models.ImageResult{Ref: ref, Err: err})
			b.WriteString(markdown[m.Start:m.End])
			continue
		}

		ref.LocalPath = localPath
		r.logger.Info("이미지 다운로드 완료", "slug", slug, "path", localPath)
		results = append(results, models.ImageResult{Ref: ref})
		fmt.Fprintf(&b, "![%s](%s)", m.Alt, localPath)
	}
	b.WriteString(markdown[last:])

	return models.RenderedBody{Markdown: b.String(), Images: results}
}

// FindImages 본문에서 원격 이미지 문법을 왼쪽부터 순서대로 찾습니다.
// 코드 블록이나 인라인 코드 안의 이미지 문법은 제외합니다.
func FindImages(markdown string) []ImageMatch {
	if !remoteImagePattern.MatchString(markdown) {
		return nil
	}

	code := codeRanges([]byte(markdown))
	var matches []ImageMatch
	for pos := 0; pos < len(markdown); {
		loc := remoteImagePattern.FindStringSubmatchIndex(markdown[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			loc[i] += pos
		}
		// 코드 안에서 시작한 매치는 건너뛰고 한 글자 뒤부터 다시 찾음
		if inRanges(loc[0], code) {
			pos = loc[0] + 1
			continue
		}
		matches = append(matches, ImageMatch{
			Start: loc[0],
			End:   loc[1],
			Alt:   markdown[loc[2]:loc[3]],
			URL:   markdown[loc[4]:loc[5]],
		})
		pos = loc[1]
	}
	return matches
}

// codeRanges goldmark 로 본문을 파싱해서 코드 영역의 바이트 범위를 수집합니다
func codeRanges(src []byte) [][2]int {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var ranges [][2]int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				ranges = append(ranges, [2]int{seg.Start, seg.Stop})
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					ranges = append(ranges, [2]int{t.Segment.Start, t.Segment.Stop})
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return ranges
}

func inRanges(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}
