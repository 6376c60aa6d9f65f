package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"notion-blog-sync/models"
	"notion-blog-sync/notion"

	"github.com/jomei/notionapi"
)

// 페이지 속성 이름
const (
	PropTitle   = "Title"
	PropName    = "Name"
	PropSlug    = "Slug"
	PropStatus  = "Status"
	PropDate    = "Date"
	PropTags    = "Tags"
	PropSummary = "Summary"
)

// DefaultPublishedValue 게시 상태를 나타내는 Status 값
const DefaultPublishedValue = "Published"

var (
	ErrEmptySlug   = errors.New("slug is empty")
	ErrInvalidSlug = errors.New("slug contains a path separator or dot segment")
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

// BodyRenderer 페이지 본문을 렌더링하는 인터페이스
type BodyRenderer interface {
	Render(ctx context.Context, pageID, slug string) (models.RenderedBody, error)
}

// Assembler 페이지 속성과 본문으로 front matter 가 붙은 문서를 만드는 구조체
type Assembler struct {
	renderer       BodyRenderer
	statusProperty string
	publishedValue string
	logger         *slog.Logger
}

// Option Assembler 생성 옵션
type Option func(*Assembler)

// WithStatusProperty 초안 여부를 판단할 select 속성 이름을 지정합니다
func WithStatusProperty(name string) Option {
	return func(a *Assembler) { a.statusProperty = name }
}

// WithPublishedValue 게시 상태로 취급할 Status 값을 지정합니다
func WithPublishedValue(value string) Option {
	return func(a *Assembler) { a.publishedValue = value }
}

// WithLogger 로거를 지정합니다
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// NewAssembler 새로운 문서 조립기를 생성합니다
func NewAssembler(renderer BodyRenderer, opts ...Option) *Assembler {
	a := &Assembler{
		renderer:       renderer,
		statusProperty: PropStatus,
		publishedValue: DefaultPublishedValue,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fields 페이지에서 게시글 메타데이터를 추출합니다
func (a *Assembler) Fields(page notionapi.Page) (models.ExtractedFields, error) {
	props := page.Properties
	title := pageTitle(props)

	slug, _ := notion.RichText(props, PropSlug)
	if slug == "" {
		slug = Slugify(title)
	} else if err := ValidateSlug(slug); err != nil {
		return models.ExtractedFields{}, err
	}
	if slug == "" {
		return models.ExtractedFields{}, fmt.Errorf("%w: page %s has no title or slug", ErrEmptySlug, page.ID)
	}

	date, _ := notion.DateStart(props, PropDate)
	if date == "" {
		date = page.CreatedTime.UTC().Format("2006-01-02")
	}

	tags, _ := notion.MultiSelect(props, PropTags)

	fields := models.ExtractedFields{
		Title:  title,
		Slug:   slug,
		Status: a.status(props),
		Date:   date,
		Tags:   tags,
	}
	if summary, _ := notion.RichText(props, PropSummary); summary != "" {
		fields.Summary = &summary
	}
	return fields, nil
}

func pageTitle(props notionapi.Properties) string {
	title, _ := notion.Title(props, PropTitle)
	if title == "" {
		title, _ = notion.Title(props, PropName)
	}
	return title
}

func (a *Assembler) status(props notionapi.Properties) *string {
	if status, _ := notion.Select(props, a.statusProperty); status != "" {
		return &status
	}
	return nil
}

func (a *Assembler) isDraftStatus(status *string) bool {
	return status != nil && *status != a.publishedValue
}

// IsDraft Status 가 있고 게시 값과 다르면 초안으로 판단합니다
func (a *Assembler) IsDraft(fields models.ExtractedFields) bool {
	return a.isDraftStatus(fields.Status)
}

// Assemble 페이지를 최종 문서로 변환합니다. 초안이면 nil 을 반환합니다.
// 초안 판단은 slug 검증보다 먼저 합니다.
func (a *Assembler) Assemble(ctx context.Context, page notionapi.Page) (*models.OutputDocument, error) {
	if status := a.status(page.Properties); a.isDraftStatus(status) {
		a.logger.Info("초안 건너뜀", "title", pageTitle(page.Properties), "status", *status)
		return nil, nil
	}

	fields, err := a.Fields(page)
	if err != nil {
		return nil, err
	}

	body, err := a.renderer.Render(ctx, string(page.ID), fields.Slug)
	if err != nil {
		return nil, err
	}

	return &models.OutputDocument{
		Slug:    fields.Slug,
		Content: FrontMatter(fields) + body.Markdown,
		Images:  body.Images,
	}, nil
}

// FrontMatter 정해진 필드 순서로 front matter 블록을 만듭니다.
// draft 는 항상 false 로 기록합니다.
func FrontMatter(fields models.ExtractedFields) string {
	lines := []string{
		"---",
		fmt.Sprintf(`title: "%s"`, quoteEscaper.Replace(fields.Title)),
		"date: " + fields.Date,
		"draft: false",
	}

	if len(fields.Tags) > 0 {
		quoted := make([]string, len(fields.Tags))
		for i, tag := range fields.Tags {
			quoted[i] = `"` + quoteEscaper.Replace(tag) + `"`
		}
		lines = append(lines, "tags: ["+strings.Join(quoted, ", ")+"]")
	}

	if fields.Summary != nil {
		lines = append(lines, fmt.Sprintf(`summary: "%s"`, quoteEscaper.Replace(*fields.Summary)))
	}

	lines = append(lines, "---", "")
	return strings.Join(lines, "\n")
}

// Slugify 제목을 소문자로 바꾸고 영숫자가 아닌 연속 문자를 하이픈 하나로 바꿉니다
func Slugify(title string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "-")
}

// ValidateSlug 파일 이름으로 쓸 수 없는 slug 를 거부합니다
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrEmptySlug
	}
	if strings.ContainsAny(slug, "/\\\x00") || slug == "." || slug == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}
