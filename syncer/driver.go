package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"notion-blog-sync/models"
	"notion-blog-sync/notion"
	"notion-blog-sync/post"

	"github.com/jomei/notionapi"
)

// ErrMissingDatabaseID 데이터베이스 ID 가 설정되지 않았을 때 반환됩니다
var ErrMissingDatabaseID = errors.New("NOTION_DATABASE_ID not set")

// PageSource 게시된 페이지 목록을 조회하는 인터페이스
type PageSource interface {
	QueryPublished(ctx context.Context, databaseID, property, value string) ([]notionapi.Page, error)
}

// DocumentAssembler 페이지를 최종 문서로 변환하는 인터페이스 (초안이면 nil)
type DocumentAssembler interface {
	Assemble(ctx context.Context, page notionapi.Page) (*models.OutputDocument, error)
}

// DocumentWriter 문서를 기록하고 경로를 반환하는 인터페이스
type DocumentWriter interface {
	AddDocument(ctx context.Context, doc *models.OutputDocument) (string, error)
}

// Observer 동기화 진행 상황을 전달받는 인터페이스
type Observer interface {
	Started(total int)
	PageDone(result models.PageResult)
}

// Config 동기화 설정
type Config struct {
	DatabaseID     string
	StatusProperty string
	PublishedValue string
	DryRun         bool // 문서를 만들기만 하고 파일로 기록하지 않음
}

// Driver 데이터베이스의 게시글을 순서대로 하나씩 동기화하는 구조체
type Driver struct {
	cfg       Config
	source    PageSource
	assembler DocumentAssembler
	writer    DocumentWriter
	logger    *slog.Logger
	observers []Observer
}

// Option Driver 생성 옵션
type Option func(*Driver)

// WithLogger 로거를 지정합니다
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithObserver 진행 상황 수신자를 추가합니다
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

// NewDriver 새로운 동기화 드라이버를 생성합니다
func NewDriver(cfg Config, source PageSource, assembler DocumentAssembler, writer DocumentWriter, opts ...Option) *Driver {
	if cfg.StatusProperty == "" {
		cfg.StatusProperty = post.PropStatus
	}
	if cfg.PublishedValue == "" {
		cfg.PublishedValue = post.DefaultPublishedValue
	}

	d := &Driver{
		cfg:       cfg,
		source:    source,
		assembler: assembler,
		writer:    writer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sync 게시된 페이지를 모두 조회해서 문서로 기록합니다.
// 페이지 단위 실패는 Summary 에 기록하고 다음 페이지를 계속 처리합니다.
func (d *Driver) Sync(ctx context.Context) (*models.Summary, error) {
	if d.cfg.DatabaseID == "" {
		return nil, ErrMissingDatabaseID
	}

	d.logger.Info("Notion 에서 페이지를 가져오는 중", "database_id", d.cfg.DatabaseID)
	pages, err := d.source.QueryPublished(ctx, d.cfg.DatabaseID, d.cfg.StatusProperty, d.cfg.PublishedValue)
	if err != nil {
		return nil, fmt.Errorf("게시글 조회 실패: %w", err)
	}

	d.logger.Info("게시글 조회 완료", "count", len(pages))
	for _, o := range d.observers {
		o.Started(len(pages))
	}

	summary := &models.Summary{}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := d.syncPage(ctx, page)
		summary.Add(result)
		for _, o := range d.observers {
			o.PageDone(result)
		}
	}

	written := summary.Count(models.PageWritten)
	imagesOK, imagesFailed := summary.ImageCounts()
	d.logger.Info("동기화 완료",
		"written", written,
		"skipped", summary.Count(models.PageSkipped),
		"failed", summary.Count(models.PageFailed),
		"images", imagesOK,
		"images_failed", imagesFailed,
	)
	return summary, nil
}

func (d *Driver) syncPage(ctx context.Context, page notionapi.Page) (result models.PageResult) {
	result = models.PageResult{
		PageID: string(page.ID),
		Title:  pageTitle(page),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = models.PageFailed
			result.Err = fmt.Errorf("panic: %v", r)
			d.logger.Error("페이지 처리 실패", "page_id", result.PageID, "title", result.Title, "error", result.Err)
		}
	}()

	doc, err := d.assembler.Assemble(ctx, page)
	if err != nil {
		result.Status = models.PageFailed
		result.Err = err
		d.logger.Error("페이지 처리 실패", "page_id", result.PageID, "title", result.Title, "error", err)
		return result
	}

	if doc == nil {
		result.Status = models.PageSkipped
		return result
	}

	result.Slug = doc.Slug
	result.Images = doc.Images

	if d.cfg.DryRun {
		result.Status = models.PageWritten
		d.logger.Info("dry-run: 기록 생략", "slug", doc.Slug)
		return result
	}

	path, err := d.writer.AddDocument(ctx, doc)
	if err != nil {
		result.Status = models.PageFailed
		result.Err = err
		d.logger.Error("페이지 처리 실패", "page_id", result.PageID, "slug", doc.Slug, "error", err)
		return result
	}

	result.Status = models.PageWritten
	result.Path = path
	d.logger.Info("문서 기록 완료", "slug", doc.Slug, "path", path)
	return result
}

// pageTitle 로그에 쓸 페이지 제목을 구합니다
func pageTitle(page notionapi.Page) string {
	if title, _ := notion.Title(page.Properties, post.PropTitle); title != "" {
		return title
	}
	title, _ := notion.Title(page.Properties, post.PropName)
	return title
}
