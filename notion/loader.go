package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 350 * time.Millisecond
	maxBlockDepth    = 20
	pageSize         = 100
)

// Loader Notion API 로 데이터베이스를 조회하고 페이지 본문을 가져오는 구조체
type Loader struct {
	client  *notionapi.Client
	limiter *rate.Limiter
}

// Option Loader 생성 옵션
type Option func(*loaderOptions)

type loaderOptions struct {
	httpClient *http.Client
	interval   time.Duration
}

// WithHTTPClient Notion API 호출에 사용할 HTTP 클라이언트를 지정합니다
func WithHTTPClient(c *http.Client) Option {
	return func(o *loaderOptions) { o.httpClient = c }
}

// WithRateLimit API 호출 사이의 최소 간격을 지정합니다 (0 이하면 제한 없음)
func WithRateLimit(d time.Duration) Option {
	return func(o *loaderOptions) { o.interval = d }
}

// NewLoader 새로운 Notion 로더를 생성합니다
func NewLoader(apiKey string, opts ...Option) *Loader {
	o := loaderOptions{interval: defaultRateLimit}
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []notionapi.ClientOption
	if o.httpClient != nil {
		clientOpts = append(clientOpts, notionapi.WithHTTPClient(o.httpClient))
	}

	limit := rate.Inf
	if o.interval > 0 {
		limit = rate.Every(o.interval)
	}

	return &Loader{
		client:  notionapi.NewClient(notionapi.Token(apiKey), clientOpts...),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// QueryPublished select 속성 값이 value 와 같은 페이지를 모두 조회합니다
func (l *Loader) QueryPublished(ctx context.Context, databaseID, property, value string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req := &notionapi.DatabaseQueryRequest{
			Filter: &notionapi.PropertyFilter{
				Property: property,
				Select:   &notionapi.SelectFilterCondition{Equals: value},
			},
			StartCursor: cursor,
			PageSize:    pageSize,
		}

		resp, err := l.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
		if err != nil {
			return nil, fmt.Errorf("데이터베이스 조회 실패: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return pages, nil
}

// PageMarkdown 페이지의 블록을 모두 가져와 마크다운으로 변환합니다
func (l *Loader) PageMarkdown(ctx context.Context, pageID string) (string, error) {
	nodes, err := l.FetchBlocks(ctx, pageID)
	if err != nil {
		return "", err
	}
	return ToMarkdown(nodes), nil
}

// FetchBlocks 페이지의 블록 트리를 재귀적으로 가져옵니다
func (l *Loader) FetchBlocks(ctx context.Context, pageID string) ([]*BlockNode, error) {
	nodes, err := l.fetchChildren(ctx, notionapi.BlockID(pageID), 0)
	if err != nil {
		return nil, fmt.Errorf("블록 조회 실패 (%s): %w", pageID, err)
	}
	return nodes, nil
}

func (l *Loader) fetchChildren(ctx context.Context, blockID notionapi.BlockID, depth int) ([]*BlockNode, error) {
	var nodes []*BlockNode
	var cursor notionapi.Cursor

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := l.client.Block.GetChildren(ctx, blockID, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, err
		}

		for _, block := range resp.Results {
			node := &BlockNode{Block: block}

			// 하위 페이지나 데이터베이스는 다른 문서이므로 내려가지 않음
			if block.GetHasChildren() && depth < maxBlockDepth && !isLinkedDocument(block) {
				children, err := l.fetchChildren(ctx, block.GetID(), depth+1)
				if err != nil {
					return nil, err
				}
				node.Children = children
			}

			nodes = append(nodes, node)
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return nodes, nil
}

func isLinkedDocument(block notionapi.Block) bool {
	switch block.(type) {
	case *notionapi.ChildPageBlock, *notionapi.ChildDatabaseBlock:
		return true
	}
	return false
}
