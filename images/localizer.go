// Package images 게시글이 참조하는 원격 이미지를 내려받아 정적 이미지 디렉터리에 저장합니다
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxRedirects 다운로드 한 번에 따라갈 수 있는 최대 리다이렉트 횟수
const DefaultMaxRedirects = 10

// DefaultURLPrefix 사이트에서 이미지가 제공되는 경로
const DefaultURLPrefix = "/images/posts"

var (
	ErrTooManyRedirects   = errors.New("too many redirects")
	ErrMissingLocation    = errors.New("redirect without Location header")
	ErrUnexpectedStatus   = errors.New("unexpected HTTP status")
	ErrUnsupportedScheme  = errors.New("unsupported URL scheme")
	ErrInvalidImageTarget = errors.New("invalid slug or index for image file")
)

// Localizer 이미지를 로컬 디렉터리에 저장하고 사이트 기준 경로를 돌려주는 구조체
type Localizer struct {
	dir          string
	urlPrefix    string
	maxRedirects int
	timeout      time.Duration
	client       *http.Client
}

// Option Localizer 생성 옵션
type Option func(*Localizer)

// WithHTTPClient 다운로드에 사용할 HTTP 클라이언트를 지정합니다.
// 리다이렉트는 Localizer 가 직접 따라가므로 클라이언트의 리다이렉트 정책은 덮어씁니다.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Localizer) { l.client = c }
}

// WithMaxRedirects 최대 리다이렉트 횟수를 지정합니다 (음수는 0)
func WithMaxRedirects(n int) Option {
	return func(l *Localizer) {
		if n < 0 {
			n = 0
		}
		l.maxRedirects = n
	}
}

// WithURLPrefix 반환 경로의 접두사를 지정합니다
func WithURLPrefix(prefix string) Option {
	return func(l *Localizer) { l.urlPrefix = prefix }
}

// WithTimeout 리다이렉트를 포함한 다운로드 한 번의 제한 시간 (0 이면 제한 없음)
func WithTimeout(d time.Duration) Option {
	return func(l *Localizer) { l.timeout = d }
}

// NewLocalizer dir 에 이미지를 저장하는 Localizer 를 생성합니다
func NewLocalizer(dir string, opts ...Option) *Localizer {
	l := &Localizer{
		dir:          dir,
		urlPrefix:    DefaultURLPrefix,
		maxRedirects: DefaultMaxRedirects,
		client:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(l)
	}

	c := *l.client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	l.client = &c
	return l
}

// Dir 이미지 저장 디렉터리를 반환합니다
func (l *Localizer) Dir() string {
	return l.dir
}

// Extension URL 문자열만 보고 확장자를 추정합니다
func Extension(rawURL string) string {
	switch {
	case strings.Contains(rawURL, ".png"):
		return "png"
	case strings.Contains(rawURL, ".gif"):
		return "gif"
	default:
		return "jpg"
	}
}

// Filename 이미지의 로컬 파일 이름을 반환합니다
func Filename(rawURL, slug string, index int) string {
	return fmt.Sprintf("%s-%d.%s", slug, index, Extension(rawURL))
}

// Localize rawURL 을 {slug}-{index}.{ext} 로 저장하고 사이트 기준 경로를 반환합니다.
// 확장자는 리다이렉트 대상이 아닌 원래 URL 에서 결정합니다.
func (l *Localizer) Localize(ctx context.Context, rawURL, slug string, index int) (string, error) {
	if slug == "" || strings.ContainsAny(slug, `/\`) || index < 0 {
		return "", fmt.Errorf("%w: slug=%q index=%d", ErrInvalidImageTarget, slug, index)
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("이미지 디렉터리 생성 실패: %w", err)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	data, err := l.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	name := Filename(rawURL, slug, index)
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("이미지 저장 실패 (%s): %w", name, err)
	}

	return strings.TrimRight(l.urlPrefix, "/") + "/" + name, nil
}

// fetch 리다이렉트를 제한된 횟수만큼 따라간 뒤 최종 응답 본문을 메모리에 읽습니다
func (l *Localizer) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("이미지 URL 파싱 실패: %w", err)
	}

	for hops := 0; ; hops++ {
		if current.Scheme != "http" && current.Scheme != "https" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, current.String())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("요청 생성 실패: %w", err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("다운로드 실패 (%s): %w", current, err)
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drain(resp)
			if location == "" {
				return nil, fmt.Errorf("%w: %s", ErrMissingLocation, current)
			}
			if hops >= l.maxRedirects {
				return nil, fmt.Errorf("%w: %s (limit %d)", ErrTooManyRedirects, rawURL, l.maxRedirects)
			}
			next, err := current.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("리다이렉트 위치 파싱 실패 (%q): %w", location, err)
			}
			current = next
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			drain(resp)
			return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, current)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("응답 읽기 실패 (%s): %w", current, err)
		}
		return data, nil
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
