package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"notion-blog-sync/images"
	"notion-blog-sync/post"
	"notion-blog-sync/syncer"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// 기본 설정 파일 경로 (없으면 건너뜀)
const defaultConfigPath = "notion-sync.yaml"

var (
	ErrConfigNotFound    = errors.New("config file not found")
	ErrConfigParse       = errors.New("failed to parse config")
	ErrMissingAPIKey     = errors.New("NOTION_API_KEY not set")
	ErrInvalidDatabaseID = errors.New("invalid Notion database ID")
)

// Notion URL 은 "제목-<32자리 16진수>" 형태로 끝남
var undashedIDSuffix = regexp.MustCompile(`[0-9a-fA-F]{32}$`)

// Config 애플리케이션 설정 구조체
type Config struct {
	NotionAPIKey    string        `yaml:"notion_api_key"`
	DatabaseID      string        `yaml:"database_id"`
	ContentDir      string        `yaml:"content_dir"`
	ImagesDir       string        `yaml:"images_dir"`
	ImagesURLPrefix string        `yaml:"images_url_prefix"`
	MaxRedirects    int           `yaml:"max_redirects"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	StatusProperty  string        `yaml:"status_property"`
	PublishedValue  string        `yaml:"published_value"`
	RateLimit       time.Duration `yaml:"rate_limit"`
}

// DefaultConfig 기본 설정을 반환합니다
func DefaultConfig() *Config {
	return &Config{
		ContentDir:      "content/posts",
		ImagesDir:       "static/images/posts",
		ImagesURLPrefix: images.DefaultURLPrefix,
		MaxRedirects:    images.DefaultMaxRedirects,
		StatusProperty:  post.PropStatus,
		PublishedValue:  post.DefaultPublishedValue,
		RateLimit:       350 * time.Millisecond,
	}
}

// LoadConfig 설정 파일과 환경 변수에서 설정을 로드합니다.
// explicit 가 false 이면 설정 파일이 없어도 기본값으로 진행합니다.
func LoadConfig(path string, explicit bool, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// 설정 파일 없이 환경 변수만 사용
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		case err != nil:
			return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
			}
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("NOTION_API_KEY"); v != "" {
		cfg.NotionAPIKey = v
	}
	if v := getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.DatabaseID = v
	}

	return cfg, nil
}

// Validate 필수 값을 검증하고 데이터베이스 ID 를 정규화합니다
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseID) == "" {
		return syncer.ErrMissingDatabaseID
	}
	if c.NotionAPIKey == "" {
		return ErrMissingAPIKey
	}

	id, err := NormalizeDatabaseID(c.DatabaseID)
	if err != nil {
		return err
	}
	c.DatabaseID = id

	if c.ContentDir == "" || c.ImagesDir == "" {
		return fmt.Errorf("%w: content_dir 와 images_dir 는 비어있을 수 없습니다", ErrConfigParse)
	}
	if c.MaxRedirects < 0 {
		c.MaxRedirects = 0
	}
	return nil
}

// NormalizeDatabaseID 데이터베이스 ID 또는 Notion URL 에서 ID 를 찾아 UUID 형식으로 바꿉니다
func NormalizeDatabaseID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if m := undashedIDSuffix.FindString(s); m != "" {
		s = m
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidDatabaseID, raw, err)
	}
	return id.String(), nil
}
