package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"notion-blog-sync/models"
)

// Store 게시글 마크다운 파일을 저장하는 콘텐츠 디렉터리
type Store struct {
	dir string
}

// NewStore 콘텐츠 디렉터리를 준비하고 저장소를 생성합니다 (없으면 생성)
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("콘텐츠 디렉터리 생성 실패: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Exists 디렉터리가 존재하는지 확인합니다
func Exists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Dir 콘텐츠 디렉터리 경로를 반환합니다
func (s *Store) Dir() string {
	return s.dir
}

// Path slug 에 해당하는 파일 경로를 반환합니다
func (s *Store) Path(slug string) string {
	return filepath.Join(s.dir, slug+".md")
}

// Count 저장된 마크다운 파일 개수를 반환합니다
func (s *Store) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("콘텐츠 디렉터리 읽기 실패: %w", err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			count++
		}
	}
	return count, nil
}

// AddDocument 문서를 {slug}.md 로 기록합니다. 같은 이름의 파일은 덮어씁니다.
func (s *Store) AddDocument(ctx context.Context, doc *models.OutputDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc.Slug == "" || strings.ContainsAny(doc.Slug, `/\`) {
		return "", fmt.Errorf("잘못된 slug: %q", doc.Slug)
	}

	path := s.Path(doc.Slug)
	if err := os.WriteFile(path, []byte(doc.Content), 0o644); err != nil {
		return "", fmt.Errorf("문서 저장 실패 (%s): %w", path, err)
	}
	return path, nil
}
