package models

// ExtractedFields 페이지 속성에서 한 번 추출한 게시글 메타데이터
type ExtractedFields struct {
	Title   string
	Slug    string
	Status  *string  // nil 이면 Status 속성이 없거나 비어있음
	Date    string   // YYYY-MM-DD
	Tags    []string // 순서 유지
	Summary *string  // nil 이면 요약 없음
}

// LocalImageRef 원격 이미지와 로컬에 저장된 사본의 대응 관계
type LocalImageRef struct {
	SourceURL     string
	LocalPath     string // 사이트 기준 경로 (/images/posts/{slug}-{index}.{ext})
	SequenceIndex int
}

// ImageResult 이미지 하나의 로컬화 결과 (성공 시 Err == nil)
type ImageResult struct {
	Ref LocalImageRef
	Err error
}

// RenderedBody 이미지 링크가 치환된 마크다운 본문
type RenderedBody struct {
	Markdown string
	Images   []ImageResult
}

// ImageCount 처리한 이미지 개수를 반환합니다
func (b RenderedBody) ImageCount() int {
	return len(b.Images)
}

// FailedImages 다운로드에 실패한 이미지 결과만 반환합니다
func (b RenderedBody) FailedImages() []ImageResult {
	var failed []ImageResult
	for _, img := range b.Images {
		if img.Err != nil {
			failed = append(failed, img)
		}
	}
	return failed
}

// OutputDocument {slug}.md 로 기록될 최종 문서
type OutputDocument struct {
	Slug    string
	Content string
	Images  []ImageResult
}

// PageStatus 페이지 처리 결과 종류
type PageStatus string

const (
	PageWritten PageStatus = "written"
	PageSkipped PageStatus = "skipped" // 초안
	PageFailed  PageStatus = "failed"
)

// PageResult 페이지 하나의 처리 결과
type PageResult struct {
	PageID string
	Title  string
	Slug   string
	Status PageStatus
	Path   string // 기록된 파일 경로 (dry-run 이면 비어있음)
	Images []ImageResult
	Err    error
}

// Summary 한 번의 동기화 실행 결과를 집계합니다
type Summary struct {
	Pages []PageResult

	ContentDir string // 마크다운 출력 디렉터리
	ImagesDir  string // 이미지 출력 디렉터리
	Documents  int    // 동기화 후 출력 디렉터리의 .md 파일 개수
}

// Add 페이지 결과를 추가합니다
func (s *Summary) Add(r PageResult) {
	s.Pages = append(s.Pages, r)
}

// Count 주어진 상태의 페이지 개수를 반환합니다
func (s *Summary) Count(status PageStatus) int {
	n := 0
	for _, p := range s.Pages {
		if p.Status == status {
			n++
		}
	}
	return n
}

// Failed 실패한 페이지 결과만 반환합니다
func (s *Summary) Failed() []PageResult {
	var failed []PageResult
	for _, p := range s.Pages {
		if p.Status == PageFailed {
			failed = append(failed, p)
		}
	}
	return failed
}

// ImageCounts 전체 페이지의 이미지 성공/실패 개수를 반환합니다
func (s *Summary) ImageCounts() (ok, failed int) {
	for _, p := range s.Pages {
		for _, img := range p.Images {
			if img.Err != nil {
				failed++
			} else {
				ok++
			}
		}
	}
	return ok, failed
}
