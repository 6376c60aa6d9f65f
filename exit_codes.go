package main

import (
	"errors"

	"notion-blog-sync/syncer"
)

// 종료 코드
const (
	ExitSuccess = 0 // 성공 (일부 페이지 실패 포함, --fail-on-error 가 없을 때)
	ExitGeneral = 1 // 조회 실패 등 일반 오류
	ExitUsage   = 2 // 설정 누락 또는 잘못된 설정
	ExitPartial = 3 // --fail-on-error 이고 실패한 페이지가 있음
)

// exitCodeFor 에러에 맞는 종료 코드를 반환합니다
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrPagesFailed):
		return ExitPartial
	case errors.Is(err, syncer.ErrMissingDatabaseID),
		errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, ErrInvalidDatabaseID),
		errors.Is(err, ErrConfigNotFound),
		errors.Is(err, ErrConfigParse):
		return ExitUsage
	default:
		return ExitGeneral
	}
}
