package models

import (
	"errors"
	"testing"
)

func TestSummary(t *testing.T) {
	var s Summary
	s.Add(PageResult{PageID: "1", Status: PageWritten, Images: []ImageResult{{}, {}, {Err: errors.New("404")}}})
	s.Add(PageResult{PageID: "2", Status: PageSkipped})
	s.Add(PageResult{PageID: "3", Status: PageFailed, Err: errors.New("boom")})
	s.Add(PageResult{PageID: "4", Status: PageWritten})

	if got := s.Count(PageWritten); got != 2 {
		t.Errorf("Count(written) = %d, want 2", got)
	}
	if failed := s.Failed(); len(failed) != 1 || failed[0].PageID != "3" {
		t.Errorf("Failed() = %+v", failed)
	}
	if ok, failed := s.ImageCounts(); ok != 2 || failed != 1 {
		t.Errorf("ImageCounts() = %d, %d, want 2, 1", ok, failed)
	}
}

func TestRenderedBody_FailedImages(t *testing.T) {
	body := RenderedBody{Images: []ImageResult{
		{Ref: LocalImageRef{SequenceIndex: 0}},
		{Ref: LocalImageRef{SequenceIndex: 1}, Err: errors.New("timeout")},
	}}
	if body.ImageCount() != 2 {
		t.Errorf("ImageCount() = %d, want 2", body.ImageCount())
	}
	failed := body.FailedImages()
	if len(failed) != 1 || failed[0].Ref.SequenceIndex != 1 {
		t.Errorf("FailedImages() = %+v", failed)
	}
}
