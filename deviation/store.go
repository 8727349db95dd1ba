// Package deviation caches the active contract's deviations and their
// comment threads, and owns the open/closed lifecycle rules.
package deviation

import (
	"strings"
	"sync"

	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

// Store indexes deviations by id and by article number. It holds the
// server-confirmed truth only: mutations go upstream and the store is
// reloaded wholesale from the authoritative contract detail afterward.
type Store struct {
	mu        sync.RWMutex
	byID      map[string]model.Deviation
	byArticle map[int][]model.Deviation
	total     int
}

func NewStore() *Store {
	return &Store{
		byID:      make(map[string]model.Deviation),
		byArticle: make(map[int][]model.Deviation),
	}
}

// Load replaces the cached deviation set. Slice order within an
// article is arrival order and is preserved as-is, never re-sorted.
func (s *Store) Load(deviations []model.Deviation) {
	byID := make(map[string]model.Deviation, len(deviations))
	byArticle := make(map[int][]model.Deviation)
	for _, d := range deviations {
		byID[d.DeviationID] = d
		byArticle[d.ArticleNo] = append(byArticle[d.ArticleNo], d)
	}

	s.mu.Lock()
	s.byID = byID
	s.byArticle = byArticle
	s.total = len(deviations)
	s.mu.Unlock()
}

// Get looks up one deviation by id.
func (s *Store) Get(id string) (model.Deviation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	return d, ok
}

// ByArticle returns every deviation of an article in arrival order.
func (s *Store) ByArticle(articleNo int) []model.Deviation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devs := s.byArticle[articleNo]
	out := make([]model.Deviation, len(devs))
	copy(out, devs)
	return out
}

// Filtered returns the article's deviations narrowed by status.
// An empty status passes everything. The result is always a subset of
// ByArticle in the same order.
func (s *Store) Filtered(articleNo int, status string) []model.Deviation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Deviation
	for _, d := range s.byArticle[articleNo] {
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, d)
	}
	return out
}

// OpenCount returns the number of open deviations of an article.
// Drives the "Open N" badge.
func (s *Store) OpenCount(articleNo int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.byArticle[articleNo] {
		if d.Status == model.StatusOpen {
			n++
		}
	}
	return n
}

// Count returns the total number of cached deviations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// ValidateCreate checks the locally-enforced preconditions of opening
// a deviation. Failures block the action before any network call.
func ValidateCreate(articleNo int, subject string) error {
	if articleNo == 0 {
		return apperr.Validation("조항을 먼저 선택해 주세요")
	}
	if strings.TrimSpace(subject) == "" {
		return apperr.Validation("특이사항 제목을 입력해 주세요")
	}
	return nil
}

// ValidateComment checks the preconditions of appending a comment.
func ValidateComment(deviationID, content string) error {
	if deviationID == "" {
		return apperr.Validation("특이사항을 먼저 선택해 주세요")
	}
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("의견 내용을 입력해 주세요")
	}
	return nil
}
