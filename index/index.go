// Package index holds the parsed article/chapter structure of the
// active contract and serves filtered, chapter-grouped views of it.
package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/yisunguk/drawing-detector-sub003/model"
)

// Filters narrow the visible article set. Zero values pass everything:
// Chapter 0 means all chapters, an empty Keyword matches every article.
type Filters struct {
	Chapter int
	Keyword string
}

// Index is the read-side snapshot of a contract's structure. Load
// swaps the whole snapshot at once; readers never observe a partial
// overwrite. Articles are immutable after ingestion, so there are no
// per-article mutations.
type Index struct {
	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	chapters []model.Chapter
	articles []model.Article
	byNo     map[int]model.Article
}

func New() *Index {
	return &Index{snap: &snapshot{byNo: make(map[int]model.Article)}}
}

// Load replaces the active article/chapter set atomically.
func (ix *Index) Load(chapters []model.Chapter, articles []model.Article) {
	s := &snapshot{
		chapters: make([]model.Chapter, len(chapters)),
		articles: make([]model.Article, len(articles)),
		byNo:     make(map[int]model.Article, len(articles)),
	}
	copy(s.chapters, chapters)
	copy(s.articles, articles)
	for _, a := range articles {
		s.byNo[a.No] = a
	}

	ix.mu.Lock()
	ix.snap = s
	ix.mu.Unlock()
}

func (ix *Index) snapshot() *snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap
}

// Chapters returns the chapter list in load order.
func (ix *Index) Chapters() []model.Chapter {
	s := ix.snapshot()
	out := make([]model.Chapter, len(s.chapters))
	copy(out, s.chapters)
	return out
}

// Get looks up one article by number.
func (ix *Index) Get(no int) (model.Article, bool) {
	s := ix.snapshot()
	a, ok := s.byNo[no]
	return a, ok
}

// Len returns the number of loaded articles.
func (ix *Index) Len() int {
	return len(ix.snapshot().articles)
}

// Query returns the articles passing the chapter and keyword
// predicates, grouped by chapter number ascending. Within a chapter,
// articles keep their original order. Recomputed on every call.
func (ix *Index) Query(f Filters) []model.Article {
	s := ix.snapshot()

	var out []model.Article
	for _, a := range s.articles {
		if f.Chapter != 0 && a.Chapter != f.Chapter {
			continue
		}
		if !matchKeyword(a, f.Keyword) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Chapter < out[j].Chapter
	})
	return out
}

// matchKeyword reports whether the article's rendered label, title or
// content contains keyword, case-insensitively. Empty keyword passes.
func matchKeyword(a model.Article, keyword string) bool {
	if keyword == "" {
		return true
	}
	needle := strings.ToLower(keyword)
	for _, field := range []string{a.Label(), a.Title, a.Content} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
