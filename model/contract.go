package model

import (
	"fmt"
	"time"
)

// Author roles of the two counterparties to a contract.
const (
	RoleContractor = "contractor"
	RoleClient     = "client"
)

// Deviation status values.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ToggledStatus returns the opposite deviation status.
func ToggledStatus(status string) string {
	if status == StatusOpen {
		return StatusClosed
	}
	return StatusOpen
}

// ContractSummary is one row of the upstream contract list.
type ContractSummary struct {
	ContractID    string `json:"contract_id"`
	ContractName  string `json:"contract_name"`
	ArticlesCount int    `json:"articles_count"`
}

// Contract is the full detail of one contract as returned by the
// upstream parse service. The session keeps a cached copy of exactly
// one contract at a time.
type Contract struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	TotalPages int         `json:"total_pages"`
	Chapters   []Chapter   `json:"chapters"`
	Articles   []Article   `json:"articles"`
	Deviations []Deviation `json:"deviations"`
	Stats      Stats       `json:"stats"`
}

// Chapter is a top-level grouping of articles. Immutable once loaded.
type Chapter struct {
	No    int    `json:"no"`
	Title string `json:"title"`
}

// Article is one numbered clause of a contract. Chapter is 0 when the
// article does not belong to any chapter. Immutable once loaded.
type Article struct {
	No         int    `json:"no"`
	Chapter    int    `json:"chapter,omitempty"`
	Title      string `json:"title"`
	Page       int    `json:"page"`
	SubClauses int    `json:"sub_clauses"`
	Content    string `json:"content"`
}

// Label renders the display label of the article, e.g. "제3조".
func (a Article) Label() string {
	return fmt.Sprintf("제%d조", a.No)
}

// Deviation is one negotiated disagreement attached to a single article.
type Deviation struct {
	DeviationID string    `json:"deviation_id"`
	ArticleNo   int       `json:"article_no"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Comments    []Comment `json:"comments"`
}

// Comment is one message in a deviation's discussion thread.
// Threads are append-only; slice order is display order.
type Comment struct {
	CommentID  string    `json:"comment_id"`
	Author     string    `json:"author"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats are the server-computed deviation counters of a contract.
type Stats struct {
	TotalDeviations  int `json:"total_deviations"`
	OpenDeviations   int `json:"open_deviations"`
	ClosedDeviations int `json:"closed_deviations"`
}

// Browse entry types.
const (
	EntryFolder = "folder"
	EntryFile   = "file"
)

// BrowseEntry describes one child of the current browser path.
// Transient: never persisted, replaced wholesale on every listing.
type BrowseEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}
