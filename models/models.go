// gib/models/models.go
package models

import (
	"database/sql"
	"time"
)

// --- Core Data Models ---

type Board struct {
	ID   string
	Name string
}

type Post struct {
	ID           int64
	BoardID      string
	ParentID     sql.NullInt64
	Message      string
	CreationTime time.Time
	UpdateTime   time.Time
	AuthorHash   string
}

// IsRoot reports whether the post starts a thread.
func (p *Post) IsRoot() bool {
	return !p.ParentID.Valid
}

// FileMeta is the per-post file record without its content blob.
type FileMeta struct {
	ID           int64
	CreationTime time.Time
	Name         string
	Extension    string
	Mime         string
	IndexNum     int
	BoardID      string
	PostID       int64
	HasThumbnail bool
}

// FileContent is what the file-serving boundary returns.
type FileContent struct {
	Mime    string
	Name    string
	Content []byte
}

// ThreadTree is a post decorated with its file metadata and, recursively,
// every descendant. Replies are ordered oldest-first and owned by value;
// the tree is acyclic by construction.
type ThreadTree struct {
	Post
	Files   []FileMeta
	Replies []ThreadTree
}

// TotalReplies counts every descendant at any depth.
func (t *ThreadTree) TotalReplies() int {
	n := len(t.Replies)
	for i := range t.Replies {
		n += t.Replies[i].TotalReplies()
	}
	return n
}

// TotalFiles counts files attached to the root and every descendant.
func (t *ThreadTree) TotalFiles() int {
	n := len(t.Files)
	for i := range t.Replies {
		n += t.Replies[i].TotalFiles()
	}
	return n
}

// ThreadSummary is a board/catalog listing entry: the root post plus the
// derived counters the listing shows.
type ThreadSummary struct {
	Post
	Files      []FileMeta
	ReplyCount int
	// Latest direct replies for the board view preview, oldest-first.
	RecentReplies []ThreadTree
	OmittedCount  int
}

// BoardStats is the aggregate header shown on a board page.
type BoardStats struct {
	ThreadCount  int
	PostsLastDay int
}

// Pagination is the bounded state computed from a requested page number.
type Pagination struct {
	Page       int
	TotalPages int
	TotalItems int
	PageSize   int
	Offset     int
	// OutOfRange means the request asked past the last page of a
	// non-empty listing; the handler redirects to TotalPages.
	OutOfRange bool
}

// Page represents a single link in the pagination control.
type Page struct {
	Number     int
	IsCurrent  bool
	IsEllipsis bool
}

type FormInput struct {
	Message string
}
