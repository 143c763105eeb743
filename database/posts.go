// gib/database/posts.go
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gib/models"
	"gib/utils"
)

const postColumns = "id, board_id, parent_id, message, creation_time, update_time, author_hash"

func scanPost(row interface{ Scan(...interface{}) error }) (models.Post, error) {
	var p models.Post
	var authorHash sql.NullString
	err := row.Scan(&p.ID, &p.BoardID, &p.ParentID, &p.Message, &p.CreationTime, &p.UpdateTime, &authorHash)
	if err != nil {
		return p, err
	}
	p.AuthorHash = authorHash.String
	return p, nil
}

// GetPost fetches a single post by id.
func (ds *DatabaseService) GetPost(postID int64) (*models.Post, error) {
	row := ds.DB.QueryRow("SELECT "+postColumns+" FROM posts WHERE id = ?", postID)
	p, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting post %d: %w", postID, err)
	}
	return &p, nil
}

// AssembleThread returns the post decorated with its file metadata and,
// recursively, its complete descendant tree. Direct replies are ordered
// oldest-first. A post with no children gets an empty, non-nil Replies
// slice. Callers that cap the number of displayed replies truncate the
// result themselves; the assembler never does.
//
// Parent rows always exist before their children (auto-increment ids,
// parent checked at insert), so the recursion terminates.
func (ds *DatabaseService) AssembleThread(postID int64) (*models.ThreadTree, error) {
	post, err := ds.GetPost(postID)
	if err != nil {
		return nil, err
	}
	return ds.assembleSubtree(post)
}

func (ds *DatabaseService) assembleSubtree(post *models.Post) (*models.ThreadTree, error) {
	tree := &models.ThreadTree{Post: *post, Replies: []models.ThreadTree{}}

	files, err := ds.GetFilesForPost(post.ID)
	if err != nil {
		return nil, err
	}
	tree.Files = files

	rows, err := ds.DB.Query("SELECT "+postColumns+" FROM posts WHERE parent_id = ? ORDER BY creation_time ASC, id ASC", post.ID)
	if err != nil {
		return nil, fmt.Errorf("db error getting replies for post %d: %w", post.ID, err)
	}

	var children []models.Post
	for rows.Next() {
		child, err := scanPost(rows)
		if err != nil {
			ds.logger.Error("Failed to scan reply row", "parent_id", post.ID, "error", err)
			continue
		}
		children = append(children, child)
	}
	if cerr := rows.Close(); cerr != nil {
		ds.logger.Error("Failed to close rows in assembleSubtree", "error", cerr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range children {
		sub, err := ds.assembleSubtree(&children[i])
		if err != nil {
			return nil, err
		}
		tree.Replies = append(tree.Replies, *sub)
	}
	return tree, nil
}

// AncestorChain returns the post's ancestors ordered from the outermost
// thread root down to the immediate parent. A root post yields an empty
// chain. A dangling parent reference ends the walk without error.
func (ds *DatabaseService) AncestorChain(postID int64) ([]models.Post, error) {
	post, err := ds.GetPost(postID)
	if err != nil {
		return nil, err
	}

	var chain []models.Post
	parentID := post.ParentID
	for parentID.Valid {
		parent, err := ds.GetPost(parentID.Int64)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				break
			}
			return nil, err
		}
		chain = append([]models.Post{*parent}, chain...)
		parentID = parent.ParentID
	}
	return chain, nil
}

// CountThreads returns the number of thread roots on a board.
func (ds *DatabaseService) CountThreads(boardID string) (int, error) {
	if _, err := ds.GetBoard(boardID); err != nil {
		return 0, err
	}
	var count int
	err := ds.DB.QueryRow("SELECT COUNT(*) FROM posts WHERE board_id = ? AND parent_id IS NULL", boardID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetThreadSummaries retrieves one page of a board's threads, newest root
// first, each decorated with its file metadata, full descendant count,
// and the most recent direct replies for the board-view preview.
func (ds *DatabaseService) GetThreadSummaries(boardID string, limit, offset, previewReplies int) ([]models.ThreadSummary, error) {
	rows, err := ds.DB.Query("SELECT "+postColumns+" FROM posts WHERE board_id = ? AND parent_id IS NULL ORDER BY creation_time DESC, id DESC LIMIT ? OFFSET ?",
		boardID, limit, offset)
	if err != nil {
		return nil, err
	}

	var roots []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			ds.logger.Error("Failed to scan thread root", "board_id", boardID, "error", err)
			continue
		}
		roots = append(roots, p)
	}
	if cerr := rows.Close(); cerr != nil {
		ds.logger.Error("Failed to close rows in GetThreadSummaries", "error", cerr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]models.ThreadSummary, 0, len(roots))
	for i := range roots {
		tree, err := ds.assembleSubtree(&roots[i])
		if err != nil {
			return nil, err
		}

		s := models.ThreadSummary{
			Post:       roots[i],
			Files:      tree.Files,
			ReplyCount: tree.TotalReplies(),
		}
		if previewReplies > 0 {
			direct := tree.Replies
			start := len(direct) - previewReplies
			if start < 0 {
				start = 0
			}
			s.RecentReplies = direct[start:]
			s.OmittedCount = s.ReplyCount - len(s.RecentReplies)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// CreateThread inserts a new thread root along with its required file in
// a single transaction. No rows are written when validation fails.
func (ds *DatabaseService) CreateThread(boardID, message, authorHash string, upload *FileUpload) (int64, error) {
	message, err := ds.validatePostInput(boardID, message)
	if err != nil {
		return 0, err
	}
	if upload == nil {
		return 0, &ValidationError{Field: "file", Reason: "new threads require an attached file"}
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in CreateThread", "error", rerr)
		}
	}()

	now := utils.GetSQLTime()
	res, err := tx.Exec("INSERT INTO posts (board_id, message, creation_time, update_time, author_hash) VALUES (?, ?, ?, ?, ?)",
		boardID, message, now, now, authorHash)
	if err != nil {
		return 0, fmt.Errorf("failed to insert thread root: %w", err)
	}
	postID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := ds.insertFile(tx, boardID, postID, 0, upload); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit new thread: %w", err)
	}
	return postID, nil
}

// CreateReply inserts a reply to an existing post. The parent must exist
// and live on the same board; replies may carry an optional file.
func (ds *DatabaseService) CreateReply(boardID string, parentID int64, message, authorHash string, upload *FileUpload) (int64, error) {
	message, err := ds.validatePostInput(boardID, message)
	if err != nil {
		return 0, err
	}

	parent, err := ds.GetPost(parentID)
	if err != nil {
		return 0, err
	}
	if parent.BoardID != boardID {
		return 0, &ValidationError{Field: "parent_id", Reason: "parent post belongs to a different board"}
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in CreateReply", "error", rerr)
		}
	}()

	now := utils.GetSQLTime()
	res, err := tx.Exec("INSERT INTO posts (board_id, parent_id, message, creation_time, update_time, author_hash) VALUES (?, ?, ?, ?, ?, ?)",
		boardID, parentID, message, now, now, authorHash)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reply: %w", err)
	}
	postID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if upload != nil {
		if _, err := ds.insertFile(tx, boardID, postID, 0, upload); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reply: %w", err)
	}
	return postID, nil
}

func (ds *DatabaseService) validatePostInput(boardID, message string) (string, error) {
	if boardID == "" {
		return "", &ValidationError{Field: "board_id", Reason: "board id is required"}
	}
	if _, err := ds.GetBoard(boardID); err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", &ValidationError{Field: "message", Reason: "message cannot be empty"}
	}
	return message, nil
}
