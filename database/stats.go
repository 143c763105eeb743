// gib/database/stats.go
package database

import (
	"fmt"
	"time"

	"gib/models"
	"gib/utils"
)

// The descendant CTE walks the parent_id self-reference from a thread
// root down through every reply at any depth.
const descendantsCTE = `
WITH RECURSIVE descendants(id) AS (
	SELECT id FROM posts WHERE parent_id = ?
	UNION ALL
	SELECT p.id FROM posts p JOIN descendants d ON p.parent_id = d.id
)`

// CountReplies returns the number of descendants of a post at any depth.
// A missing post is an error, never a silent zero.
func (ds *DatabaseService) CountReplies(postID int64) (int, error) {
	if _, err := ds.GetPost(postID); err != nil {
		return 0, err
	}
	var count int
	err := ds.DB.QueryRow(descendantsCTE+" SELECT COUNT(*) FROM descendants", postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error counting replies for post %d: %w", postID, err)
	}
	return count, nil
}

// CountThreadFiles returns the number of files attached to a post and
// every one of its descendants.
func (ds *DatabaseService) CountThreadFiles(postID int64) (int, error) {
	if _, err := ds.GetPost(postID); err != nil {
		return 0, err
	}
	var count int
	err := ds.DB.QueryRow(descendantsCTE+`
		SELECT COUNT(*) FROM files
		WHERE post_id = ? OR post_id IN (SELECT id FROM descendants)`, postID, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error counting files for post %d: %w", postID, err)
	}
	return count, nil
}

// CountUniquePosters returns the number of distinct author identities
// across a thread. Rows predating the identity migration carry no hash
// and count individually.
func (ds *DatabaseService) CountUniquePosters(postID int64) (int, error) {
	if _, err := ds.GetPost(postID); err != nil {
		return 0, err
	}
	var count int
	err := ds.DB.QueryRow(descendantsCTE+`
		SELECT COUNT(DISTINCT COALESCE(NULLIF(author_hash, ''), 'legacy:' || id))
		FROM posts WHERE id = ? OR id IN (SELECT id FROM descendants)`, postID, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error counting posters for post %d: %w", postID, err)
	}
	return count, nil
}

// CountPostsLastDay returns the number of posts on a board created within
// the last 24 hours, threads and replies alike.
func (ds *DatabaseService) CountPostsLastDay(boardID string) (int, error) {
	if _, err := ds.GetBoard(boardID); err != nil {
		return 0, err
	}
	cutoff := utils.GetSQLTime().Add(-24 * time.Hour)
	var count int
	err := ds.DB.QueryRow("SELECT COUNT(*) FROM posts WHERE board_id = ? AND creation_time > ?", boardID, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error counting recent posts on '%s': %w", boardID, err)
	}
	return count, nil
}

// GetBoardStats bundles the counters the board page header shows.
func (ds *DatabaseService) GetBoardStats(boardID string) (*models.BoardStats, error) {
	threads, err := ds.CountThreads(boardID)
	if err != nil {
		return nil, err
	}
	lastDay, err := ds.CountPostsLastDay(boardID)
	if err != nil {
		return nil, err
	}
	return &models.BoardStats{ThreadCount: threads, PostsLastDay: lastDay}, nil
}
