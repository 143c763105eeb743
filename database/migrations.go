package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Add the anonymous author identity to posts. Rows from before this
-- migration keep a NULL hash and count individually in poster stats.
ALTER TABLE posts ADD COLUMN author_hash TEXT;

CREATE INDEX IF NOT EXISTS idx_posts_author_hash ON posts(author_hash);
		`,
	},
}
