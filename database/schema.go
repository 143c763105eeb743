package database

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	board_id TEXT NOT NULL,
	parent_id INTEGER,
	message TEXT NOT NULL,
	creation_time DATETIME DEFAULT CURRENT_TIMESTAMP,
	update_time DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (board_id) REFERENCES boards(id),
	FOREIGN KEY (parent_id) REFERENCES posts(id)
);
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	creation_time DATETIME DEFAULT CURRENT_TIMESTAMP,
	name TEXT NOT NULL,
	extension TEXT NOT NULL DEFAULT '',
	mime TEXT NOT NULL,
	thumbnail BLOB,
	content BLOB,
	storage_key TEXT,
	index_num INTEGER NOT NULL DEFAULT 0,
	board_id TEXT NOT NULL,
	post_id INTEGER NOT NULL,
	FOREIGN KEY (board_id) REFERENCES boards(id),
	FOREIGN KEY (post_id) REFERENCES posts(id)
);
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME
);

-- Keep update_time current on any row mutation.
CREATE TRIGGER IF NOT EXISTS update_post_timestamp
AFTER UPDATE ON posts
BEGIN
	UPDATE posts SET update_time = CURRENT_TIMESTAMP
	WHERE id = NEW.id;
END;

-- --- INDEXES ---
CREATE INDEX IF NOT EXISTS idx_posts_board_parent ON posts(board_id, parent_id);
CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(parent_id);
CREATE INDEX IF NOT EXISTS idx_posts_board_time ON posts(board_id, creation_time);
CREATE INDEX IF NOT EXISTS idx_files_post ON files(post_id, index_num);
`
