// gib/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"gib/models"
	"gib/utils"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB         *sql.DB
	logger     *slog.Logger
	storage    models.StorageService
	boardCache map[string]*models.Board
	cacheMu    sync.RWMutex
}

// seedBoards is the fixed board set created on first start.
var seedBoards = []models.Board{
	{ID: "b", Name: "Random"},
	{ID: "a", Name: "Anime & Manga"},
}

// InitDB connects to the database, runs migrations, and seeds default data.
// storage may be nil, in which case file content is kept in the files table.
func InitDB(dataSourceName string, logger *slog.Logger, storage models.StorageService) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	// Run versioned migrations
	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	// Seed database if empty
	var boardCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM boards").Scan(&boardCount); err == nil && boardCount == 0 {
		for _, b := range seedBoards {
			if _, err := db.Exec("INSERT INTO boards (id, name) VALUES (?, ?)", b.ID, b.Name); err != nil {
				return nil, fmt.Errorf("failed to seed board '%s': %w", b.ID, err)
			}
		}
	}

	logger.Info("Database initialized and cache ready.")

	return &DatabaseService{
		DB:         db,
		logger:     logger,
		storage:    storage,
		boardCache: make(map[string]*models.Board),
	}, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version > latestVersion {
			logger.Info("Applying migration", "version", m.Version)
			tx, err := db.Begin()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(m.Query); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
			}
			logger.Info("Successfully applied migration", "version", m.Version)
		}
	}
	return nil
}

// GetBoard fetches a board by id, using the instance's cache.
func (ds *DatabaseService) GetBoard(boardID string) (*models.Board, error) {
	ds.cacheMu.RLock()
	board, ok := ds.boardCache[boardID]
	ds.cacheMu.RUnlock()
	if ok {
		return board, nil
	}

	var b models.Board
	err := ds.DB.QueryRow("SELECT id, name FROM boards WHERE id = ?", boardID).Scan(&b.ID, &b.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("board '%s': %w", boardID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting board '%s': %w", boardID, err)
	}

	ds.cacheMu.Lock()
	ds.boardCache[boardID] = &b
	ds.cacheMu.Unlock()
	return &b, nil
}

// GetBoards returns every board, ordered by id.
func (ds *DatabaseService) GetBoards() ([]models.Board, error) {
	rows, err := ds.DB.Query("SELECT id, name FROM boards ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetBoards", "error", err)
		}
	}()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			ds.logger.Error("Failed to scan board row", "error", err)
			continue
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// --- Cache Management ---
func (ds *DatabaseService) ClearBoardCache(boardID string) {
	ds.cacheMu.Lock()
	delete(ds.boardCache, boardID)
	ds.cacheMu.Unlock()
}
