// gib/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"sync"

	"gib/config"
	"gib/database"
	"gib/models"

	"github.com/go-chi/chi/v5"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	RateLimiter() *models.RateLimiter
	Logger() *slog.Logger
	AdminPasswordHash() string
}

var boardIDPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// --- Board List Cache ---
var (
	boardListCache []models.Board
	cacheLock      sync.RWMutex
)

// getBoardList is a cached function to retrieve all boards for the nav bar.
func getBoardList(app App) []models.Board {
	cacheLock.RLock()
	if boardListCache != nil {
		cacheLock.RUnlock()
		return boardListCache
	}
	cacheLock.RUnlock()

	cacheLock.Lock()
	defer cacheLock.Unlock()

	if boardListCache != nil {
		return boardListCache
	}

	boards, err := app.DB().GetBoards()
	if err != nil {
		app.Logger().Error("Failed to query board list for nav bar", "error", err)
		return nil
	}

	boardListCache = boards
	return boards
}

// ClearBoardListCache invalidates the global board list cache.
func ClearBoardListCache() {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	boardListCache = nil
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// MakeHandler adapts an App-aware handler function to http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// resolveBoard validates the boardID route parameter and loads the
// board, writing the error response itself when it fails.
func resolveBoard(w http.ResponseWriter, r *http.Request, app App) *models.Board {
	boardID := chi.URLParam(r, "boardID")
	if !boardIDPattern.MatchString(boardID) {
		http.NotFound(w, r)
		return nil
	}

	board, err := app.DB().GetBoard(boardID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.Logger().Info("User attempted to access non-existent board", "board_id", boardID)
			http.NotFound(w, r)
			return nil
		}
		app.Logger().Error("DB error resolving board", "board_id", boardID, "error", err)
		http.Error(w, "Database error.", http.StatusInternalServerError)
		return nil
	}
	return board
}

// HandleBoardPage resolves the board and serves its thread view.
func HandleBoardPage(w http.ResponseWriter, r *http.Request, app App) {
	if board := resolveBoard(w, r, app); board != nil {
		HandleBoard(w, r, app, board)
	}
}

// HandleCatalogPage resolves the board and serves its catalog view.
func HandleCatalogPage(w http.ResponseWriter, r *http.Request, app App) {
	if board := resolveBoard(w, r, app); board != nil {
		HandleCatalog(w, r, app, board)
	}
}

// HandleHome serves the main homepage listing all boards.
func HandleHome(w http.ResponseWriter, r *http.Request, app App) {
	boards, err := app.DB().GetBoards()
	if err != nil {
		app.Logger().Error("Failed to query boards for homepage", "error", err)
		http.Error(w, "Database error loading homepage.", http.StatusInternalServerError)
		return
	}

	render(w, r, app, "layout.html", "home.html", map[string]interface{}{
		"Title":  "Home",
		"Boards": boards,
	})
}

// HandleBoard serves a board's thread view: paginated roots, each with a
// preview of its most recent replies.
func HandleBoard(w http.ResponseWriter, r *http.Request, app App, board *models.Board) {
	logger := app.Logger().With("handler", "HandleBoard", "board_id", board.ID)

	totalThreads, err := app.DB().CountThreads(board.ID)
	if err != nil {
		logger.Error("DB error getting thread count", "error", err)
		http.Error(w, "Database error loading board.", http.StatusInternalServerError)
		return
	}

	requested, _ := strconv.Atoi(r.URL.Query().Get("p"))
	pg := paginate(requested, totalThreads, config.ThreadsPerPage)
	if pg.OutOfRange {
		http.Redirect(w, r, fmt.Sprintf("/%s?p=%d", board.ID, pg.TotalPages), http.StatusSeeOther)
		return
	}

	threads, err := app.DB().GetThreadSummaries(board.ID, pg.PageSize, pg.Offset, config.RepliesPreviewed)
	if err != nil {
		logger.Error("DB error getting threads", "error", err)
		http.Error(w, "Database error loading board.", http.StatusInternalServerError)
		return
	}

	stats, err := app.DB().GetBoardStats(board.ID)
	if err != nil {
		logger.Error("DB error getting board stats", "error", err)
		stats = &models.BoardStats{ThreadCount: totalThreads}
	}

	render(w, r, app, "layout.html", "board.html", map[string]interface{}{
		"Title":      "/" + board.ID + "/ - " + board.Name,
		"Board":      board,
		"Threads":    threads,
		"Stats":      stats,
		"Pagination": pg,
		"PageLinks":  generatePageLinks(pg.Page, pg.TotalPages),
		"BaseURL":    "/" + board.ID,
	})
}

// HandleCatalog serves a board's catalog page: a thumbnail-first grid.
func HandleCatalog(w http.ResponseWriter, r *http.Request, app App, board *models.Board) {
	logger := app.Logger().With("handler", "HandleCatalog", "board_id", board.ID)

	totalThreads, err := app.DB().CountThreads(board.ID)
	if err != nil {
		logger.Error("DB error getting thread count", "error", err)
		http.Error(w, "Database error loading catalog.", http.StatusInternalServerError)
		return
	}

	requested, _ := strconv.Atoi(r.URL.Query().Get("p"))
	pg := paginate(requested, totalThreads, config.CatalogPerPage)
	if pg.OutOfRange {
		http.Redirect(w, r, fmt.Sprintf("/%s/catalog?p=%d", board.ID, pg.TotalPages), http.StatusSeeOther)
		return
	}

	threads, err := app.DB().GetThreadSummaries(board.ID, pg.PageSize, pg.Offset, 0)
	if err != nil {
		logger.Error("DB error getting catalog threads", "error", err)
		http.Error(w, "Database error loading catalog.", http.StatusInternalServerError)
		return
	}

	render(w, r, app, "layout.html", "catalog.html", map[string]interface{}{
		"Title":      "Catalog for /" + board.ID + "/",
		"Board":      board,
		"Threads":    threads,
		"Pagination": pg,
		"PageLinks":  generatePageLinks(pg.Page, pg.TotalPages),
		"BaseURL":    "/" + board.ID + "/catalog",
	})
}

// HandleThread serves a single thread page: the full recursive reply
// tree plus the breadcrumb trail of ancestors. The id may belong to a
// reply, in which case its subtree is shown with the chain back to the
// thread root.
func HandleThread(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleThread")

	board := resolveBoard(w, r, app)
	if board == nil {
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	tree, err := app.DB().AssembleThread(postID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("DB error assembling thread", "post_id", postID, "error", err)
		http.Error(w, "Database error loading thread.", http.StatusInternalServerError)
		return
	}
	if tree.BoardID != board.ID {
		http.NotFound(w, r)
		return
	}

	ancestors, err := app.DB().AncestorChain(postID)
	if err != nil {
		logger.Error("DB error building ancestor chain", "post_id", postID, "error", err)
		http.Error(w, "Database error loading thread.", http.StatusInternalServerError)
		return
	}

	uniquePosters, err := app.DB().CountUniquePosters(postID)
	if err != nil {
		logger.Error("DB error counting unique posters", "post_id", postID, "error", err)
	}

	render(w, r, app, "layout.html", "thread.html", map[string]interface{}{
		"Title":         fmt.Sprintf("/%s/ - Thread #%d", board.ID, tree.ID),
		"Board":         board,
		"Thread":        tree,
		"Ancestors":     ancestors,
		"TotalReplies":  tree.TotalReplies(),
		"TotalFiles":    tree.TotalFiles(),
		"UniquePosters": uniquePosters,
		"ParentID":      tree.ID,
	})
}

// HandleFile serves a file's original content with its stored mime type.
func HandleFile(w http.ResponseWriter, r *http.Request, app App) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid file ID.", http.StatusBadRequest)
		return
	}

	file, err := app.DB().GetFile(fileID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.Logger().Error("Failed to load file", "file_id", fileID, "error", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.Mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	if _, err := w.Write(file.Content); err != nil {
		app.Logger().Error("Failed to write file response", "file_id", fileID, "error", err)
	}
}

// HandleThumbnail serves a file's thumbnail. Thumbnails are always JPEG.
func HandleThumbnail(w http.ResponseWriter, r *http.Request, app App) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid file ID.", http.StatusBadRequest)
		return
	}

	thumb, err := app.DB().GetFileThumbnail(fileID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.Logger().Error("Failed to load thumbnail", "file_id", fileID, "error", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := w.Write(thumb); err != nil {
		app.Logger().Error("Failed to write thumbnail response", "file_id", fileID, "error", err)
	}
}
