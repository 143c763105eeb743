// gib/handlers/actions.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"gib/config"
	"gib/database"
	"gib/utils"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// HandlePost is the main handler for creating new threads and replies.
func HandlePost(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandlePost")

	if err := r.ParseMultipartForm(config.MaxFileSize + 1024); err != nil {
		logger.Warn("Form parsing error", "error", err)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Form parsing error: " + err.Error()}, app)
		return
	}
	boardID := r.FormValue("board_id")
	parentIDStr := r.FormValue("parent_id")
	message := r.FormValue("message")

	ip := utils.GetIPAddress(r)
	if !app.RateLimiter().GetLimiter(ip).Allow() {
		logger.Warn("Rate limit exceeded", "ip", ip)
		respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded. Please wait a moment."}, app)
		return
	}

	if len(message) > config.MaxMessageLen {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Message exceeds the maximum length."}, app)
		return
	}

	cookieID, _ := r.Context().Value(UserCookieKey).(string)
	authorHash := utils.HashID(cookieID)

	upload, err := processUpload(r, logger)
	if err != nil {
		logger.Warn("Upload processing failed", "error", err)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "File processing failed: " + err.Error()}, app)
		return
	}

	var newPostID int64
	var redirectURL string
	if parentIDStr == "" || parentIDStr == "0" { // New thread
		newPostID, err = app.DB().CreateThread(boardID, message, authorHash, upload)
		if err != nil {
			writePostError(w, app, logger, err, "thread")
			return
		}
		redirectURL = fmt.Sprintf("/%s/thread/%d", boardID, newPostID)
	} else { // New reply
		parentID, perr := strconv.ParseInt(parentIDStr, 10, 64)
		if perr != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid parent post ID."}, app)
			return
		}
		newPostID, err = app.DB().CreateReply(boardID, parentID, message, authorHash, upload)
		if err != nil {
			writePostError(w, app, logger, err, "reply")
			return
		}
		redirectURL = fmt.Sprintf("/%s/thread/%d#p%d", boardID, parentID, newPostID)
	}

	logger.Info("New post created", "post_id", newPostID, "board_id", boardID)
	respondJSON(w, http.StatusOK, map[string]string{"redirect": redirectURL}, app)
}

// writePostError maps store-layer failures onto the response taxonomy:
// validation and not-found reject the request, anything else is a 500.
func writePostError(w http.ResponseWriter, app App, logger *slog.Logger, err error, kind string) {
	switch {
	case database.IsValidation(err):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()}, app)
	case errors.Is(err, database.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()}, app)
	default:
		logger.Error("Failed to create "+kind, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database error creating " + kind + "."}, app)
	}
}

// processUpload validates and prepares an attached file. Returns nil with
// no error when the form carries no file.
func processUpload(r *http.Request, logger *slog.Logger) (*database.FileUpload, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, fmt.Errorf("could not get form file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Error("Failed to close upload file", "error", err)
		}
	}()

	limitedReader := &io.LimitedReader{R: file, N: config.MaxFileSize + 1}
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("could not read file data: %w", err)
	}
	if limitedReader.N == 0 {
		return nil, fmt.Errorf("file is larger than the %dMB limit", config.MaxFileSize/1024/1024)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	// Magic byte validation
	contentType := http.DetectContentType(data)
	allowedTypes := map[string]bool{
		"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
	}
	if !allowedTypes[contentType] {
		logger.Warn("User uploaded file with invalid MIME type", "detected_type", contentType, "filename", header.Filename)
		return nil, fmt.Errorf("unsupported file type: %s. Only JPG, PNG, GIF, and WebP are allowed", contentType)
	}

	reader := bytes.NewReader(data)
	cfg, _, err := image.DecodeConfig(reader)
	if err != nil {
		return nil, fmt.Errorf("invalid image format, could not decode config: %w", err)
	}
	if cfg.Width > config.MaxWidth || cfg.Height > config.MaxHeight {
		return nil, fmt.Errorf("image dimensions (%dx%d) exceed maximum (%dx%d)", cfg.Width, cfg.Height, config.MaxWidth, config.MaxHeight)
	}

	ext := filepath.Ext(header.Filename)
	if byType, _ := mime.ExtensionsByType(contentType); ext == "" && len(byType) > 0 {
		ext = byType[0]
	}

	upload := &database.FileUpload{
		Name:      filepath.Base(header.Filename),
		Extension: ext,
		Mime:      contentType,
		Content:   data,
	}

	// Thumbnail the image, preserving aspect ratio. A failed thumbnail
	// does not fail the post.
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("could not reset reader position: %w", err)
	}
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		logger.Warn("Could not decode image for thumbnailing", "filename", header.Filename, "error", err)
		return upload, nil
	}
	thumb := imaging.Fit(img, config.ThumbnailWidth, config.ThumbnailHeight, imaging.Lanczos)
	var thumbBuf bytes.Buffer
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		logger.Warn("Failed to encode thumbnail", "filename", header.Filename, "error", err)
		return upload, nil
	}
	upload.Thumbnail = thumbBuf.Bytes()

	return upload, nil
}
