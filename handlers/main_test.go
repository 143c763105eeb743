// gib/handlers/main_test.go
package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gib/database"
	"gib/models"
	"gib/utils"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db                *database.DatabaseService
	rateLimiter       *models.RateLimiter
	logger            *slog.Logger
	adminPasswordHash string
}

func (a *MockApplication) DB() *database.DatabaseService    { return a.db }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Logger() *slog.Logger             { return a.logger }
func (a *MockApplication) AdminPasswordHash() string        { return a.adminPasswordHash }

// setupTestApp creates a full application stack with a test database for integration testing.
func setupTestApp(t *testing.T) *MockApplication {
	if err := os.Chdir(".."); err != nil {
		t.Fatalf("Failed to change directory to project root: %v", err)
	}
	if err := LoadTemplates(); err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	if err := os.Chdir("handlers"); err != nil {
		t.Fatalf("Failed to change back to handlers directory: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dbDir, err := os.MkdirTemp("", "gib_test_db_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dbDir, "test.db?_journal_mode=WAL&_foreign_keys=on")
	dbService, err := database.InitDB(dbPath, logger, nil)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	app := &MockApplication{
		db:          dbService,
		rateLimiter: models.NewRateLimiter(30*time.Second, 3, 1*time.Hour, 24*time.Hour),
		logger:      logger,
	}

	utils.IDSalt = "test-salt"

	t.Cleanup(func() {
		app.db.DB.Close()
		os.RemoveAll(dbDir)
		utils.IDSalt = ""
		ClearBoardListCache()
	})

	return app
}

func newTestRequest(_ *testing.T, method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	ctx := context.WithValue(req.Context(), UserCookieKey, "test-cookie-id")
	return req.WithContext(ctx)
}

// testPNG encodes a tiny valid PNG for upload tests.
func testPNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a multipart form, optionally attaching a PNG file.
func multipartBody(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	if withFile {
		return multipartBodyWithRaw(t, fields, "test.png", testPNG(t))
	}
	return multipartBodyWithRaw(t, fields, "", nil)
}

// multipartBodyWithRaw builds a multipart form carrying arbitrary bytes
// under the file field when filename is non-empty.
func multipartBodyWithRaw(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field %s: %v", k, err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Failed to write file data: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

// seedUpload returns a prepared attachment for seeding threads directly
// through the store.
func seedUpload(t *testing.T) *database.FileUpload {
	return &database.FileUpload{
		Name:      "seed.png",
		Extension: ".png",
		Mime:      "image/png",
		Content:   testPNG(t),
		Thumbnail: testPNG(t),
	}
}
