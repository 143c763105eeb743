// gib/handlers/pages_test.go
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlers(t *testing.T) {
	app := setupTestApp(t)
	router := SetupRouter(app)

	threadID, err := app.db.CreateThread("b", "the op message", "op-hash", seedUpload(t))
	if err != nil {
		t.Fatalf("Failed to seed thread: %v", err)
	}
	replyID, err := app.db.CreateReply("b", threadID, "the reply message", "reply-hash", nil)
	if err != nil {
		t.Fatalf("Failed to seed reply: %v", err)
	}

	t.Run("Home", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "/b/") {
			t.Error("Expected homepage to list board /b/")
		}
	})

	t.Run("Board Page", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/b", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "the op message") {
			t.Error("Expected board page to show the thread message")
		}
		if !strings.Contains(body, "the reply message") {
			t.Error("Expected board page to preview the recent reply")
		}
	})

	t.Run("Empty Board Past First Page Does Not Redirect", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/a?p=2", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200 for empty board page 2, got %d", rr.Code)
		}
	})

	t.Run("Out Of Range Page Redirects To Last", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/b?p=99", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Fatalf("Expected status 303, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/b?p=1" {
			t.Errorf("Expected redirect to /b?p=1, got %s", loc)
		}
	})

	t.Run("Catalog Page", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/b/catalog", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "the op message") {
			t.Error("Expected catalog to show the thread teaser")
		}
	})

	t.Run("Thread Page", func(t *testing.T) {
		req := newTestRequest(t, "GET", fmt.Sprintf("/b/thread/%d", threadID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "the op message") || !strings.Contains(body, "the reply message") {
			t.Error("Expected thread page to show op and reply")
		}
	})

	t.Run("Reply Subtree Page Shows Breadcrumb", func(t *testing.T) {
		req := newTestRequest(t, "GET", fmt.Sprintf("/b/thread/%d", replyID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), fmt.Sprintf("/b/thread/%d", threadID)) {
			t.Error("Expected breadcrumb link back to the thread root")
		}
	})

	t.Run("Thread On Wrong Board 404s", func(t *testing.T) {
		req := newTestRequest(t, "GET", fmt.Sprintf("/a/thread/%d", threadID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", rr.Code)
		}
	})

	t.Run("Missing Thread 404s", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/b/thread/99999", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", rr.Code)
		}
	})

	t.Run("Missing Board 404s", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/zzz", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", rr.Code)
		}
	})
}

func TestFileHandlers(t *testing.T) {
	app := setupTestApp(t)
	router := SetupRouter(app)

	threadID, err := app.db.CreateThread("b", "file host", "op-hash", seedUpload(t))
	if err != nil {
		t.Fatalf("Failed to seed thread: %v", err)
	}
	files, err := app.db.GetFilesForPost(threadID)
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected one seeded file, got %d (%v)", len(files), err)
	}
	fileID := files[0].ID

	t.Run("Serves Original", func(t *testing.T) {
		req := newTestRequest(t, "GET", fmt.Sprintf("/files/%d", fileID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected Content-Type image/png, got %s", ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
			t.Errorf("Expected inline Content-Disposition, got %s", cd)
		}
		if rr.Body.Len() == 0 {
			t.Error("Expected file bytes in the response body")
		}
	})

	t.Run("Serves Thumbnail", func(t *testing.T) {
		req := newTestRequest(t, "GET", fmt.Sprintf("/files/%d/thumb", fileID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if rr.Body.Len() == 0 {
			t.Error("Expected thumbnail bytes in the response body")
		}
	})

	t.Run("Missing File 404s", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/files/99999", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", rr.Code)
		}
	})
}
