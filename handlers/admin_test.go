// gib/handlers/admin_test.go
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminHandlers(t *testing.T) {
	app := setupTestApp(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	app.adminPasswordHash = string(hash)
	router := SetupRouter(app)

	t.Run("Dashboard Requires Session", func(t *testing.T) {
		req := newTestRequest(t, "GET", "/admin/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Fatalf("Expected redirect to login, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("Expected redirect to /admin/login, got %s", loc)
		}
	})

	t.Run("Wrong Password Rejected", func(t *testing.T) {
		form := strings.NewReader("password=wrong")
		req := newTestRequest(t, "POST", "/admin/login", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Fatalf("Expected status 303, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/admin/login?failed=1" {
			t.Errorf("Expected failed login redirect, got %s", loc)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == "gib_admin" {
				t.Error("Expected no session cookie on failed login")
			}
		}
	})

	t.Run("Login And Delete File", func(t *testing.T) {
		form := strings.NewReader("password=hunter2")
		req := newTestRequest(t, "POST", "/admin/login", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Fatalf("Expected status 303, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		var session *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == "gib_admin" {
				session = c
			}
		}
		if session == nil {
			t.Fatal("Expected a session cookie on successful login")
		}

		// Dashboard is reachable with the session cookie.
		req = newTestRequest(t, "GET", "/admin/", nil)
		req.AddCookie(session)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200 on dashboard, got %d", rr.Code)
		}

		// Delete a seeded file through the admin form.
		threadID, err := app.db.CreateThread("b", "victim thread", "op-hash", seedUpload(t))
		if err != nil {
			t.Fatalf("Failed to seed thread: %v", err)
		}
		files, _ := app.db.GetFilesForPost(threadID)
		if len(files) != 1 {
			t.Fatalf("Expected one seeded file, got %d", len(files))
		}

		form = strings.NewReader(fmt.Sprintf("file_id=%d", files[0].ID))
		req = newTestRequest(t, "POST", "/admin/delete-file", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(session)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Fatalf("Expected status 303 after deletion, got %d", rr.Code)
		}
		remaining, _ := app.db.GetFilesForPost(threadID)
		if len(remaining) != 0 {
			t.Error("Expected file to be deleted")
		}
	})

	t.Run("Disabled When No Hash Configured", func(t *testing.T) {
		bare := setupTestApp(t)
		bareRouter := SetupRouter(bare)

		req := newTestRequest(t, "GET", "/admin/", nil)
		rr := httptest.NewRecorder()
		bareRouter.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("Expected status 403 when admin is unconfigured, got %d", rr.Code)
		}
	})
}
