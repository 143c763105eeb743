// gib/handlers/admin.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"gib/utils"

	"golang.org/x/crypto/bcrypt"
)

// HandleAdminLoginPage shows the admin login form.
func HandleAdminLoginPage(w http.ResponseWriter, r *http.Request, app App) {
	data := map[string]interface{}{
		"Title":  "Admin Login",
		"Failed": r.URL.Query().Get("failed") == "1",
	}
	render(w, r, app, "layout.html", "admin_login.html", data)
}

// HandleAdminLogin validates the submitted password against the configured
// bcrypt hash and sets the admin session cookie.
func HandleAdminLogin(w http.ResponseWriter, r *http.Request, app App) {
	if app.AdminPasswordHash() == "" {
		http.Error(w, "Admin access is not configured.", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data.", http.StatusBadRequest)
		return
	}
	password := r.FormValue("password")
	if err := bcrypt.CompareHashAndPassword([]byte(app.AdminPasswordHash()), []byte(password)); err != nil {
		app.Logger().Warn("Failed admin login attempt", "ip", utils.GetIPAddress(r))
		http.Redirect(w, r, "/admin/login?failed=1", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "gib_admin",
		Value:    utils.GenerateAdminSessionHash(app.AdminPasswordHash()),
		Path:     "/",
		Expires:  time.Now().Add(12 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	app.Logger().Info("Admin logged in", "ip", utils.GetIPAddress(r))
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// HandleAdminPage renders the admin dashboard.
func HandleAdminPage(w http.ResponseWriter, r *http.Request, app App) {
	boards, err := app.DB().GetBoards()
	if err != nil {
		app.Logger().Error("Failed to get boards for admin page", "error", err)
		http.Error(w, "Database error.", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Title":  "Admin",
		"Boards": boards,
	}
	render(w, r, app, "layout.html", "admin.html", data)
}

// HandleAdminDeleteFile removes a file attachment by ID.
func HandleAdminDeleteFile(w http.ResponseWriter, r *http.Request, app App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data.", http.StatusBadRequest)
		return
	}
	fileID, err := strconv.ParseInt(r.FormValue("file_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid file ID.", http.StatusBadRequest)
		return
	}
	if err := app.DB().DeleteFile(fileID); err != nil {
		app.Logger().Error("Failed to delete file", "file_id", fileID, "error", err)
		http.Error(w, "Database error deleting file.", http.StatusInternalServerError)
		return
	}
	app.Logger().Info("Admin deleted file", "file_id", fileID, "ip", utils.GetIPAddress(r))
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
