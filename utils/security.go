// gib/utils/security.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

var (
	IDSalt string
)

// GetIPAddress extracts the real IP address from a request, trusting
// forwarding headers set by a reverse proxy.
func GetIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// HashID creates a salted SHA256 hash of an identifier (the per-browser
// cookie id) and returns a truncated hex string.
func HashID(id string) string {
	hash := sha256.Sum256([]byte(id + IDSalt))
	return hex.EncodeToString(hash[:16])
}

// GenerateAdminSessionHash derives the admin session cookie value from
// the configured password hash, so sessions invalidate when the password
// changes or the process restarts with a new salt.
func GenerateAdminSessionHash(adminPasswordHash string) string {
	hash := sha256.Sum256([]byte(adminPasswordHash + IDSalt))
	return hex.EncodeToString(hash[:])
}
