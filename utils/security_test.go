// gib/utils/security_test.go
package utils

import (
	"net/http/httptest"
	"testing"
)

// TestGetIPAddress validates proxy header handling.
func TestGetIPAddress(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		expected   string
	}{
		{
			name:       "Direct connection",
			remoteAddr: "192.168.1.10:54321",
			expected:   "192.168.1.10",
		},
		{
			name:       "X-Forwarded-For single",
			remoteAddr: "10.0.0.1:80",
			xff:        "203.0.113.5",
			expected:   "203.0.113.5",
		},
		{
			name:       "X-Forwarded-For chain uses first hop",
			remoteAddr: "10.0.0.1:80",
			xff:        "203.0.113.5, 10.0.0.2, 10.0.0.3",
			expected:   "203.0.113.5",
		},
		{
			name:       "X-Real-IP fallback",
			remoteAddr: "10.0.0.1:80",
			realIP:     "198.51.100.7",
			expected:   "198.51.100.7",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.10",
			expected:   "192.168.1.10",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := GetIPAddress(req); got != tc.expected {
				t.Errorf("Expected IP '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

// TestHashID validates that identity hashing is salted and stable.
func TestHashID(t *testing.T) {
	IDSalt = "test-salt"

	first := HashID("cookie-abc")
	second := HashID("cookie-abc")
	if first != second {
		t.Error("Expected HashID to be deterministic for the same input and salt")
	}
	if len(first) != 32 {
		t.Errorf("Expected a 32-character truncated hex hash, got %d characters", len(first))
	}
	if HashID("cookie-xyz") == first {
		t.Error("Expected different inputs to produce different hashes")
	}

	IDSalt = "other-salt"
	if HashID("cookie-abc") == first {
		t.Error("Expected a different salt to produce a different hash")
	}
}

// TestGenerateAdminSessionHash ties the session value to both the
// password hash and the process salt.
func TestGenerateAdminSessionHash(t *testing.T) {
	IDSalt = "test-salt"

	a := GenerateAdminSessionHash("bcrypt-hash-1")
	if a != GenerateAdminSessionHash("bcrypt-hash-1") {
		t.Error("Expected session hash to be deterministic")
	}
	if a == GenerateAdminSessionHash("bcrypt-hash-2") {
		t.Error("Expected session hash to depend on the password hash")
	}

	IDSalt = "other-salt"
	if a == GenerateAdminSessionHash("bcrypt-hash-1") {
		t.Error("Expected session hash to depend on the process salt")
	}
}
