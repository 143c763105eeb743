// gib/config/config.go
package config

const (
	AppVersion   = "0.4.1"
	DefaultTheme = "paper"

	// Listing page sizes
	ThreadsPerPage = 3
	CatalogPerPage = 12

	// Shown under each thread on the board view. The assembler always
	// returns the full reply set; this caps what the page displays.
	RepliesPreviewed = 3

	// Form & Post Limits
	MaxMessageLen = 8000

	// File Upload Limits
	MaxFileSize     = 8 * 1024 * 1024 // 8MB
	MaxWidth        = 8000
	MaxHeight       = 8000
	ThumbnailWidth  = 250
	ThumbnailHeight = 250

	// Rate Limiting Defaults
	DefaultRateLimitEvery  = "30s"
	DefaultRateLimitBurst  = 3
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"
)
