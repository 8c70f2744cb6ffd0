package api

// API limits and constants.
const (
	// DefaultMaxImportBytes is the upload limit for import payloads (64 MB).
	DefaultMaxImportBytes = 64 << 20

	// DefaultAuthRequestsPerMinute bounds sign-in attempts per client address.
	DefaultAuthRequestsPerMinute = 20
	authRateLimitBurst           = 10
)

// Operation tags.
const (
	tagAuth    = "Authentication"
	tagVideos  = "Videos"
	tagImports = "Imports"
	tagHealth  = "Health"
)

// bearerSecurity marks an operation as requiring an access token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
