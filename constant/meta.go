// Package constant holds identifiers shared across the application.
package constant

import _ "embed"

const (
	// Nezuko names the binary, the config file and the data directories.
	Nezuko  = "nezuko"
	Version = "0.2.0"

	// UserAgent is sent to providers that reject unknown clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, set with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// runtime.GOOS values.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

//go:embed ascii.txt
var AsciiArtLogo string
