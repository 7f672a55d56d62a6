package version

// Set with -ldflags "-X github.com/stupside/storyfetch/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
