package version

// Version is overridden at build time with
// -ldflags "-X github.com/bnema/donation-portal/internal/version.Version=v1.2.3".
var Version = "dev"
