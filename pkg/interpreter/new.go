package interpreter

import "runtime"

// SupportedPlatform returns true if the current platform has a locator.
func SupportedPlatform() bool {
	switch runtime.GOOS {
	case "darwin", "linux":
		return true
	default:
		return false
	}
}

// NewLocator creates an interpreter locator for the current platform.
// This function is implemented in platform-specific files using build tags.
// See locator_linux.go and locator_darwin.go.
