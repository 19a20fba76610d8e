//go:build !darwin && !linux

package interpreter

// NewLocator returns an error on unsupported platforms.
func NewLocator() (Locator, error) {
	return nil, ErrUnsupportedPlatform
}
