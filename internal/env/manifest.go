package env

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Manifest describes a project's requirements file.
type Manifest struct {
	Path string
}

// Exists reports whether the manifest file is present.
func (m Manifest) Exists() bool {
	info, err := os.Stat(m.Path)
	return err == nil && info.Mode().IsRegular()
}

// Fingerprint returns the digest of the manifest contents, or an empty
// string without error when the manifest is absent.
func (m Manifest) Fingerprint() (string, error) {
	sum, err := hashFile(m.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fingerprint manifest: %w", err)
	}
	return sum, nil
}

// Changed reports whether the manifest differs from the recorded
// fingerprint, returning the current fingerprint alongside. An absent
// manifest never reports changed.
func (m Manifest) Changed(recorded string) (bool, string, error) {
	if !m.Exists() {
		return false, "", nil
	}
	sum, err := m.Fingerprint()
	if err != nil {
		return false, "", err
	}
	return sum != recorded, sum, nil
}

// Packages returns the requirement lines with comments, blanks and
// pip options removed.
func (m Manifest) Packages() ([]string, error) {
	data, err := os.ReadFile(m.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var pkgs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		pkgs = append(pkgs, line)
	}
	return pkgs, nil
}

// hashFile computes the BLAKE2b-256 digest of a file as lowercase hex.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
