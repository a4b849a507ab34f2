// Package security checks operator-supplied file paths before they are read.
package security

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxInputFileBytes bounds task and scoring files read from disk.
const MaxInputFileBytes int64 = 8 << 20

// forbiddenChars are shell metacharacters that never appear in a legitimate input path.
var forbiddenChars = []string{";", "&", "|", "$", "`", "<", ">", "!", "\n", "\r"}

// CleanPath rejects paths with shell metacharacters and returns the absolute,
// symlink-resolved form. A path that does not exist yet is returned cleaned.
func CleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	for _, char := range forbiddenChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}

	cleaned, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return cleaned, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolved, nil
}

// ReadFile reads a validated path, refusing files larger than MaxInputFileBytes.
// A missing file yields an error satisfying errors.Is(err, os.ErrNotExist).
func ReadFile(path string) ([]byte, error) {
	cleaned, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	f, err := os.Open(cleaned)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLimited(f, MaxInputFileBytes)
}

// ReadLimited reads r fully, failing once more than limit bytes arrive.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("input exceeds %d bytes", limit)
	}
	return data, nil
}
