package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator cleans user supplied paths for the database, index, log and
// sources file.
type PathValidator struct {
	// AllowedBaseDirs restricts paths to these trees. Empty allows all.
	AllowedBaseDirs []string
	MaxPathLength   int
}

// NewPathValidator restricts paths to kiosk's own directories and the temp dir.
func NewPathValidator() *PathValidator {
	homeDir, _ := os.UserHomeDir()
	return &PathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(homeDir, ".kiosk"),
			filepath.Join(homeDir, ".config", "kiosk"),
			os.TempDir(),
		},
		MaxPathLength: 4096,
	}
}

// NewPermissivePathValidator accepts any location.
func NewPermissivePathValidator() *PathValidator {
	return &PathValidator{MaxPathLength: 4096}
}

// Clean expands a leading ~/, makes the path absolute and rejects traversal
// or control characters.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	for _, r := range path {
		if r == 0 || (r < 32 && r != '\t') {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("only ~/ is expanded")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	if err := v.checkBaseDirs(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *PathValidator) checkBaseDirs(abs string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

// EnsureDir cleans path and creates it when missing.
func (v *PathValidator) EnsureDir(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(clean)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(clean, 0o755); err != nil {
			return "", fmt.Errorf("create directory: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", clean)
	}
	return clean, nil
}

// File cleans path, rejects directories and creates the parent directory so
// bbolt or the log can open it.
func (v *PathValidator) File(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	if _, err := v.EnsureDir(filepath.Dir(clean)); err != nil {
		return "", fmt.Errorf("parent directory: %w", err)
	}
	return clean, nil
}
