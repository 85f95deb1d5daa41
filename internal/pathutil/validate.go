// Package pathutil confines user-supplied file paths to known directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots is returned when a path resolves outside every allowed root.
var ErrOutsideRoots = errors.New("path is outside allowed directories")

// Confine resolves path to an absolute, symlink-free form and checks that it
// lies within one of roots. The file itself need not exist. The resolved path
// is returned on success.
func Confine(path string, roots ...string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("invalid path: empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	if len(roots) == 0 {
		return "", fmt.Errorf("invalid path: no allowed directories configured")
	}

	resolved, err := resolve(path)
	if err != nil {
		return "", err
	}

	for _, root := range roots {
		if root == "" {
			continue
		}
		resolvedRoot, err := resolve(root)
		if err != nil {
			continue
		}
		if within(resolved, resolvedRoot) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideRoots, Redact(resolved))
}

// Redact shortens a path to .../<parent>/<base> for error messages.
func Redact(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// resolve makes p absolute and evaluates symlinks on its deepest existing
// ancestor, re-appending the parts that do not exist yet.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	var missing []string
	cur := abs
	for {
		target, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				target = filepath.Join(target, missing[i])
			}
			return target, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("invalid path: cannot resolve %s", Redact(abs))
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}

// within reports whether p equals base or sits below it.
func within(p, base string) bool {
	if p == base {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(base, string(os.PathSeparator))+string(os.PathSeparator))
}
