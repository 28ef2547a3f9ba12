package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sanitize replaces characters the host filesystem is known to reject
// in a path component (control characters, and the separators a
// corrupted or adversarial name could smuggle in) with "_". Applied
// only as a retry after the OS has already rejected the path as-is
// (spec.md §4.8, §7 OutputCollision/PathSanitisation).
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == 0 || r < 0x20:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		out = "_"
	}
	return out
}

// mkdirAll creates dir, retrying once with a sanitised path if the OS
// rejects the path as given.
func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		sanitized := sanitizePath(dir)
		if sanitized == dir {
			return err
		}
		return os.MkdirAll(sanitized, 0o755)
	}
	return nil
}

// sanitizePath sanitises every path component independently, leaving
// separators in place.
func sanitizePath(p string) string {
	parts := strings.Split(p, string(filepath.Separator))
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = sanitize(part)
	}
	return strings.Join(parts, string(filepath.Separator))
}

// uniquePath returns a path guaranteed not to already exist on disk: if
// dir/name collides, it appends " (N)" for the smallest N that
// doesn't (spec.md §5 "Ordering guarantees", §7 OutputCollision).
func uniquePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// createFile creates path for writing, retrying once with a sanitised
// path if the OS rejects it, then de-duplicating against any existing
// file at the final location.
func createFile(dir, name string) (*os.File, string, error) {
	if err := mkdirAll(dir); err != nil {
		return nil, "", err
	}
	path := uniquePath(dir, name)
	f, err := os.Create(path)
	if err != nil {
		sanitizedDir := sanitizePath(dir)
		sanitizedName := sanitize(name)
		if sanitizedDir == dir && sanitizedName == name {
			return nil, "", err
		}
		if mkErr := mkdirAll(sanitizedDir); mkErr != nil {
			return nil, "", err
		}
		path = uniquePath(sanitizedDir, sanitizedName)
		f, err = os.Create(path)
		if err != nil {
			return nil, "", err
		}
	}
	return f, path, nil
}
