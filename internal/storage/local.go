package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes proofs under Dir; they are served by the HTTP server at /uploads/.
type Local struct {
	Dir     string
	BaseURL string
}

func (l Local) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	clean := filepath.Clean("/" + name)
	path := filepath.Join(l.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return strings.TrimRight(l.BaseURL, "/") + "/uploads" + filepath.ToSlash(clean), nil
}
