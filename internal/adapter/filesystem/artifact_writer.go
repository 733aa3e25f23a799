package filesystem

import (
	"context"
	"path/filepath"
)

// ArtifactWriter writes capture files below a base directory.
type ArtifactWriter struct {
	dir string
}

func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir}
}

// Write stores data at the relative path and returns the full path.
func (w *ArtifactWriter) Write(ctx context.Context, rel string, data []byte) (string, error) {
	full := filepath.Join(w.dir, filepath.Clean("/"+rel))
	if err := writeFileAtomic(full, data); err != nil {
		return "", err
	}
	return full, nil
}
