package repository

import "context"

// ArtifactWriter stores binary capture artifacts and returns their location.
type ArtifactWriter interface {
	Write(ctx context.Context, path string, data []byte) (string, error)
}
