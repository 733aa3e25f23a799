package repository

//go:generate mockgen -source=result_repo.go -destination=mocks/result_mocks.go -package=mocks ResultStore

import (
	"context"

	"github.com/user/trackscope/internal/entity"
)

// ArtifactRef locates one stored result document.
type ArtifactRef struct {
	Profile  string
	Domain   string
	Location string
}

// ResultStore persists result documents keyed by (domain, profile).
type ResultStore interface {
	// Save stores the document, replacing any previous one for the same key.
	Save(ctx context.Context, doc *entity.ResultDocument) error
	// Load returns ErrNotFound for unknown keys and ErrCorruptArtifact for
	// documents that fail the validity rule.
	Load(ctx context.Context, profile, domain string) (*entity.ResultDocument, error)
	Exists(ctx context.Context, profile, domain string) (bool, error)
	Delete(ctx context.Context, profile, domain string) error
	// Raw returns the stored bytes without validation.
	Raw(ctx context.Context, profile, domain string) ([]byte, error)
	// List returns every stored artifact, optionally limited to one profile.
	List(ctx context.Context, profile string) ([]ArtifactRef, error)
}

// ArtifactMover is implemented by stores that can quarantine artifacts.
type ArtifactMover interface {
	Move(ctx context.Context, ref ArtifactRef, destDir string) error
}
