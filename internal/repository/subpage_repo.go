package repository

//go:generate mockgen -source=subpage_repo.go -destination=mocks/subpage_mocks.go -package=mocks SubpageRepository

import (
	"context"

	"github.com/user/trackscope/internal/entity"
)

// SubpageRepository stores pre-collected subpage lists.
type SubpageRepository interface {
	// Load returns ErrMissingPrerequisite when no list exists for the domain.
	Load(ctx context.Context, domain string) (*entity.SubpageList, error)
	Save(ctx context.Context, list *entity.SubpageList) error
}
