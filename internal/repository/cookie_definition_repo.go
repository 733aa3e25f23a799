package repository

//go:generate mockgen -source=cookie_definition_repo.go -destination=mocks/cookie_definition_mocks.go -package=mocks CookieDefinitionRepository

import (
	"context"

	"github.com/user/trackscope/internal/entity"
)

// CookieDefinitionRepository is the cookie definition database.
type CookieDefinitionRepository interface {
	// Get returns ErrNotFound for unknown cookie names.
	Get(ctx context.Context, name string) (*entity.CookieDefinition, error)
	Upsert(ctx context.Context, defs []entity.CookieDefinition) error
	Count(ctx context.Context) (int, error)
}
