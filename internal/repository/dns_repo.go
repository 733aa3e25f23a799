package repository

//go:generate mockgen -source=dns_repo.go -destination=mocks/dns_mocks.go -package=mocks CNAMEResolver

import (
	"context"
	"time"
)

// CNAMEResolver resolves the canonical-name chain of a hostname. The
// returned chain excludes host itself; an empty chain means host is canonical.
type CNAMEResolver interface {
	ResolveChain(ctx context.Context, host string) ([]string, error)
}

// CNAMECache stores resolved chains. A cached empty chain is a valid entry.
type CNAMECache interface {
	Get(ctx context.Context, host string) (chain []string, ok bool, err error)
	Set(ctx context.Context, host string, chain []string, ttl time.Duration) error
}
