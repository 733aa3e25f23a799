package dns

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/repository"
)

const maxChainHops = 10

// CNAMELookuper is satisfied by *net.Resolver.
type CNAMELookuper interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// Resolver follows canonical names until a name maps to itself, repeats, or
// maxChainHops is reached. The system resolver already collapses multi-hop
// chains, in which case the chain holds only the terminal name.
type Resolver struct {
	lookup  CNAMELookuper
	timeout time.Duration
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{lookup: net.DefaultResolver, timeout: timeout}
}

// NewResolverWith uses a custom lookup implementation.
func NewResolverWith(lookup CNAMELookuper, timeout time.Duration) *Resolver {
	return &Resolver{lookup: lookup, timeout: timeout}
}

func (r *Resolver) ResolveChain(ctx context.Context, host string) ([]string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cur := canonical(host)
	seen := map[string]struct{}{cur: {}}
	var chain []string
	for i := 0; i < maxChainHops; i++ {
		target, err := r.lookup.LookupCNAME(ctx, cur)
		if err != nil {
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
				break
			}
			return chain, err
		}
		target = canonical(target)
		if target == "" || target == cur {
			break
		}
		if _, loop := seen[target]; loop {
			break
		}
		seen[target] = struct{}{}
		chain = append(chain, target)
		cur = target
	}
	return chain, nil
}

func canonical(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// CachingResolver consults a CNAMECache before delegating. Cache failures
// are logged and never fail a resolution.
type CachingResolver struct {
	next   repository.CNAMEResolver
	cache  repository.CNAMECache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachingResolver(next repository.CNAMEResolver, cache repository.CNAMECache, ttl time.Duration, logger *zap.Logger) *CachingResolver {
	return &CachingResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachingResolver) ResolveChain(ctx context.Context, host string) ([]string, error) {
	key := canonical(host)
	chain, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cname cache read failed", zap.String("host", key), zap.Error(err))
	} else if ok {
		return chain, nil
	}

	chain, err = r.next.ResolveChain(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, chain, r.ttl); err != nil {
		r.logger.Warn("cname cache write failed", zap.String("host", key), zap.Error(err))
	}
	return chain, nil
}
