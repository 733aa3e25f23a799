package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/trackscope/pkg/utils"
)

const completionPrefix = "trackscope:done:"

// CompletionRepoImpl stores one expiring marker per (profile, domain).
type CompletionRepoImpl struct {
	client redis.Cmdable
}

func NewCompletionRepo(client redis.Cmdable) *CompletionRepoImpl {
	return &CompletionRepoImpl{client: client}
}

// generateKey hashes the pair so that odd domain strings stay safe keys.
func (r *CompletionRepoImpl) generateKey(profile, domain string) string {
	return fmt.Sprintf("%s%s", completionPrefix, utils.HashKey(profile, domain))
}

// MarkCompleted sets the marker with an expiry. SETEX is atomic.
func (r *CompletionRepoImpl) MarkCompleted(ctx context.Context, profile, domain string, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.generateKey(profile, domain), "1", expiry).Err()
}

func (r *CompletionRepoImpl) IsCompleted(ctx context.Context, profile, domain string) (bool, error) {
	val, err := r.client.Exists(ctx, r.generateKey(profile, domain)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// Clear removes the marker, used for forced re-crawls.
func (r *CompletionRepoImpl) Clear(ctx context.Context, profile, domain string) error {
	return r.client.Del(ctx, r.generateKey(profile, domain)).Err()
}
