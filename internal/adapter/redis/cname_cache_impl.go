package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cnamePrefix = "trackscope:cname:"

// CNAMECacheImpl shares resolved CNAME chains between processes.
type CNAMECacheImpl struct {
	client redis.Cmdable
}

func NewCNAMECache(client redis.Cmdable) *CNAMECacheImpl {
	return &CNAMECacheImpl{client: client}
}

func (c *CNAMECacheImpl) Get(ctx context.Context, host string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, cnamePrefix+host).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var chain []string
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, false, fmt.Errorf("decode cname chain for %s: %w", host, err)
	}
	return chain, true, nil
}

// Set stores chain for ttl. An empty chain is stored too so that hosts
// without a CNAME are not looked up again.
func (c *CNAMECacheImpl) Set(ctx context.Context, host string, chain []string, ttl time.Duration) error {
	if chain == nil {
		chain = []string{}
	}
	data, err := json.Marshal(chain)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cnamePrefix+host, data, ttl).Err()
}
