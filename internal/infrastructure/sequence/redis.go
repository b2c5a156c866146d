package sequence

import (
	"context"
	"fmt"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "tms:seq:"

// Redis allocates numbers with INCR, atomic across every instance sharing
// the server
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedis creates a generator on an existing client
func NewRedis(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Redis{client: client, keyPrefix: keyPrefix}
}

// Next returns the next number for the tenant and sequence name
func (r *Redis) Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("sequence name is required")
	}
	n, err := r.client.Incr(ctx, r.key(tenantID, name)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s number: %w", name, err)
	}
	return n, nil
}

func (r *Redis) key(tenantID uuid.UUID, name string) string {
	return r.keyPrefix + tenantID.String() + ":" + name
}

var _ shared.SequenceGenerator = (*Redis)(nil)
