//go:build integration

package changefeed_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/changefeed"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisFeed_FansOutAcrossInstances(t *testing.T) {
	client := testutil.NewRedis(t)
	publisher := changefeed.NewRedisFeedWithClient(client, changefeed.WithChannel("test:changes"))
	listener := changefeed.NewRedisFeedWithClient(client, changefeed.WithChannel("test:changes"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()
	t.Cleanup(func() { _ = listener.Close() })

	tenantID := uuid.New()
	received := make(chan changefeed.Notice, 4)
	unsubscribe := listener.Subscribe("Load", tenantID, func(n changefeed.Notice) { received <- n })
	defer unsubscribe()

	notice := changefeed.Notice{Topic: "Load", TenantID: tenantID, EntityID: uuid.New(), Action: changefeed.ActionSaved}
	other := changefeed.Notice{Topic: "Load", TenantID: uuid.New(), EntityID: uuid.New(), Action: changefeed.ActionSaved}

	// Run subscribes asynchronously; publish until the first notice lands
	require.Eventually(t, func() bool {
		require.NoError(t, publisher.Publish(ctx, other))
		require.NoError(t, publisher.Publish(ctx, notice))
		select {
		case n := <-received:
			assert.Equal(t, tenantID, n.TenantID)
			assert.Equal(t, notice.EntityID, n.EntityID)
			assert.NotZero(t, n.Timestamp)
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)
}
