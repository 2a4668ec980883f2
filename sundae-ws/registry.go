package sundaews

import (
	"context"

	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
)

// Registry is the store of live subscriptions, keyed by connection id. Put
// overwrites and Delete is idempotent, so concurrent writers need no locking.
// Implementations wrap store failures with subscriptiondao.ErrUnavailable.
type Registry interface {
	Put(ctx context.Context, sub subscriptiondao.Subscription) error
	Get(ctx context.Context, connectionID string) (*subscriptiondao.Subscription, error)
	Delete(ctx context.Context, connectionID string) error
	ListAll(ctx context.Context, attributes ...string) ([]subscriptiondao.Subscription, error)
	Count(ctx context.Context) (int64, error)
}

var (
	_ Registry = (*subscriptiondao.DAO)(nil)
	_ Registry = (*subscriptiondao.Memory)(nil)
)
