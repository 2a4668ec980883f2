package sundaews

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
)

// ItemCount is the number of connections subscribed to one item.
type ItemCount struct {
	TopicKey    string `json:"realTimeItemKey"`
	TopicValue  string `json:"realTimeItemId"`
	Connections int    `json:"connections"`
}

// Stats summarises the registry at a point in time.
type Stats struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Total       int         `json:"total"`
	Expired     int         `json:"expired"` // past their ttl but not yet swept
	Items       []ItemCount `json:"items"`
}

// Summarize counts subscriptions per item, busiest first.
func Summarize(ctx context.Context, registry Registry, now time.Time) (Stats, error) {
	subs, err := registry.ListAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("summarizing subscriptions: %w", err)
	}

	type item struct{ key, value string }
	counts := map[item]int{}
	stats := Stats{GeneratedAt: now, Total: len(subs)}
	for _, sub := range subs {
		counts[item{sub.TopicKey, sub.TopicValue}]++
		if isExpired(sub, now) {
			stats.Expired++
		}
	}

	stats.Items = make([]ItemCount, 0, len(counts))
	for k, n := range counts {
		stats.Items = append(stats.Items, ItemCount{TopicKey: k.key, TopicValue: k.value, Connections: n})
	}
	sort.Slice(stats.Items, func(i, j int) bool {
		a, b := stats.Items[i], stats.Items[j]
		if a.Connections != b.Connections {
			return a.Connections > b.Connections
		}
		if a.TopicKey != b.TopicKey {
			return a.TopicKey < b.TopicKey
		}
		return a.TopicValue < b.TopicValue
	})
	return stats, nil
}

func isExpired(sub subscriptiondao.Subscription, now time.Time) bool {
	return sub.TTL > 0 && sub.TTL < now.Unix()
}
