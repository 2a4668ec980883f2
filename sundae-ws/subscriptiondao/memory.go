package subscriptiondao

import (
	"context"
	"sync"
)

// Memory is an in-process subscription store for console mode and tests.
type Memory struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string]Subscription)}
}

func (m *Memory) Put(_ context.Context, sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ConnectionID] = sub
	return nil
}

func (m *Memory) Get(_ context.Context, connectionID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[connectionID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m *Memory) Delete(_ context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, connectionID)
	return nil
}

func (m *Memory) ListAll(_ context.Context, attributes ...string) ([]Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := make([]Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, project(sub, attributes))
	}
	return subs, nil
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.subs)), nil
}

func project(sub Subscription, attributes []string) Subscription {
	if len(attributes) == 0 {
		return sub
	}
	var out Subscription
	for _, attr := range attributes {
		switch attr {
		case AttrConnectionID:
			out.ConnectionID = sub.ConnectionID
		case AttrTopicKey:
			out.TopicKey = sub.TopicKey
		case AttrTopicValue:
			out.TopicValue = sub.TopicValue
		case AttrTTL:
			out.TTL = sub.TTL
		}
	}
	return out
}
