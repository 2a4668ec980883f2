package sundaews

import "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"

// Matches reports whether sub is interested in event for the given topic key.
// An event without a usable topic value matches nothing.
func Matches(event Event, topicKey string, sub subscriptiondao.Subscription) bool {
	value, ok := event.TopicValue(topicKey)
	if !ok {
		return false
	}
	return sub.TopicKey == topicKey && sub.TopicValue == value
}

// Filter returns the subscriptions interested in event. It returns
// ErrMalformedEvent, and no candidates, when the event carries no value for
// topicKey.
func Filter(event Event, topicKey string, subs []subscriptiondao.Subscription) ([]subscriptiondao.Subscription, error) {
	if _, ok := event.TopicValue(topicKey); !ok {
		return nil, ErrMalformedEvent
	}

	var matched []subscriptiondao.Subscription
	for _, sub := range subs {
		if Matches(event, topicKey, sub) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}
