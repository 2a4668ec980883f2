package subscriptiondao

// Attribute names of the subscriptions table.
const (
	AttrConnectionID = "connectionId"
	AttrTopicKey     = "realTimeItemKey"
	AttrTopicValue   = "realTimeItemId"
	AttrTTL          = "ttl"
)

// Subscription is the interest of one live WebSocket connection in one real
// time item. There is at most one per ConnectionID.
type Subscription struct {
	ConnectionID string `dynamodbav:"connectionId" ddb:"hash" json:"connectionId"`
	TopicKey     string `dynamodbav:"realTimeItemKey" json:"realTimeItemKey"`
	TopicValue   string `dynamodbav:"realTimeItemId" json:"realTimeItemId"`
	TTL          int64  `dynamodbav:"ttl,omitempty" json:"ttl,omitempty"` // advisory, swept by DynamoDB TTL
}
