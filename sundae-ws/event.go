package sundaews

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

// Event describes one created or updated resource. Attributes are forwarded
// verbatim to every matching connection.
type Event struct {
	Source     string                 `json:"source,omitempty"` // e.g. dynamodb, kinesis, admin
	ID         string                 `json:"id,omitempty"`     // source event id, for logging only
	Attributes map[string]interface{} `json:"attributes"`
}

// TopicValue returns the value of the named attribute as a subscription
// identifier. Strings are used as-is, numbers and booleans are formatted.
// Missing, null, list and map values report false.
func (e Event) TopicValue(key string) (string, bool) {
	v, ok := e.Attributes[key]
	if !ok {
		return "", false
	}
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case int:
		return strconv.Itoa(value), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case json.Number:
		return value.String(), true
	case dynamodbattribute.Number:
		return value.String(), true
	case bool:
		return strconv.FormatBool(value), true
	default:
		return "", false
	}
}

// Payload is the message posted to each matching connection.
func (e Event) Payload() ([]byte, error) {
	data, err := json.Marshal(e.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshalling event attributes: %w", err)
	}
	return data, nil
}

var imageDecoder = dynamodbattribute.NewDecoder(func(d *dynamodbattribute.Decoder) {
	d.UseNumber = true
})

// EventFromImage converts a DynamoDB stream image into an Event. Numbers keep
// their exact decimal text.
func EventFromImage(id string, image map[string]*dynamodb.AttributeValue) (Event, error) {
	attributes := map[string]interface{}{}
	if err := imageDecoder.Decode(&dynamodb.AttributeValue{M: image}, &attributes); err != nil {
		return Event{}, fmt.Errorf("unable to unmarshal stream image %v: %w", id, err)
	}
	for k, v := range attributes {
		attributes[k] = jsonNumbers(v)
	}
	return Event{
		Source:     "dynamodb",
		ID:         id,
		Attributes: attributes,
	}, nil
}

// jsonNumbers rewrites decoded DynamoDB numbers as json.Number so they marshal
// as JSON numbers rather than strings.
func jsonNumbers(v interface{}) interface{} {
	switch value := v.(type) {
	case dynamodbattribute.Number:
		return json.Number(value)
	case []dynamodbattribute.Number:
		numbers := make([]json.Number, len(value))
		for i, n := range value {
			numbers[i] = json.Number(n)
		}
		return numbers
	case map[string]interface{}:
		for k, item := range value {
			value[k] = jsonNumbers(item)
		}
		return value
	case []interface{}:
		for i, item := range value {
			value[i] = jsonNumbers(item)
		}
		return value
	default:
		return v
	}
}
