package subscriptiondao

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

// DAO provides access to the WebSocket subscriptions table.
type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new subscriptions DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, Subscription{}),
		api:       api,
		tableName: tableName,
	}
}

// TableName returns the name of the table backing this DAO.
func (d *DAO) TableName() string {
	return d.tableName
}

// Put stores or overwrites the subscription for a connection.
func (d *DAO) Put(ctx context.Context, sub Subscription) error {
	if err := d.table.Put(sub).RunWithContext(ctx); err != nil {
		return unavailable(err, "failed to put subscription %v", sub.ConnectionID)
	}
	return nil
}

// Get retrieves the subscription for a connection. Returns nil if not found.
func (d *DAO) Get(ctx context.Context, connectionID string) (*Subscription, error) {
	var sub Subscription
	if err := d.table.Get(connectionID).ConsistentRead(true).ScanWithContext(ctx, &sub); err != nil {
		if ddb.IsItemNotFoundError(err) {
			return nil, nil
		}
		return nil, unavailable(err, "failed to get subscription %v", connectionID)
	}
	return &sub, nil
}

// Delete removes the subscription for a connection. Deleting a connection that
// has no subscription is not an error.
func (d *DAO) Delete(ctx context.Context, connectionID string) error {
	if err := d.table.Delete(connectionID).RunWithContext(ctx); err != nil {
		return unavailable(err, "failed to delete subscription %v", connectionID)
	}
	return nil
}

// ListAll scans the whole table. When attributes are given, only those
// attributes are read and the remaining fields are left zero.
func (d *DAO) ListAll(ctx context.Context, attributes ...string) ([]Subscription, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(d.tableName),
	}
	if len(attributes) > 0 {
		names := make(map[string]*string, len(attributes))
		placeholders := make([]string, 0, len(attributes))
		for i, attr := range attributes {
			placeholder := fmt.Sprintf("#a%d", i)
			names[placeholder] = aws.String(attr)
			placeholders = append(placeholders, placeholder)
		}
		input.ProjectionExpression = aws.String(strings.Join(placeholders, ", "))
		input.ExpressionAttributeNames = names
	}

	var (
		subs      []Subscription
		decodeErr error
	)
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var items []Subscription
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); err != nil {
			decodeErr = fmt.Errorf("failed to decode subscriptions from %v: %w", d.tableName, err)
			return false
		}
		subs = append(subs, items...)
		return true
	})
	if err != nil {
		return nil, unavailable(err, "failed to scan subscriptions table %v", d.tableName)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return subs, nil
}

// Count returns the number of subscriptions in the table.
func (d *DAO) Count(ctx context.Context) (int64, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(d.tableName),
		Select:    aws.String(dynamodb.SelectCount),
	}

	var count int64
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		count += aws.Int64Value(page.Count)
		return true
	})
	if err != nil {
		return 0, unavailable(err, "failed to count subscriptions in %v", d.tableName)
	}
	return count, nil
}
