package subscriptiondao

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

// withTable runs callback against a scratch table in DynamoDB Local. Set
// DYNAMODB_ENDPOINT, e.g. http://localhost:8000, to enable.
func withTable(t *testing.T, callback func(ctx context.Context, dao *DAO)) {
	endpoint := os.Getenv("DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("DYNAMODB_ENDPOINT not set")
	}

	var (
		s = session.Must(session.NewSession(aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials("blah", "blah", "")).
			WithEndpoint(endpoint).
			WithRegion("us-west-2")))
		api       = dynamodb.New(s)
		client    = ddb.New(api)
		tableName = fmt.Sprintf("table-%v", time.Now().UnixNano())
		table     = client.MustTable(tableName, Subscription{})
		dao       = New(api, tableName)
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := table.CreateTableIfNotExists(ctx)
	assert.Nil(t, err)
	defer table.DeleteTableIfExists(ctx)

	callback(ctx, dao)
}

func TestDAO(t *testing.T) {
	withTable(t, func(ctx context.Context, dao *DAO) {
		var (
			a   = Subscription{ConnectionID: "a", TopicKey: "vehicleId", TopicValue: "V1", TTL: 100}
			b   = Subscription{ConnectionID: "b", TopicKey: "vehicleId", TopicValue: "V2", TTL: 200}
			err error
		)

		err = dao.Put(ctx, a)
		assert.Nil(t, err)

		err = dao.Put(ctx, b)
		assert.Nil(t, err)

		got, err := dao.Get(ctx, "a")
		assert.Nil(t, err)
		assert.Equal(t, &a, got)

		// overwrite
		//
		a.TopicValue = "V3"
		err = dao.Put(ctx, a)
		assert.Nil(t, err)

		got, err = dao.Get(ctx, "a")
		assert.Nil(t, err)
		assert.Equal(t, "V3", got.TopicValue)

		subs, err := dao.ListAll(ctx, AttrConnectionID, AttrTopicKey, AttrTopicValue)
		assert.Nil(t, err)
		sort.Slice(subs, func(i, j int) bool { return subs[i].ConnectionID < subs[j].ConnectionID })
		assert.Equal(t, []Subscription{
			{ConnectionID: "a", TopicKey: "vehicleId", TopicValue: "V3"},
			{ConnectionID: "b", TopicKey: "vehicleId", TopicValue: "V2"},
		}, subs)

		n, err := dao.Count(ctx)
		assert.Nil(t, err)
		assert.EqualValues(t, 2, n)

		// delete is idempotent
		//
		err = dao.Delete(ctx, "a")
		assert.Nil(t, err)
		err = dao.Delete(ctx, "a")
		assert.Nil(t, err)

		got, err = dao.Get(ctx, "a")
		assert.Nil(t, err)
		assert.Nil(t, got)
	})
}

type failingScan struct {
	dynamodbiface.DynamoDBAPI
	err error
}

func (f failingScan) ScanPagesWithContext(aws.Context, *dynamodb.ScanInput, func(*dynamodb.ScanOutput, bool) bool, ...request.Option) error {
	return f.err
}

func TestDAOUnavailable(t *testing.T) {
	var (
		ctx   = context.Background()
		cause = errors.New("connection refused")
		dao   = New(failingScan{err: cause}, "subscriptions")
	)

	_, err := dao.ListAll(ctx, AttrConnectionID)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, cause))

	_, err = dao.Count(ctx)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

type pagedScan struct {
	dynamodbiface.DynamoDBAPI
	pages []*dynamodb.ScanOutput
	input *dynamodb.ScanInput
}

func (p *pagedScan) ScanPagesWithContext(_ aws.Context, input *dynamodb.ScanInput, fn func(*dynamodb.ScanOutput, bool) bool, _ ...request.Option) error {
	p.input = input
	for i, page := range p.pages {
		if !fn(page, i == len(p.pages)-1) {
			break
		}
	}
	return nil
}

func TestDAOListAllPages(t *testing.T) {
	item := func(id, value string) map[string]*dynamodb.AttributeValue {
		return map[string]*dynamodb.AttributeValue{
			AttrConnectionID: {S: aws.String(id)},
			AttrTopicKey:     {S: aws.String("vehicleId")},
			AttrTopicValue:   {S: aws.String(value)},
		}
	}
	api := &pagedScan{
		pages: []*dynamodb.ScanOutput{
			{Items: []map[string]*dynamodb.AttributeValue{item("a", "V1"), item("b", "V2")}, Count: aws.Int64(2)},
			{Items: []map[string]*dynamodb.AttributeValue{item("c", "V1")}, Count: aws.Int64(1)},
		},
	}
	dao := New(api, "subscriptions")

	subs, err := dao.ListAll(context.Background(), AttrConnectionID, AttrTopicKey, AttrTopicValue)
	assert.Nil(t, err)
	assert.Len(t, subs, 3)
	assert.Equal(t, "c", subs[2].ConnectionID)
	assert.Equal(t, "#a0, #a1, #a2", aws.StringValue(api.input.ProjectionExpression))
	assert.Equal(t, AttrTopicValue, aws.StringValue(api.input.ExpressionAttributeNames["#a2"]))

	n, err := dao.Count(context.Background())
	assert.Nil(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, dynamodb.SelectCount, aws.StringValue(api.input.Select))
}
