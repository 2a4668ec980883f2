package sundaereport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/tj/assert"
)

type mockS3 struct {
	s3iface.S3API
	key  string
	body []byte
}

func (m *mockS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	m.key = aws.StringValue(input.Key)
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestReportKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, "svc/subscriptions/2024-03-01/13/2024-03-01-13:04:05.json", ReportKey("svc", "subscriptions", ts))
}

func TestGenerate(t *testing.T) {
	service := sundaecli.Service{Name: "svc", Version: "v1"}
	report := map[string]int{"total": 3}
	generate := func(context.Context) (interface{}, error) { return report, nil }

	savedOpts, savedDry := ReportOpts, sundaecli.CommonOpts.Dry
	defer func() {
		ReportOpts, sundaecli.CommonOpts.Dry = savedOpts, savedDry
	}()

	t.Run("s3", func(t *testing.T) {
		sundaecli.CommonOpts.Dry = false
		ReportOpts.Bucket = "reports"

		api := &mockS3{}
		err := NewHandler(service, api, "subscriptions", generate).Generate(context.Background(), nil)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(api.key, "svc/subscriptions/"))
		var got map[string]int
		assert.NoError(t, json.Unmarshal(api.body, &got))
		assert.Equal(t, report, got)
	})

	t.Run("dry run", func(t *testing.T) {
		sundaecli.CommonOpts.Dry = true
		ReportOpts.OutFile = filepath.Join(t.TempDir(), "out", "report.json")

		api := &mockS3{}
		err := NewHandler(service, api, "subscriptions", generate).Generate(context.Background(), nil)
		assert.NoError(t, err)
		assert.Equal(t, "", api.key)

		data, err := os.ReadFile(ReportOpts.OutFile)
		assert.NoError(t, err)
		var got map[string]int
		assert.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, report, got)
	})

	t.Run("generate error", func(t *testing.T) {
		boom := errors.New("boom")
		failing := func(context.Context) (interface{}, error) { return nil, boom }
		err := NewHandler(service, &mockS3{}, "subscriptions", failing).Generate(context.Background(), nil)
		assert.Equal(t, boom, err)
	})
}
