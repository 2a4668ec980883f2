// Package sundaereport writes periodic JSON reports to S3, or locally in dry mode.
package sundaereport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
)

type GenerateCallback func(ctx context.Context) (interface{}, error)

type Handler struct {
	service sundaecli.Service
	logger  zerolog.Logger
	s3      s3iface.S3API

	reportName string

	generate GenerateCallback
}

func ReportKey(serviceName, reportName string, timestamp time.Time) string {
	return fmt.Sprintf("%v/%v/%v/%v/%v", serviceName, reportName, timestamp.Format("2006-01-02"), timestamp.Format("15"), timestamp.Format("2006-01-02-15:04:05.json"))
}

func NewHandler(
	service sundaecli.Service,
	api s3iface.S3API,
	reportName string,
	generate GenerateCallback,
) *Handler {
	return &Handler{
		service:    service,
		logger:     sundaecli.Logger(service),
		s3:         api,
		reportName: reportName,
		generate:   generate,
	}
}

func (h *Handler) Generate(ctx context.Context, _ json.RawMessage) error {
	ctx = h.logger.WithContext(ctx)
	h.logger.Info().Str("report", h.reportName).Msg("generating report")
	report, err := h.generate(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to generate report")
		return err
	}
	reportBytes, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %v: %w", h.reportName, err)
	}

	if sundaecli.CommonOpts.Dry {
		return h.writeLocal(report, reportBytes)
	}

	key := ReportKey(h.service.Name, h.reportName, time.Now().UTC())
	h.logger.Info().Str("bucket", ReportOpts.Bucket).Str("key", key).Int("size", len(reportBytes)).Msg("saving report to s3")
	_, err = h.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ReportOpts.Bucket),
		Body:        bytes.NewReader(reportBytes),
		Key:         aws.String(key),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save report to s3://%v/%v: %w", ReportOpts.Bucket, key, err)
	}
	return nil
}

func (h *Handler) writeLocal(report interface{}, reportBytes []byte) error {
	if ReportOpts.OutFile == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if err := os.MkdirAll(path.Dir(ReportOpts.OutFile), 0755); err != nil {
		return err
	}
	h.logger.Info().Str("filename", ReportOpts.OutFile).Int("size", len(reportBytes)).Msg("dry run, saving report locally")
	return os.WriteFile(ReportOpts.OutFile, reportBytes, 0644)
}

func (h *Handler) Start() error {
	switch {
	case sundaecli.CommonOpts.Console:
		return h.Generate(context.Background(), nil)

	default:
		lambda.Start(h.Generate)
	}
	return nil
}
