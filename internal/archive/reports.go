// Package archive writes month-close finance reports to S3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/salon-dashboard/internal/dashboard"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

// ErrReportNotFound is returned by Get when no report exists for the month.
var ErrReportNotFound = errors.New("archive: report not found")

// S3API is the subset of the S3 client used by ReportStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ReportStore keeps one JSON report per month in a bucket.
type ReportStore struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewReportStore creates a ReportStore. If bucket is empty, all operations are no-ops.
func NewReportStore(s3Client S3API, bucket string, logger *logging.Logger) *ReportStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportStore{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured.
func (s *ReportStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ReportKey is the object key for the month containing month.
func ReportKey(month time.Time) string {
	return fmt.Sprintf("reports/v1/finance/%d/%02d.json", month.Year(), month.Month())
}

// Put writes report, replacing any earlier copy for the same month.
func (s *ReportStore) Put(ctx context.Context, month time.Time, report dashboard.MonthReport) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("archive: marshal report: %w", err)
	}

	key := ReportKey(month)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived finance report to S3",
		"month", report.Month,
		"s3_key", key,
		"revenue", report.Revenue.String(),
		"net_profit", report.NetProfit.String(),
	)
	return nil
}

// Get reads the archived report for the month containing month.
func (s *ReportStore) Get(ctx context.Context, month time.Time) (dashboard.MonthReport, error) {
	if !s.Enabled() {
		return dashboard.MonthReport{}, ErrReportNotFound
	}

	key := ReportKey(month)
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return dashboard.MonthReport{}, fmt.Errorf("%w: %s", ErrReportNotFound, key)
		}
		return dashboard.MonthReport{}, fmt.Errorf("archive: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return dashboard.MonthReport{}, fmt.Errorf("archive: read %s: %w", key, err)
	}
	var report dashboard.MonthReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return dashboard.MonthReport{}, fmt.Errorf("archive: decode %s: %w", key, err)
	}
	return report, nil
}
