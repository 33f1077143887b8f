package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrDataUnavailable is returned when the dataset cannot be fetched or parsed.
var ErrDataUnavailable = errors.New("dataset unavailable")

// ObjectGetter is the subset of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader fetches one CSV object and parses it. It keeps no cache: every Load
// goes back to the object store.
type Loader struct {
	client ObjectGetter
	bucket string
	key    string
}

func NewLoader(client ObjectGetter, bucket, key string) (*Loader, error) {
	if client == nil {
		return nil, errors.New("object store client cannot be nil")
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("bucket and key are required (bucket=%q, key=%q)", bucket, key)
	}
	return &Loader{client: client, bucket: bucket, key: key}, nil
}

// NewS3Client builds an S3 client; a non-empty endpoint targets an
// S3-compatible store with path-style addressing.
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// Source identifies the loaded object as s3://bucket/key.
func (l *Loader) Source() string {
	return fmt.Sprintf("s3://%s/%s", l.bucket, l.key)
}

func (l *Loader) Load(ctx context.Context) (*Table, error) {
	start := time.Now()
	slog.Debug("Fetching dataset", "source", l.Source())

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		slog.Error("Failed to fetch dataset", "source", l.Source(), "error", err)
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrDataUnavailable, l.Source(), err)
	}
	if out.Body == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrDataUnavailable, l.Source())
	}
	defer out.Body.Close()

	table, err := ParseCSV(out.Body)
	if err != nil {
		slog.Error("Failed to parse dataset", "source", l.Source(), "error", err)
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrDataUnavailable, l.Source(), err)
	}

	slog.Info("Dataset loaded",
		"source", l.Source(),
		"rows", table.Len(),
		"columns", len(table.Columns()),
		"duration", time.Since(start),
	)
	return table, nil
}
