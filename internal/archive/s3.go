package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/models"
)

// Config points the archiver at an S3-compatible bucket. Endpoint is the
// account endpoint for R2; leave it empty for plain S3.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Archiver uploads each finished day's events as one JSON object, keyed by
// date, for cheap long-term retention outside the database.
type Archiver struct {
	client *s3.Client
	bucket string
}

// New builds the archiver. Returns an error when credentials are incomplete;
// callers treat archiving as optional and run without it.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive: incomplete object storage configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Archiver{client: client, bucket: cfg.Bucket}, nil
}

// ArchiveDay uploads the day's events to events/YYYY-MM-DD.json, overwriting
// any earlier upload for the same date.
func (a *Archiver) ArchiveDay(ctx context.Context, date time.Time, events []*models.Event) error {
	body, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode events: %w", err)
	}

	key := fmt.Sprintf("events/%s.json", date.Format("2006-01-02"))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: upload %s: %w", key, err)
	}

	logger.Get().Info().Str("key", key).Int("events", len(events)).Msg("Archived daily events")
	return nil
}
