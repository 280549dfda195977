package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	appconfig "github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/models"
)

// SpacesClient exports summary records to an S3 compatible bucket such as
// DigitalOcean Spaces.
type SpacesClient struct {
	client *s3.Client
	bucket string
}

func NewSpacesClient(ctx context.Context, cfg appconfig.SpacesConfig) (*SpacesClient, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &SpacesClient{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *SpacesClient) SaveSummary(ctx context.Context, r *models.SummaryRecord) error {
	jsonData, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ObjectKey(r)),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "failed to save to Spaces")
	}

	return nil
}

// ObjectKey places each record under its video.
func ObjectKey(r *models.SummaryRecord) string {
	return fmt.Sprintf("summaries/%s/%s.json", r.VideoID, r.ID)
}
