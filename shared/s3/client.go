package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds S3 connection and bucket configuration
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // optional override for the returned object URL
	UploadTimeout   time.Duration
}

// Client uploads objects to a single S3 bucket
type Client struct {
	s3     *awss3.Client
	config *Config
	logger *slog.Logger
}

// NewClient creates a new S3 client
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}

	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 client initialized",
		slog.String("region", config.Region),
		slog.String("bucket", config.Bucket),
	)

	return &Client{s3: client, config: config, logger: logger}, nil
}

// Upload stores an object and returns its durable URL
func (c *Client) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	timeout := c.config.UploadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.s3.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(c.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		c.logger.Error("Failed to upload object to S3",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	url := c.objectURL(key)

	c.logger.Debug("Object uploaded to S3",
		slog.String("key", key),
		slog.Int("size", len(body)),
		slog.String("url", url),
	)

	return url, nil
}

func (c *Client) objectURL(key string) string {
	if c.config.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", c.config.PublicBaseURL, key)
	}
	if c.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.config.Endpoint, c.config.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.Bucket, c.config.Region, key)
}
