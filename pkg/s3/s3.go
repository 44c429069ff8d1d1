package s3

import (
	"fmt"

	"giftwall/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type Client struct {
	s3Client     *s3.S3
	bucket       string
	backupBucket string
}

func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	}

	// Support MinIO for local development
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := &Client{
		s3Client:     s3.New(sess),
		bucket:       cfg.S3BucketName,
		backupBucket: cfg.S3BackupBucketName,
	}

	// Ensure bucket exists (for MinIO)
	_, err = client.s3Client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(cfg.S3BucketName),
	})
	if err != nil {
		_, _ = client.s3Client.CreateBucket(&s3.CreateBucketInput{
			Bucket: aws.String(cfg.S3BucketName),
		})
	}

	return client, nil
}

func (c *Client) DeleteFile(key string) error {
	_, err := c.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// CopyToBackup copies an object into the configured backup bucket via a
// server-side copy and returns the backup key.
func (c *Client) CopyToBackup(key string) (string, error) {
	if c.backupBucket == "" {
		return "", fmt.Errorf("backup bucket is not configured")
	}

	_, err := c.s3Client.CopyObject(&s3.CopyObjectInput{
		Bucket:     aws.String(c.backupBucket),
		Key:        aws.String(key),
		CopySource: aws.String(c.bucket + "/" + key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to copy file to backup bucket: %w", err)
	}
	return key, nil
}
