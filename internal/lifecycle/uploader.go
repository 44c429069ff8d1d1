package lifecycle

import (
	"context"

	"giftwall/pkg/s3"
)

// S3BackupUploader satisfies BackupUploader by copying objects into a backup
// bucket; the backup key doubles as the external id.
type S3BackupUploader struct {
	client *s3.Client
}

func NewS3BackupUploader(client *s3.Client) *S3BackupUploader {
	return &S3BackupUploader{client: client}
}

func (u *S3BackupUploader) Name() string {
	return "s3-backup"
}

func (u *S3BackupUploader) Upload(ctx context.Context, storagePath string) (string, error) {
	return u.client.CopyToBackup(storagePath)
}
