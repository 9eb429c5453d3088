// Package storage keeps candidate resumes on local disk or in a MinIO bucket.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/talentgate/assessment-backend/internal/config"
)

// ResumeStore persists uploaded resume files. Save returns the URL path the
// file can be fetched from.
type ResumeStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// New picks the store configured by RESUME_STORE.
func New(ctx context.Context, cfg *config.Config) (ResumeStore, error) {
	switch cfg.ResumeStore {
	case "", "local":
		return NewLocalStore(cfg.UploadDir), nil
	case "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown resume store %q", cfg.ResumeStore)
	}
}
