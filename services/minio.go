package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

var ErrArchiveDisabled = errors.New("archive: object storage not configured")

// ReportArchive stores settled raw job payloads outside the job registry.
type ReportArchive interface {
	Enabled() bool
	PutReport(ctx context.Context, jobID string, payload []byte) (string, error)
	GetReport(ctx context.Context, key string) ([]byte, error)
	ReportURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteReport(ctx context.Context, key string) error
}

// ArchiveService moves settled raw payloads into MinIO. With no endpoint
// configured it stays disabled and payloads remain in the job registry.
type ArchiveService struct {
	appContext.DefaultService
	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
}

const ARCHIVE_SVC = "archive_svc"

const reportPrefix = "reports/"

func (svc ArchiveService) Id() string {
	return ARCHIVE_SVC
}

func (svc *ArchiveService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.endpoint = cfg.MinioEndpoint
	svc.accessKey = cfg.MinioAccessKey
	svc.secretKey = cfg.MinioSecretKey
	svc.useSSL = cfg.MinioUseSSL
	svc.bucketName = cfg.MinioBucketName

	return svc.DefaultService.Configure(ctx)
}

func (svc *ArchiveService) Start() error {
	if svc.endpoint == "" {
		log.Info("Report archive disabled, no MinIO endpoint configured")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}

	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	log.Printf("Report archive started with endpoint: %s", svc.endpoint)
	return nil
}

func (svc *ArchiveService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("Created MinIO bucket: %s", svc.bucketName)
	}

	return nil
}

func (svc *ArchiveService) Enabled() bool {
	return svc != nil && svc.client != nil
}

// ReportKey is the object name of a job's archived payload.
func ReportKey(jobID string) string {
	return reportPrefix + jobID + ".json"
}

func (svc *ArchiveService) PutReport(ctx context.Context, jobID string, payload []byte) (string, error) {
	if !svc.Enabled() {
		return "", ErrArchiveDisabled
	}

	key := ReportKey(jobID)
	_, err := svc.client.PutObject(ctx, svc.bucketName, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to MinIO: %v", err)
	}

	return key, nil
}

func (svc *ArchiveService) GetReport(ctx context.Context, key string) ([]byte, error) {
	if !svc.Enabled() {
		return nil, ErrArchiveDisabled
	}

	obj, err := svc.client.GetObject(ctx, svc.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %v", err)
	}
	defer obj.Close()

	raw, err := readPayload(obj, defaultMaxPayloadSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return raw, nil
}

// ReportURL returns a presigned download link for an archived payload.
func (svc *ArchiveService) ReportURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if !svc.Enabled() {
		return "", ErrArchiveDisabled
	}

	presignedURL, err := svc.client.PresignedGetObject(ctx, svc.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %v", err)
	}

	return presignedURL.String(), nil
}

func (svc *ArchiveService) DeleteReport(ctx context.Context, key string) error {
	if !svc.Enabled() {
		return ErrArchiveDisabled
	}

	err := svc.client.RemoveObject(ctx, svc.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete report from MinIO: %v", err)
	}

	return nil
}
