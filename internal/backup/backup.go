package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

// s3Client is the slice of the S3 API the manager needs, for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration. Backups are disabled
// when Bucket is empty.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Manager takes consistent SQLite snapshots via VACUUM INTO and uploads
// them to S3-compatible storage.
type Manager struct {
	cfg     Config
	db      *sql.DB
	dbPath  string
	client  s3Client
	backoff func() retry.Backoff
	logger  *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, dbPath string, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, dbPath: dbPath, logger: logger}
	m.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))
	}
	if cfg.Bucket != "" {
		m.client = s3.New(s3.Options{
			Region:       cfg.Region,
			BaseEndpoint: endpointOrNil(cfg.Endpoint),
			Credentials:  awscreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			UsePathStyle: true,
		})
	}
	return m
}

func endpointOrNil(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return &endpoint
}

// Enabled reports whether backups are configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Run takes one snapshot and uploads it. The upload is retried with
// exponential backoff; the local snapshot file is always removed.
func (m *Manager) Run(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}

	snapshot := filepath.Join(os.TempDir(), fmt.Sprintf("taskman-backup-%d.db", time.Now().UnixNano()))
	defer os.Remove(snapshot)

	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return fmt.Errorf("vacuum into snapshot: %w", err)
	}

	key := fmt.Sprintf("backups/%s.db", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	if err := m.upload(ctx, snapshot, key); err != nil {
		return err
	}

	m.logger.Info("backup uploaded", "bucket", m.cfg.Bucket, "key", key)
	return nil
}

func (m *Manager) upload(ctx context.Context, path, key string) error {
	return retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()

		_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if err != nil {
			return retry.RetryableError(fmt.Errorf("put object: %w", err))
		}
		return nil
	})
}
