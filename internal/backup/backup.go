// Package backup uploads encrypted snapshots of the SQLite database to
// S3-compatible storage. Backups are triggered by an administrator;
// there is no schedule, since the portal runs on a single office box
// that already gets filesystem snapshots.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Manager runs encrypted database backups on demand.
type Manager struct {
	mu     sync.RWMutex
	client s3Client
	bucket string

	dbPath      string
	db          *sql.DB
	backupStore *store.BackupStore
	logger      *slog.Logger
}

func NewManager(dbPath string, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Manager {
	return &Manager{
		dbPath:      dbPath,
		db:          db,
		backupStore: bs,
		logger:      logger,
	}
}

// Configure sets or replaces the S3 target. An incomplete config
// disables backups.
func (m *Manager) Configure(cfg S3Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		m.client = nil
		m.bucket = ""
		return
	}
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	m.client = s3.New(opts)
	m.bucket = cfg.Bucket
}

// Configured reports whether an S3 target is set.
func (m *Manager) Configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// RunNow checkpoints the WAL, encrypts a copy of the database with the
// given passphrase, and uploads it. The result is recorded either way
// so failed attempts show up in the backup list.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (*model.Backup, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("backup not configured: S3 credentials missing")
	}
	if passphrase == "" {
		return nil, fmt.Errorf("backup passphrase required")
	}

	objectKey := fmt.Sprintf("staffroom/backup-%s.db.enc", time.Now().UTC().Format("2006-01-02T150405Z"))

	encrypted, err := m.snapshot(ctx, passphrase)
	if err != nil {
		m.backupStore.Record(objectKey, 0, model.BackupStatusFailed, err.Error())
		return nil, err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(encrypted),
		ContentLength: aws.Int64(int64(len(encrypted))),
	})
	if err != nil {
		m.backupStore.Record(objectKey, 0, model.BackupStatusFailed, err.Error())
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	record, err := m.backupStore.Record(objectKey, int64(len(encrypted)), model.BackupStatusCompleted, "")
	if err != nil {
		return nil, err
	}

	m.logger.Info("backup uploaded", "key", objectKey, "bytes", len(encrypted))
	return record, nil
}

// snapshot checkpoints the WAL and returns the encrypted database bytes.
func (m *Manager) snapshot(ctx context.Context, passphrase string) ([]byte, error) {
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("wal checkpoint: %w", err)
	}

	plaintext, err := os.ReadFile(m.dbPath)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}

	encrypted, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return encrypted, nil
}

// Download streams an encrypted backup object from S3.
func (m *Manager) Download(ctx context.Context, backupID int64) (io.ReadCloser, int64, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, 0, fmt.Errorf("backup not configured")
	}

	record, err := m.backupStore.GetByID(backupID)
	if err != nil {
		return nil, 0, fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return nil, 0, fmt.Errorf("backup not found")
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.ObjectKey),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("download from s3: %w", err)
	}

	return result.Body, record.SizeBytes, nil
}
