package invoice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/pkg/aws"
)

// Archiver stores a copy of a rendered invoice.
type Archiver interface {
	Archive(ctx context.Context, orderID uuid.UUID, pdf []byte) error
}

// FileName is the name an invoice is served and stored under.
func FileName(orderID uuid.UUID) string {
	return "invoice-" + orderID.String() + ".pdf"
}

type S3Archiver struct {
	uploader aws.ObjectUploader
	bucket   string
	prefix   string
}

func NewS3Archiver(uploader aws.ObjectUploader, bucket, prefix string) *S3Archiver {
	if prefix == "" {
		prefix = "invoices"
	}
	return &S3Archiver{uploader: uploader, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (a *S3Archiver) Key(orderID uuid.UUID) string {
	return a.prefix + "/" + FileName(orderID)
}

func (a *S3Archiver) Archive(ctx context.Context, orderID uuid.UUID, pdf []byte) error {
	key := a.Key(orderID)
	if err := a.uploader.Upload(ctx, a.bucket, key, ContentType, bytes.NewReader(pdf)); err != nil {
		return fmt.Errorf("archive %s to s3://%s: %w", key, a.bucket, err)
	}
	return nil
}

// FileArchiver writes invoices under a local directory.
type FileArchiver struct {
	dir string
}

func NewFileArchiver(dir string) *FileArchiver {
	return &FileArchiver{dir: dir}
}

func (a *FileArchiver) Archive(ctx context.Context, orderID uuid.UUID, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create invoice dir: %w", err)
	}
	path := filepath.Join(a.dir, FileName(orderID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pdf, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, uuid.UUID, []byte) error { return nil }
