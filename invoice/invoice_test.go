package invoice_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yashrajoria/storefront-service/invoice"
	"github.com/yashrajoria/storefront-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() models.Order {
	id := uuid.MustParse("7d7b6f0e-5d0a-4b7e-9a57-7b1a3c2a9f10")
	return models.Order{
		ID:        id,
		User:      models.OrderUser{UserID: uuid.New(), Email: "ada@example.com"},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Lines: []models.OrderLine{
			{Quantity: 2, Product: models.ProductSnapshot{Title: "Book", Price: decimal.RequireFromString("12.5")}},
			{Quantity: 1, Product: models.ProductSnapshot{Title: "Pen", Price: decimal.RequireFromString("0.99")}},
		},
	}
}

func TestLines(t *testing.T) {
	order := sampleOrder()

	assert.Equal(t, []string{"Book - 2 x 12.50", "Pen - 1 x 0.99"}, invoice.Lines(order))
	assert.Len(t, invoice.Lines(order), len(order.Lines), "total is not a body line")
	assert.Equal(t, "Total: 25.99", invoice.TotalLine(order))
}

func TestRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, invoice.NewRenderer(false).Render(sampleOrder(), &buf))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "Invoice")
	assert.Contains(t, string(out), "Book - 2 x 12.50")
	assert.Contains(t, string(out), "Total: 25.99")
}

type recordingUploader struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (u *recordingUploader) Upload(_ context.Context, bucket, key, contentType string, body io.Reader) error {
	u.bucket, u.key, u.contentType = bucket, key, contentType
	u.body, _ = io.ReadAll(body)
	return u.err
}

func TestS3Archiver(t *testing.T) {
	up := &recordingUploader{}
	a := invoice.NewS3Archiver(up, "invoices-bucket", "")
	id := uuid.New()

	require.NoError(t, a.Archive(context.Background(), id, []byte("%PDF-1.3")))

	assert.Equal(t, "invoices-bucket", up.bucket)
	assert.Equal(t, "invoices/invoice-"+id.String()+".pdf", up.key)
	assert.Equal(t, "application/pdf", up.contentType)
	assert.Equal(t, []byte("%PDF-1.3"), up.body)
}

func TestS3Archiver_Error(t *testing.T) {
	up := &recordingUploader{err: errors.New("access denied")}
	a := invoice.NewS3Archiver(up, "b", "archive/")

	err := a.Archive(context.Background(), uuid.New(), []byte("x"))

	assert.ErrorContains(t, err, "access denied")
	assert.Contains(t, up.key, "archive/invoice-")
}

func TestFileArchiver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	id := uuid.New()

	require.NoError(t, invoice.NewFileArchiver(dir).Archive(context.Background(), id, []byte("pdf")))

	got, err := os.ReadFile(filepath.Join(dir, invoice.FileName(id)))
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), got)
}
