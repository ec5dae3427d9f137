package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/invoice"
	"github.com/yashrajoria/storefront-service/metrics"
	"github.com/yashrajoria/storefront-service/models"
	"go.uber.org/zap"
)

const defaultArchiveTimeout = 30 * time.Second

type InvoiceService interface {
	// RenderInvoice writes the PDF for order to w. A requester who does not
	// own the order gets an Unauthorized error and w is left untouched.
	RenderInvoice(ctx context.Context, order models.Order, requestingUserID uuid.UUID, w io.Writer) error
	// Wait blocks until pending archive uploads finish.
	Wait()
}

type invoiceServiceImpl struct {
	renderer       *invoice.Renderer
	archiver       invoice.Archiver
	archiveTimeout time.Duration
	recorder       *metrics.Recorder
	logger         *zap.Logger
	pending        sync.WaitGroup
}

func NewInvoiceService(renderer *invoice.Renderer, archiver invoice.Archiver, archiveTimeout time.Duration, recorder *metrics.Recorder, logger *zap.Logger) InvoiceService {
	if archiver == nil {
		archiver = invoice.NoopArchiver{}
	}
	if archiveTimeout <= 0 {
		archiveTimeout = defaultArchiveTimeout
	}
	return &invoiceServiceImpl{
		renderer:       renderer,
		archiver:       archiver,
		archiveTimeout: archiveTimeout,
		recorder:       recorder,
		logger:         logger,
	}
}

func (s *invoiceServiceImpl) RenderInvoice(ctx context.Context, order models.Order, requestingUserID uuid.UUID, w io.Writer) error {
	if !order.OwnedBy(requestingUserID) {
		return apperrors.Unauthorized("Unauthorized")
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(order, &buf); err != nil {
		s.logger.Error("render invoice failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return apperrors.New(http.StatusInternalServerError, "failed to render invoice", err)
	}
	pdf := buf.Bytes()

	s.archive(ctx, order.ID, pdf)

	if _, err := w.Write(pdf); err != nil {
		return fmt.Errorf("write invoice %s: %w", order.ID, err)
	}
	return nil
}

func (s *invoiceServiceImpl) archive(ctx context.Context, orderID uuid.UUID, pdf []byte) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.archiveTimeout)
		defer cancel()

		if err := s.archiver.Archive(actx, orderID, pdf); err != nil {
			s.recorder.InvoiceArchiveFailed(actx)
			s.logger.Warn("invoice archive failed", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}()
}

func (s *invoiceServiceImpl) Wait() {
	s.pending.Wait()
}
