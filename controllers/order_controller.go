package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/invoice"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/services"
)

type OrderController struct {
	orders   services.OrderService
	payments services.PaymentService
	invoices services.InvoiceService
}

func NewOrderController(orders services.OrderService, payments services.PaymentService, invoices services.InvoiceService) *OrderController {
	return &OrderController{orders: orders, payments: payments, invoices: invoices}
}

type verifyOrderQuery struct {
	Reference string `form:"reference" binding:"required,payment_reference"`
}

type orderResponse struct {
	models.Order
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ItemCount  int             `json:"itemCount"`
}

func toOrderResponse(o models.Order) orderResponse {
	return orderResponse{Order: o, TotalPrice: o.TotalPrice(), ItemCount: o.ItemCount()}
}

// VerifyOrder handles GET /verify-order?reference=
func (oc *OrderController) VerifyOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var q verifyOrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	v, order, err := oc.payments.VerifyOrder(c.Request.Context(), user, q.Reference)
	if err != nil {
		appErr := apperrors.As(err)
		if appErr.Kind == apperrors.KindPayment {
			_ = c.Error(err)
			c.JSON(appErr.Code, gin.H{"error": appErr.Message, "verification": rawOrNull(v.Raw)})
			return
		}
		respondError(c, err)
		return
	}

	if order != nil {
		c.Header("X-Order-ID", order.ID.String())
	}
	if len(v.Raw) == 0 {
		c.JSON(http.StatusOK, gin.H{"reference": v.Reference, "status": v.Status})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", v.Raw)
}

func rawOrNull(raw []byte) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage("null")
	}
	return json.RawMessage(raw)
}

// ListOrders handles GET /orders
func (oc *OrderController) ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := oc.orders.ListOrders(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// GetInvoice handles GET /orders/:orderId
func (oc *OrderController) GetInvoice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, err := oc.orders.FindOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}

	w := &pdfResponseWriter{c: c, filename: invoice.FileName(order.ID)}
	if err := oc.invoices.RenderInvoice(c.Request.Context(), *order, user.ID, w); err != nil {
		if w.started {
			// Headers are gone; the client sees a truncated body.
			_ = c.Error(err)
			return
		}
		respondError(c, err)
	}
}

// pdfResponseWriter sets the PDF headers on the first write so that an
// error before any output can still be reported as JSON.
type pdfResponseWriter struct {
	c        *gin.Context
	filename string
	started  bool
}

func (w *pdfResponseWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		w.c.Header("Content-Type", invoice.ContentType)
		w.c.Header("Content-Disposition", `inline; filename="`+w.filename+`"`)
		w.c.Status(http.StatusOK)
	}
	return w.c.Writer.Write(p)
}
