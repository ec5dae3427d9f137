package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yashrajoria/storefront-service/catalog"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/controllers"
	"github.com/yashrajoria/storefront-service/middleware"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeCarts struct {
	addedProduct string
	addedQty     int
	removed      string
	err          error
}

func (f *fakeCarts) GetCart(context.Context, models.CurrentUser) (models.Cart, error) {
	return models.Cart{}, nil
}

func (f *fakeCarts) AddToCart(_ context.Context, _ models.CurrentUser, productID string, qty int) (models.Cart, error) {
	f.addedProduct, f.addedQty = productID, qty
	return models.Cart{}, f.err
}

func (f *fakeCarts) RemoveFromCart(_ context.Context, _ models.CurrentUser, productID string) (models.Cart, error) {
	f.removed = productID
	return models.Cart{}, f.err
}

func (f *fakeCarts) ClearCart(context.Context, models.CurrentUser) error { return nil }

type fakeCheckout struct {
	view models.CheckoutView
	err  error
}

func (f *fakeCheckout) BuildCheckoutView(_ context.Context, user models.CurrentUser) (models.CheckoutView, error) {
	v := f.view
	v.UserEmail = user.Email
	return v, f.err
}

type fakeOrders struct {
	orders []models.Order
	found  *models.Order
	err    error
}

func (f *fakeOrders) CreateOrder(context.Context, models.CurrentUser, models.CheckoutView, string) (*models.Order, error) {
	return nil, nil
}

func (f *fakeOrders) ListOrders(context.Context, uuid.UUID) ([]models.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrders) FindOrder(context.Context, string) (*models.Order, error) {
	return f.found, f.err
}

func (f *fakeOrders) FindByReference(context.Context, string) (*models.Order, error) {
	return nil, nil
}

type fakePayments struct {
	verification payment.PaymentVerification
	order        *models.Order
	err          error
	reference    string
}

func (f *fakePayments) VerifyOrder(_ context.Context, _ models.CurrentUser, reference string) (payment.PaymentVerification, *models.Order, error) {
	f.reference = reference
	return f.verification, f.order, f.err
}

type fakeInvoices struct {
	err error
}

func (f *fakeInvoices) RenderInvoice(_ context.Context, order models.Order, userID uuid.UUID, w io.Writer) error {
	if !order.OwnedBy(userID) {
		return apperrors.Unauthorized("Unauthorized")
	}
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("%PDF-1.3 fake"))
	return err
}

func (f *fakeInvoices) Wait() {}

type fakeCatalog struct {
	product *models.Product
	page    catalog.Page
}

func (f *fakeCatalog) FindByID(context.Context, uuid.UUID) (*models.Product, error) {
	return f.product, nil
}

func (f *fakeCatalog) List(_ context.Context, _, _ int) (catalog.Page, error) {
	return f.page, nil
}

// ---- helpers ----

var testUser = models.CurrentUser{ID: uuid.MustParse("0b8f0b36-1c39-4f4e-9a0e-1f0b8a8e2d10"), Email: "ada@example.com"}

type deps struct {
	carts    *fakeCarts
	checkout *fakeCheckout
	orders   *fakeOrders
	payments *fakePayments
	invoices *fakeInvoices
	catalog  *fakeCatalog
}

func newDeps() *deps {
	return &deps{
		carts:    &fakeCarts{},
		checkout: &fakeCheckout{},
		orders:   &fakeOrders{},
		payments: &fakePayments{},
		invoices: &fakeInvoices{},
		catalog:  &fakeCatalog{},
	}
}

func setupRouter(d *deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controllers.RegisterValidators()
	r := gin.New()

	cc := controllers.NewCartController(d.carts, d.checkout)
	oc := controllers.NewOrderController(d.orders, d.payments, d.invoices)
	pc := controllers.NewProductController(d.catalog, 2)

	r.GET("/products", pc.ListProducts)
	r.GET("/products/:productId", pc.GetProduct)

	protected := r.Group("/", middleware.AuthMiddleware(nil, true))
	protected.GET("/cart", cc.GetCart)
	protected.POST("/cart", cc.AddToCart)
	protected.POST("/cart-delete-item", cc.RemoveFromCart)
	protected.GET("/checkout", cc.Checkout)
	protected.GET("/verify-order", oc.VerifyOrder)
	protected.GET("/orders", oc.ListOrders)
	protected.GET("/orders/:orderId", oc.GetInvoice)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, testUser.ID.String())
	req.Header.Set(middleware.HeaderUserEmail, testUser.Email)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleView() models.CheckoutView {
	return models.CheckoutView{
		Lines: []models.CheckoutLine{{
			Quantity: 2,
			Product:  models.Product{ID: uuid.New(), Title: "Mug", Price: decimal.NewFromInt(10)},
		}},
		TotalPrice: decimal.NewFromInt(20),
	}
}

// ---- cart ----

func TestGetCart(t *testing.T) {
	d := newDeps()
	d.checkout.view = sampleView()
	w := do(setupRouter(d), http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Products []struct {
			Quantity int `json:"quantity"`
			Product  struct {
				Title string `json:"title"`
			} `json:"product"`
		} `json:"products"`
		TotalPrice string `json:"totalPrice"`
		UserEmail  string `json:"userEmail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, "Mug", body.Products[0].Product.Title)
	assert.Equal(t, "20", body.TotalPrice)
	assert.Empty(t, body.UserEmail)
}

func TestAddToCart_DefaultQuantity(t *testing.T) {
	d := newDeps()
	pid := uuid.NewString()

	w := do(setupRouter(d), http.MethodPost, "/cart", map[string]interface{}{"productId": pid})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pid, d.carts.addedProduct)
	assert.Equal(t, 1, d.carts.addedQty)
}

func TestAddToCart_InvalidBody(t *testing.T) {
	d := newDeps()
	r := setupRouter(d)

	w := do(r, http.MethodPost, "/cart", map[string]interface{}{"productId": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/cart", map[string]interface{}{"productId": uuid.NewString(), "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, d.carts.addedProduct)
}

func TestAddToCart_ServiceErrors(t *testing.T) {
	d := newDeps()
	d.carts.err = apperrors.NotFound("product not found")

	w := do(setupRouter(d), http.MethodPost, "/cart", map[string]interface{}{"productId": uuid.NewString(), "quantity": 2})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"product not found"}`, w.Body.String())
}

func TestRemoveFromCart(t *testing.T) {
	d := newDeps()
	pid := uuid.NewString()

	w := do(setupRouter(d), http.MethodPost, "/cart-delete-item", map[string]interface{}{"productId": pid})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pid, d.carts.removed)
}

func TestCheckout(t *testing.T) {
	d := newDeps()
	d.checkout.view = sampleView()

	w := do(setupRouter(d), http.MethodGet, "/checkout", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userEmail":"ada@example.com"`)
	assert.Contains(t, w.Body.String(), `"totalPrice":"20"`)
}

func TestCheckout_UnexpectedErrorIsGeneric(t *testing.T) {
	d := newDeps()
	d.checkout.err = io.ErrUnexpectedEOF

	w := do(setupRouter(d), http.MethodGet, "/checkout", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

// ---- verify-order ----

func TestVerifyOrder_Confirmed(t *testing.T) {
	d := newDeps()
	raw := `{"status":true,"data":{"status":"success","reference":"ref1"}}`
	order := &models.Order{ID: uuid.New()}
	d.payments.verification = payment.PaymentVerification{Reference: "ref1", Status: payment.StatusConfirmed, Raw: []byte(raw)}
	d.payments.order = order

	w := do(setupRouter(d), http.MethodGet, "/verify-order?reference=ref1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, raw, w.Body.String())
	assert.Equal(t, order.ID.String(), w.Header().Get("X-Order-ID"))
	assert.Equal(t, "ref1", d.payments.reference)
}

func TestVerifyOrder_Rejected(t *testing.T) {
	d := newDeps()
	d.payments.verification = payment.PaymentVerification{Status: payment.StatusRejected, Raw: []byte(`{"data":{"status":"failed"}}`)}
	d.payments.err = apperrors.PaymentRejected("payment was not successful")

	w := do(setupRouter(d), http.MethodGet, "/verify-order?reference=ref1", nil)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.JSONEq(t, `{"error":"payment was not successful","verification":{"data":{"status":"failed"}}}`, w.Body.String())
}

func TestVerifyOrder_GatewayDown(t *testing.T) {
	d := newDeps()
	d.payments.verification = payment.PaymentVerification{Status: payment.StatusErrored}
	d.payments.err = apperrors.PaymentUnavailable("payment could not be verified, try again later", io.EOF)

	w := do(setupRouter(d), http.MethodGet, "/verify-order?reference=ref1", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"payment could not be verified, try again later","verification":null}`, w.Body.String())
}

func TestVerifyOrder_ForeignReferenceHidesPayload(t *testing.T) {
	d := newDeps()
	d.payments.verification = payment.PaymentVerification{
		Reference: "ref1",
		Status:    payment.StatusConfirmed,
		Raw:       []byte(`{"data":{"customer":{"email":"owner@example.com"}}}`),
	}
	d.payments.err = apperrors.Unauthorized("payment reference belongs to another user")

	w := do(setupRouter(d), http.MethodGet, "/verify-order?reference=ref1", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"payment reference belongs to another user"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "owner@example.com")
}

func TestVerifyOrder_BadReference(t *testing.T) {
	d := newDeps()
	r := setupRouter(d)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/verify-order", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/verify-order?reference=a%20b", nil).Code)
	assert.Empty(t, d.payments.reference)
}

// ---- orders & invoices ----

func TestListOrders_IncludesTotal(t *testing.T) {
	d := newDeps()
	d.orders.orders = []models.Order{*models.NewOrder(testUser, sampleView(), "ref1", time.Now())}

	w := do(setupRouter(d), http.MethodGet, "/orders", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Orders []struct {
			ID               string `json:"id"`
			PaymentReference string `json:"paymentReference"`
			TotalPrice       string `json:"totalPrice"`
			Products         []struct {
				Quantity int `json:"quantity"`
			} `json:"products"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, "20", body.Orders[0].TotalPrice)
	assert.Equal(t, "ref1", body.Orders[0].PaymentReference)
	assert.Len(t, body.Orders[0].Products, 1)
}

func TestGetInvoice_Owner(t *testing.T) {
	d := newDeps()
	order := models.NewOrder(testUser, sampleView(), "ref1", time.Now())
	d.orders.found = order

	w := do(setupRouter(d), http.MethodGet, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="invoice-`+order.ID.String()+`.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

func TestGetInvoice_NonOwner(t *testing.T) {
	d := newDeps()
	order := models.NewOrder(models.CurrentUser{ID: uuid.New()}, sampleView(), "ref1", time.Now())
	d.orders.found = order

	w := do(setupRouter(d), http.MethodGet, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEqual(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestGetInvoice_NotFound(t *testing.T) {
	d := newDeps()
	d.orders.err = apperrors.NotFound("order not found")

	w := do(setupRouter(d), http.MethodGet, "/orders/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectedRoutesRequireUser(t *testing.T) {
	r := setupRouter(newDeps())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized: missing user"}`, w.Body.String())
}

// ---- products ----

func TestListProducts(t *testing.T) {
	d := newDeps()
	d.catalog.page = catalog.Page{
		Items:      []models.Product{{ID: uuid.New(), Title: "A"}, {ID: uuid.New(), Title: "B"}},
		TotalCount: 5,
	}

	w := do(setupRouter(d), http.MethodGet, "/products?page=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Products   []models.Product   `json:"products"`
		Pagination catalog.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Products, 2)
	assert.Equal(t, 2, body.Pagination.CurrentPage)
	assert.True(t, body.Pagination.HasNextPage)
	assert.True(t, body.Pagination.HasPreviousPage)
	assert.Equal(t, 3, body.Pagination.LastPage)
}

func TestGetProduct(t *testing.T) {
	d := newDeps()
	r := setupRouter(d)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/products/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/products/"+uuid.NewString(), nil).Code)

	d.catalog.product = &models.Product{ID: uuid.New(), Title: "Lamp", Price: decimal.NewFromInt(10)}
	w := do(r, http.MethodGet, "/products/"+d.catalog.product.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Lamp"`)
}
