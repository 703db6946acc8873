package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mukeshkumar44/e-commerce-backend/internal/locker"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/middleware"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository/memory"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/auth"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/cart"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/order"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/payment"
	"github.com/mukeshkumar44/e-commerce-backend/internal/storage"
)

const paymentSecret = "rzp_test_secret"

type fakeGateway struct{ calls int }

func (g *fakeGateway) CreateOrderIntent(_ context.Context, amount int64, currency, receipt string) (payment.Intent, error) {
	g.calls++
	return payment.Intent{ID: "order_" + receipt[len(receipt)-6:], Amount: amount, Currency: currency}, nil
}

type testServer struct {
	router     *gin.Engine
	uploadDir  string
	userToken  string
	adminToken string
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := locker.NewLocal()

	accounts := auth.NewService(store.Users(), store.RefreshTokens(), auth.Config{
		JWTSecret:       "handler-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}, logger)
	orders := order.NewService(order.Dependencies{
		Products: store.Products(),
		Orders:   store.Orders(),
		Carts:    store.Carts(),
		Tx:       memory.Transactor{},
		Locks:    locks,
		Metrics:  metrics.Noop(),
		Logger:   logger,
	})
	uploadDir := t.TempDir()

	srv := &testServer{uploadDir: uploadDir}
	srv.router = NewRouter(Deps{
		Logger:       logger,
		Auth:         accounts,
		Carts:        cart.NewService(store.Products(), store.Carts(), locks, metrics.Noop(), logger),
		Orders:       orders,
		Payments:     payment.NewService(&fakeGateway{}, orders, paymentSecret, "INR", metrics.Noop(), logger),
		Products:     catalog.NewProductService(store.Products(), store.Categories(), logger),
		Categories:   catalog.NewCategoryService(store.Categories(), store.Products(), logger),
		Images:       storage.NewLocal(uploadDir, "/public/uploads", logger),
		LoginLimiter: limiter,
		Ready:        func(context.Context) error { return nil },
	})

	ctx := context.Background()
	require.NoError(t, accounts.EnsureAdmin(ctx, "admin@shop.test", "admin-pass"))
	admin, err := accounts.Login(ctx, "admin@shop.test", "admin-pass")
	require.NoError(t, err)
	srv.adminToken = admin.AccessToken

	user, err := accounts.Register(ctx, "Buyer", "buyer@shop.test", "buyer-pass")
	require.NoError(t, err)
	srv.userToken = user.AccessToken
	return srv
}

type response struct {
	Code int
	Body map[string]any
}

func (r response) data() map[string]any {
	data, _ := r.Body["data"].(map[string]any)
	return data
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := response{Code: rec.Code}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func (s *testServer) seedProduct(t *testing.T, price float64, stock int) string {
	t.Helper()
	category := s.do(t, http.MethodPost, "/api/categories", s.adminToken, gin.H{"name": "Lighting " + time.Now().Format("150405.000000")})
	require.Equal(t, http.StatusCreated, category.Code, category.Body)

	product := s.do(t, http.MethodPost, "/api/admin/products", s.adminToken, gin.H{
		"name":     "Desk Lamp",
		"price":    price,
		"category": category.data()["id"],
		"stock":    stock,
	})
	require.Equal(t, http.StatusCreated, product.Code, product.Body)
	return product.data()["id"].(string)
}

var address = gin.H{
	"fullName":     "Asha Rao",
	"addressLine1": "12 MG Road",
	"city":         "Bengaluru",
	"state":        "KA",
	"postalCode":   "560001",
	"phoneNumber":  "9999999999",
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t, nil)
	productID := s.seedProduct(t, 100, 5)

	added := s.do(t, http.MethodPost, "/api/cart/items", s.userToken, gin.H{"productId": productID, "quantity": 2})
	require.Equal(t, http.StatusOK, added.Code, added.Body)
	assert.Equal(t, 200.0, added.data()["finalAmount"])

	created := s.do(t, http.MethodPost, "/api/orders", s.userToken, gin.H{"shippingAddress": address, "shippingPrice": 30})
	require.Equal(t, http.StatusCreated, created.Code, created.Body)
	orderID := created.data()["id"].(string)
	assert.Equal(t, 230.0, created.data()["totalPrice"])
	assert.Equal(t, "PENDING", created.data()["orderStatus"])
	assert.Equal(t, "India", created.data()["shippingAddress"].(map[string]any)["country"])

	product := s.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, 3.0, product.data()["stock"])

	emptyCart := s.do(t, http.MethodGet, "/api/cart", s.userToken, nil)
	assert.Empty(t, emptyCart.data()["items"])

	intent := s.do(t, http.MethodPost, "/api/orders/"+orderID+"/payment-intent", s.userToken, nil)
	require.Equal(t, http.StatusOK, intent.Code, intent.Body)
	assert.Equal(t, 23000.0, intent.data()["amount"])
	intentID := intent.data()["razorpayOrderId"].(string)

	forged := s.do(t, http.MethodPost, "/api/orders/verify-payment", s.userToken, gin.H{
		"orderId":             orderID,
		"razorpay_order_id":   intentID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  payment.Sign([]byte("wrong"), intentID, "pay_1"),
	})
	assert.Equal(t, http.StatusBadRequest, forged.Code)
	assert.Equal(t, "INVALID_SIGNATURE", forged.Body["error"])

	verified := s.do(t, http.MethodPost, "/api/orders/verify-payment", s.userToken, gin.H{
		"orderId":             orderID,
		"razorpay_order_id":   intentID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  payment.Sign([]byte(paymentSecret), intentID, "pay_1"),
	})
	require.Equal(t, http.StatusOK, verified.Code, verified.Body)
	assert.Equal(t, true, verified.data()["isPaid"])

	skipped := s.do(t, http.MethodPut, "/api/admin/orders/"+orderID+"/status", s.adminToken, gin.H{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, skipped.Code)
	assert.Equal(t, "INVALID_STATE", skipped.Body["error"])

	processing := s.do(t, http.MethodPut, "/api/admin/orders/"+orderID+"/status", s.adminToken, gin.H{"status": "processing"})
	require.Equal(t, http.StatusOK, processing.Code, processing.Body)

	cancelled := s.do(t, http.MethodPut, "/api/orders/"+orderID+"/cancel", s.userToken, nil)
	require.Equal(t, http.StatusOK, cancelled.Code, cancelled.Body)
	assert.Equal(t, "Cancelled by user", cancelled.data()["cancelReason"])

	product = s.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, 5.0, product.data()["stock"])

	listed := s.do(t, http.MethodGet, "/api/admin/orders?status=CANCELLED", s.adminToken, nil)
	require.Equal(t, http.StatusOK, listed.Code)
	assert.Equal(t, 1.0, listed.Body["count"])
	assert.Equal(t, 230.0, listed.Body["totalAmount"])

	mine := s.do(t, http.MethodGet, "/api/orders/mine", s.userToken, nil)
	assert.Equal(t, 1.0, mine.Body["count"])
}

func TestAddCartItemDefaultsQuantityToOne(t *testing.T) {
	s := newTestServer(t, nil)
	productID := s.seedProduct(t, 75, 3)

	added := s.do(t, http.MethodPost, "/api/cart/items", s.userToken, gin.H{"productId": productID})
	require.Equal(t, http.StatusOK, added.Code, added.Body)
	items := added.data()["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 1.0, items[0].(map[string]any)["quantity"])
	assert.Equal(t, 75.0, added.data()["totalAmount"])

	negative := s.do(t, http.MethodPost, "/api/cart/items", s.userToken, gin.H{"productId": productID, "quantity": -2})
	assert.Equal(t, http.StatusBadRequest, negative.Code)
	assert.Equal(t, "INVALID_QUANTITY", negative.Body["error"])
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t, nil)
	productID := s.seedProduct(t, 50, 1)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"no token", http.MethodGet, "/api/cart", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"user on admin route", http.MethodGet, "/api/admin/orders", s.userToken, nil, http.StatusForbidden, "FORBIDDEN"},
		{"malformed id", http.MethodGet, "/api/orders/not-an-id", s.userToken, nil, http.StatusBadRequest, "INVALID"},
		{"unknown order", http.MethodGet, "/api/orders/65a1b2c3d4e5f60718293a4b", s.userToken, nil, http.StatusNotFound, "NOT_FOUND"},
		{"empty cart checkout", http.MethodPost, "/api/orders", s.userToken, gin.H{"shippingAddress": address}, http.StatusBadRequest, "EMPTY_CART"},
		{"zero quantity", http.MethodPost, "/api/cart/items", s.userToken, gin.H{"productId": productID, "quantity": 0}, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"beyond stock", http.MethodPost, "/api/cart/items", s.userToken, gin.H{"productId": productID, "quantity": 2}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"missing product id", http.MethodPost, "/api/cart/items", s.userToken, gin.H{"quantity": 1}, http.StatusBadRequest, "INVALID"},
		{"unknown status filter", http.MethodGet, "/api/admin/orders?status=LOST", s.adminToken, nil, http.StatusBadRequest, "INVALID"},
		{"bad page", http.MethodGet, "/api/products?page=0", "", nil, http.StatusBadRequest, "INVALID"},
		{"bad sort", http.MethodGet, "/api/products?sort=random", "", nil, http.StatusBadRequest, "INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, res.Code, res.Body)
			assert.Equal(t, false, res.Body["success"])
			assert.Equal(t, tt.kind, res.Body["error"])
			assert.NotEmpty(t, res.Body["message"])
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	s := newTestServer(t, nil)

	res := s.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "x@example.com", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.ElementsMatch(t, []any{"name is required", "password must be at least 6"}, res.Body["details"])
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	login := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "buyer@shop.test", "password": "buyer-pass"})
	require.Equal(t, http.StatusOK, login.Code, login.Body)
	refresh := login.data()["refreshToken"].(string)

	me := s.do(t, http.MethodGet, "/api/auth/me", login.data()["accessToken"].(string), nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "buyer@shop.test", me.data()["email"])
	assert.NotContains(t, me.data(), "passwordHash")

	rotated := s.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rotated.Code)

	reused := s.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, reused.Code)

	out := s.do(t, http.MethodPost, "/api/auth/logout", "", gin.H{"refreshToken": rotated.data()["refreshToken"]})
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, middleware.NewPerMinuteLimiter(2))

	for i := 0; i < 2; i++ {
		res := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "buyer@shop.test", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	}
	res := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "buyer@shop.test", "password": "buyer-pass"})
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "RATE_LIMITED", res.Body["error"])
}

func TestCategoryParentCanBeCleared(t *testing.T) {
	s := newTestServer(t, nil)

	root := s.do(t, http.MethodPost, "/api/categories", s.adminToken, gin.H{"name": "Home"})
	require.Equal(t, http.StatusCreated, root.Code)
	child := s.do(t, http.MethodPost, "/api/categories", s.adminToken, gin.H{"name": "Kitchen", "parentCategory": root.data()["id"]})
	require.Equal(t, http.StatusCreated, child.Code)
	assert.Equal(t, root.data()["id"], child.data()["parentCategory"])

	forbidden := s.do(t, http.MethodPost, "/api/categories", s.userToken, gin.H{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	tree := s.do(t, http.MethodGet, "/api/categories/tree", "", nil)
	require.Equal(t, http.StatusOK, tree.Code)
	roots := tree.Body["data"].([]any)
	require.Len(t, roots, 1)

	blocked := s.do(t, http.MethodDelete, "/api/categories/"+root.data()["id"].(string), s.adminToken, nil)
	assert.Equal(t, http.StatusConflict, blocked.Code)

	cleared := s.do(t, http.MethodPut, "/api/categories/"+child.data()["id"].(string), s.adminToken, map[string]any{"parentCategory": nil})
	require.Equal(t, http.StatusOK, cleared.Code, cleared.Body)
	assert.Nil(t, cleared.data()["parentCategory"])

	deleted := s.do(t, http.MethodDelete, "/api/categories/"+root.data()["id"].(string), s.adminToken, nil)
	assert.Equal(t, http.StatusOK, deleted.Code)
}

func TestCreateProductWithImageUpload(t *testing.T) {
	s := newTestServer(t, nil)
	category := s.do(t, http.MethodPost, "/api/categories", s.adminToken, gin.H{"name": "Lighting"})
	require.Equal(t, http.StatusCreated, category.Code)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("name", "Lamp")
	_ = writer.WriteField("price", "120")
	_ = writer.WriteField("discountedPrice", "99")
	_ = writer.WriteField("stock", "4")
	_ = writer.WriteField("category", category.data()["id"].(string))
	_ = writer.WriteField("featured", "on")
	part, err := writer.CreateFormFile("images", "lamp.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("fake-png"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	created := s.send(t, req, s.adminToken)
	require.Equal(t, http.StatusCreated, created.Code, created.Body)
	assert.Equal(t, true, created.data()["featured"])

	images := created.data()["images"].([]any)
	require.Len(t, images, 1)
	url := images[0].(string)
	assert.True(t, strings.HasPrefix(url, "/public/uploads/products/"))

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake-png", rec.Body.String())

	stats := s.do(t, http.MethodGet, "/api/admin/products/stats", s.adminToken, nil)
	require.Equal(t, http.StatusOK, stats.Code)
}

func TestHealthEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/healthz", Healthz())
	router.GET("/readyz", Readyz(func(context.Context) error { return errors.New("no primary") }))
	router.GET("/readyz-nil", Readyz(nil))

	for path, want := range map[string]int{
		"/healthz":    http.StatusOK,
		"/readyz":     http.StatusServiceUnavailable,
		"/readyz-nil": http.StatusServiceUnavailable,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
