package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	appctx "smartsewing/internal/core/context"
	"smartsewing/internal/domain/auth"
	"smartsewing/internal/infrastructure/http/v1/middleware"
	"smartsewing/pkg/logger"
)

type testServer struct {
	env    *apptest.Env
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T, withAuth bool) *testServer {
	t.Helper()
	env := apptest.New(t)
	cfg := RouterConfig{
		Container:          env.Container,
		Logger:             logger.Nop(),
		IdempotencyEnabled: true,
	}
	if withAuth {
		jwtSvc, err := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
		require.NoError(t, err)
		cfg.JWTValidator = jwtSvc
	}
	return &testServer{env: env, router: NewRouter(cfg)}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createProduct(t *testing.T, title string, price any, qty int64) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/catalog/products", map[string]any{
		"title":           title,
		"kind":            "GOODS",
		"unitPrice":       price,
		"openingQuantity": qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestProductCreateParsesMoney(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name  string
		price any
		want  float64
	}{
		{name: "number", price: 12.5, want: 1250},
		{name: "string with symbol", price: "৳1,250.50", want: 125050},
		{name: "zero", price: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/catalog/products", map[string]any{
				"title":     "Thread " + tt.name,
				"kind":      "GOODS",
				"unitPrice": tt.price,
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decode(t, w)["unitPrice"])
		})
	}
}

func TestProductCreateRejectsBadAmount(t *testing.T) {
	s := newTestServer(t, false)

	for _, price := range []any{-5, "abc", "NaN"} {
		w := s.do(t, http.MethodPost, "/api/v1/catalog/products", map[string]any{
			"title":     "Needles",
			"kind":      "GOODS",
			"unitPrice": price,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "price %v", price)
		assert.Equal(t, apperror.CodeInvalidAmount, decode(t, w)["code"])
	}
}

func TestGetMissingProduct(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/api/v1/catalog/products/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog/products/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDefaultLocationRoute(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/api/v1/catalog/locations/default", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SHOP", decode(t, w)["code"])
}

func TestInvoiceLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	productID := s.createProduct(t, "Scissors", "100.00", 5)
	account := s.env.Account(t)

	w := s.do(t, http.MethodPost, "/api/v1/documents/sales-invoices", map[string]any{
		"customerName": "Rina",
		"lines": []map[string]any{
			{"productId": productID, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoice := decode(t, w)
	invoiceID := invoice["id"].(string)
	assert.Equal(t, "DRAFT", invoice["status"])
	assert.Equal(t, float64(20000), invoice["total"])

	w = s.do(t, http.MethodPost, "/api/v1/documents/sales-invoices/"+invoiceID+"/issue", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ISSUED", decode(t, w)["status"])

	w = s.do(t, http.MethodGet, "/api/v1/registers/stock/products/"+productID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["quantity"])

	w = s.do(t, http.MethodPost, "/api/v1/documents/sales-invoices/"+invoiceID+"/payments", map[string]any{
		"accountId": account.ID.String(),
		"amount":    "150.50",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payment := decode(t, w)["payment"].(map[string]any)
	assert.Equal(t, float64(15050), payment["amountApplied"])
	assert.Equal(t, "PARTIAL", payment["paymentStatus"])

	w = s.do(t, http.MethodGet, "/api/v1/registers/stock/movements?productId="+productID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["totalCount"])
}

func TestInvoiceIssueInsufficientStock(t *testing.T) {
	s := newTestServer(t, false)
	productID := s.createProduct(t, "Bobbin", 10, 1)

	w := s.do(t, http.MethodPost, "/api/v1/documents/sales-invoices", map[string]any{
		"customerName": "Tania",
		"lines":        []map[string]any{{"productId": productID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoiceID := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/documents/sales-invoices/"+invoiceID+"/issue", nil)
	assert.Equal(t, apperror.CodeInsufficientStock, decode(t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/v1/registers/stock/products/"+productID, nil)
	assert.Equal(t, float64(1), decode(t, w)["quantity"])
}

func TestIdempotentReplay(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]any{"title": "Chalk", "kind": "GOODS", "unitPrice": 3}

	first := s.do(t, http.MethodPost, "/api/v1/catalog/products", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := s.do(t, http.MethodPost, "/api/v1/catalog/products", body, middleware.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])

	w := s.do(t, http.MethodGet, "/api/v1/catalog/products?search=Chalk", nil)
	assert.Equal(t, float64(1), decode(t, w)["totalCount"])

	other := map[string]any{"title": "Chalk 2", "kind": "GOODS"}
	w = s.do(t, http.MethodPost, "/api/v1/catalog/products", other, middleware.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, apperror.CodeIdempotency, decode(t, w)["code"])
}

func TestIdempotentFailureReplay(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]any{"title": "Pins", "kind": "NOPE"}

	first := s.do(t, http.MethodPost, "/api/v1/catalog/products", body, middleware.HeaderIdempotencyKey, "k-2")
	require.GreaterOrEqual(t, first.Code, 400)

	second := s.do(t, http.MethodPost, "/api/v1/catalog/products", body, middleware.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotentConflictIsNotReplayed(t *testing.T) {
	s := newTestServer(t, false)
	productID := s.createProduct(t, "Bobbin", 10, 5)

	w := s.do(t, http.MethodPost, "/api/v1/documents/sales-invoices", map[string]any{
		"customerName": "Tania",
		"lines":        []map[string]any{{"productId": productID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	path := "/api/v1/documents/sales-invoices/" + decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPut, path, map[string]any{"version": 1, "customerName": "Tania B."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stale := map[string]any{"version": 1, "customerName": "Tania Begum"}
	first := s.do(t, http.MethodPut, path, stale, middleware.HeaderIdempotencyKey, "k-3")
	require.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, apperror.CodeConcurrentModification, decode(t, first)["code"])

	// The retry runs the handler again instead of replaying the 409.
	second := s.do(t, http.MethodPut, path, stale, middleware.HeaderIdempotencyKey, "k-3")
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Empty(t, second.Header().Get("Idempotent-Replayed"))

	// The released key can carry the refreshed request.
	fresh := map[string]any{"version": 2, "customerName": "Tania Begum"}
	w = s.do(t, http.MethodPut, path, fresh, middleware.HeaderIdempotencyKey, "k-3")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Tania Begum", decode(t, w)["customerName"])

	w = s.do(t, http.MethodPut, path, fresh, middleware.HeaderIdempotencyKey, "k-3")
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodGet, "/api/v1/catalog/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decode(t, w)["code"])

	// health stays open
	w = s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleChecks(t *testing.T) {
	s := newTestServer(t, true)
	jwtSvc, err := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	require.NoError(t, err)

	token, _, err := jwtSvc.GenerateAccessToken(appctx.UserContext{
		UserID: "cashier-1",
		Roles:  []string{auth.RoleCashier},
	})
	require.NoError(t, err)
	s.token = token

	w := s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cashier-1", decode(t, w)["userId"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/documents/write-offs", map[string]any{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, decode(t, w)["code"])
}

func TestExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t, true)
	cfg := auth.DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	jwtSvc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	token, _, err := jwtSvc.GenerateAccessToken(appctx.UserContext{UserID: "u", Roles: []string{auth.RoleAdmin}})
	require.NoError(t, err)
	s.token = token

	w := s.do(t, http.MethodGet, "/api/v1/catalog/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
