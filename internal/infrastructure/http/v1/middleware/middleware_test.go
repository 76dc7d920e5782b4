package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/core/apperror"
	appctx "smartsewing/internal/core/context"
	"smartsewing/internal/infrastructure/storage/memory"
	"smartsewing/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetDefault(logger.Nop())
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTraceKeepsIncomingIDs(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetRequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	req.Header.Set(HeaderTraceID, "trace-7")
	w := serve(r, req)

	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "trace-7", w.Header().Get(HeaderTraceID))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("product", "p-1"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeNotFound, body["code"])

	w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), Recovery())
	r.GET("/", func(c *gin.Context) { panic("needle snapped") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
	assert.NotContains(t, w.Body.String(), "needle snapped")
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		if roles := c.GetHeader("X-Roles"); roles != "" {
			c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(),
				&appctx.UserContext{UserID: "u", Roles: []string{roles}}))
		}
	})
	r.GET("/", RequireRole("admin", "stock"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Roles", "cashier")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Roles", "stock")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Basic abc", "Bearer", "Bearer  "} {
		_, ok = bearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(http.MethodPost, "/x", []byte(`{"a":1}`))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint(http.MethodPost, "/x", []byte(`{"a":1}`)))
	assert.NotEqual(t, a, Fingerprint(http.MethodPut, "/x", []byte(`{"a":1}`)))
	assert.NotEqual(t, a, Fingerprint(http.MethodPost, "/y", []byte(`{"a":1}`)))
	assert.NotEqual(t, a, Fingerprint(http.MethodPost, "/x", []byte(`{"a":2}`)))
}

func TestIdempotencySettlesKeyByOutcome(t *testing.T) {
	store := memory.New().Idempotency
	calls := 0
	outcomes := []error{
		apperror.NewSerializationFailure(errors.New("could not serialize access")),
		errors.New("connection reset"),
		nil,
	}

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/payments", func(c *gin.Context) {
		err := outcomes[calls]
		calls++
		if err != nil {
			_ = c.Error(err)
			return
		}
		key, st, ok := IdempotencyFrom(c)
		require.True(t, ok)
		require.NoError(t, st.CompleteKey(c.Request.Context(), key, http.StatusCreated, "application/json", []byte(`{"ok":true}`)))
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	r.POST("/rejects", func(c *gin.Context) {
		calls++
		_ = c.Error(apperror.NewAlreadyPaid("sales invoice", "inv-1"))
	})

	post := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"amount":10}`))
		req.Header.Set(HeaderIdempotencyKey, key)
		return serve(r, req)
	}

	assert.Equal(t, http.StatusConflict, post("/payments", "pay-1").Code)
	assert.Equal(t, http.StatusInternalServerError, post("/payments", "pay-1").Code)
	w := post("/payments", "pay-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 3, calls)

	w = post("/payments", "pay-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 3, calls)

	// Business rejections are final and replayed.
	assert.Equal(t, http.StatusBadRequest, post("/rejects", "rej-1").Code)
	w = post("/rejects", "rej-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 4, calls)
}

func TestRetryable(t *testing.T) {
	assert.True(t, apperror.Retryable(apperror.NewSerializationFailure(errors.New("40001"))))
	assert.True(t, apperror.Retryable(apperror.NewConcurrentModification("invoice", "1")))
	assert.True(t, apperror.Retryable(errors.New("boom")))
	assert.False(t, apperror.Retryable(apperror.NewInsufficientStock("p", "Thread", 5, 2)))
	assert.False(t, apperror.Retryable(apperror.NewValidation("bad")))
}
