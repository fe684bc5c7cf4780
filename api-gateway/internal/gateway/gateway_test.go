package gateway

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("gateway-secret")

// echoUpstream answers with its name, the path it saw and the forwarded user.
func echoUpstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, name+" "+r.Method+" "+r.URL.RequestURI()+" user="+r.Header.Get("X-User-ID")+" body="+string(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGateway(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	up := Upstreams{
		Transactions:  echoUpstream(t, "transactions").URL,
		Risk:          echoUpstream(t, "risk").URL,
		Decisions:     echoUpstream(t, "decisions").URL,
		Notifications: echoUpstream(t, "notifications").URL,
		Analytics:     echoUpstream(t, "analytics").URL,
	}
	proxy := NewProxy(&http.Client{Timeout: 5 * time.Second}, zap.NewNop())
	return NewRouter(up, proxy, middleware.AuthMiddleware(testSecret), zap.NewNop())
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoutesReachOwningService(t *testing.T) {
	router := newTestGateway(t)

	tests := []struct {
		method   string
		url      string
		upstream string
	}{
		{http.MethodPost, "/api/transactions", "transactions"},
		{http.MethodGet, "/api/transactions/txn-1", "transactions"},
		{http.MethodGet, "/api/users/user-1/transactions", "transactions"},
		{http.MethodGet, "/api/risk/profiles/user-1", "risk"},
		{http.MethodGet, "/api/fraud-cases?page=1&size=5", "decisions"},
		{http.MethodGet, "/api/fraud-cases/case-1", "decisions"},
		{http.MethodGet, "/api/fraud-cases/transaction/txn-1", "decisions"},
		{http.MethodGet, "/api/notifications?userId=user-1", "notifications"},
		{http.MethodGet, "/api/analytics/daily-summary?days=7", "analytics"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.url, strings.NewReader(`{"a":1}`)))
			assert.Equal(t, http.StatusTeapot, w.Code)
			assert.Equal(t, tt.upstream, w.Header().Get("X-Upstream"))
			assert.True(t, strings.HasPrefix(w.Body.String(), tt.upstream+" "+tt.method+" "+tt.url+" "), w.Body.String())
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestGateway(t)

	protected := []struct{ method, url string }{
		{http.MethodPut, "/api/fraud-cases/case-1/review"},
		{http.MethodPost, "/api/analytics/run-batch"},
		{http.MethodGet, "/api/risk/high-risk-transactions"},
	}
	for _, p := range protected {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(p.method, p.url, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.url)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/fraud-cases/case-1/review", strings.NewReader(`{"action":"APPROVE"}`))
	req.Header.Set("Authorization", bearer(t, "analyst-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, w.Body.String(), "user=analyst-1")
	assert.Contains(t, w.Body.String(), `body={"action":"APPROVE"}`)
}

func TestUnavailableUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	proxy := NewProxy(&http.Client{Timeout: time.Second}, zap.NewNop())
	router := NewRouter(Upstreams{Transactions: deadURL}, proxy, middleware.AuthMiddleware(testSecret), zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions/txn-1", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestClientSuppliedUserIDIsDropped(t *testing.T) {
	router := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/txn-1", nil)
	req.Header.Set("X-User-ID", "spoofed")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, w.Body.String(), "user= ")

	req = httptest.NewRequest(http.MethodPut, "/api/fraud-cases/case-1/review", strings.NewReader(`{"action":"REJECT"}`))
	req.Header.Set("Authorization", bearer(t, "analyst-2"))
	req.Header.Set("X-User-ID", "spoofed")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "user=analyst-2 ")
	assert.NotContains(t, w.Body.String(), "spoofed")
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestUnreadableRequestBody(t *testing.T) {
	router := newTestGateway(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", failingBody{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
