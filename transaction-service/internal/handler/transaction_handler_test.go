package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ---- mock implementations ----

type mockTransactionCommander struct {
	createFn func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
}

func (m *mockTransactionCommander) CreateTransaction(_ context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactionQuerier struct {
	getFn  func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
	listFn func(cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

func (m *mockTransactionQuerier) GetTransaction(_ context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionQuerier) ListTransactions(_ context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newTxTestRouter(cmds TransactionCommander, qrys TransactionQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTransactionHandler(cmds, qrys)
	r.POST("/api/transactions", h.CreateTransaction)
	r.GET("/api/transactions/:transactionId", h.GetTransaction)
	r.GET("/api/users/:userId/transactions", h.ListUserTransactions)
	return r
}

func txDoRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var txTestTransaction = &models.Transaction{
	ID: "txn-001", UserID: "user-001", Amount: decimal.NewFromInt(55000),
	Location: "Lagos", MerchantType: "Crypto Exchange", Status: models.TransactionPending,
	CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

var txTestView = txTestTransaction.View()

func txBody() map[string]any {
	return map[string]any{"userId": "user-001", "amount": 55000, "location": "Lagos", "merchantType": "Crypto Exchange"}
}

// ---- tests ----

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		createFn       func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name:           "success - transaction admitted",
			body:           txBody(),
			createFn:       func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) { return txTestTransaction, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name: "success - amount given as string",
			body: map[string]any{"userId": "user-001", "amount": "120.50"},
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				if !cmd.Amount.Equal(decimal.RequireFromString("120.50")) {
					return nil, fmt.Errorf("amount not forwarded: %s", cmd.Amount)
				}
				return txTestTransaction, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "too many requests - rate limit exceeded",
			body: txBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, &apperrors.RateLimitError{UserID: cmd.UserID, Count: 11, Limit: 10}
			},
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name: "conflict - duplicate transaction id",
			body: txBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, apperrors.Conflict("transaction", "txn-001")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "internal error - store unavailable",
			body: txBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("pq: connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]any{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing user",
			body:           map[string]any{"amount": 10},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - amount is zero",
			body:           map[string]any{"userId": "user-001", "amount": 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - amount is not a number",
			body:           map[string]any{"userId": "user-001", "amount": "lots"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockTransactionCommander{createFn: tt.createFn}
			router := newTxTestRouter(cmds, &mockTransactionQuerier{})
			w := txDoRequest(router, http.MethodPost, "/api/transactions", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateTransaction_InternalErrorHidesDetail(t *testing.T) {
	cmds := &mockTransactionCommander{createFn: func(cqrs.CreateTransactionCommand) (*models.Transaction, error) {
		return nil, fmt.Errorf("pq: connection refused")
	}}
	w := txDoRequest(newTxTestRouter(cmds, &mockTransactionQuerier{}), http.MethodPost, "/api/transactions", txBody())
	if strings.Contains(w.Body.String(), "pq:") {
		t.Errorf("internal detail leaked: %s", w.Body.String())
	}
}

func TestGetTransaction(t *testing.T) {
	tests := []struct {
		name           string
		transactionID  string
		getFn          func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name:           "success - fetch transaction",
			transactionID:  "txn-001",
			getFn:          func(q cqrs.GetTransactionQuery) (*models.TransactionView, error) { return txTestView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:          "not found - transaction does not exist",
			transactionID: "txn-999",
			getFn: func(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
				return nil, apperrors.NotFound("transaction", q.TransactionID)
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{getFn: tt.getFn})
			w := txDoRequest(router, http.MethodGet, "/api/transactions/"+tt.transactionID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListUserTransactions(t *testing.T) {
	var gotUser string
	qrys := &mockTransactionQuerier{listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
		gotUser = q.UserID
		return []models.TransactionView{*txTestView}, nil
	}}
	w := txDoRequest(newTxTestRouter(&mockTransactionCommander{}, qrys), http.MethodGet, "/api/users/user-001/transactions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if gotUser != "user-001" {
		t.Errorf("expected user-001, got %q", gotUser)
	}

	var resp ListTransactionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Transactions) != 1 || resp.Transactions[0].ID != "txn-001" {
		t.Errorf("unexpected transactions: %+v", resp.Transactions)
	}
}
