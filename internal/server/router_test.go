package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cryptoledger/internal/lock"
	"cryptoledger/internal/testutil"
	"cryptoledger/internal/validator"
)

const testAPIKey = "operator-key"

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupRouter(t *testing.T) (*gin.Engine, *testutil.StubPriceSource) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	prices := testutil.NewStubPriceSource("1000")
	router := NewRouter(Deps{
		DB:          db,
		Prices:      prices,
		Locker:      lock.NewKeyedMutex(),
		APIKey:      testAPIKey,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return router, prices
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func transactionBody(clientID uint, code, action, amount string) string {
	return fmt.Sprintf(`{"clientId":%d,"cryptoCode":%q,"action":%q,"cryptoAmount":%q,"datetime":"2024-05-01T12:00:00Z"}`,
		clientID, code, action, amount)
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)

	rec := call(r, http.MethodGet, "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestLedgerFlow(t *testing.T) {
	r, prices := setupRouter(t)

	rec := call(r, http.MethodPost, "/api/v1/clients", `{"name":"Ada Lovelace","email":"ada@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: status = %d body = %s", rec.Code, rec.Body.String())
	}
	clientID := uint(decode(t, rec)["client"].(map[string]interface{})["id"].(float64))

	for _, step := range []struct {
		action, amount string
	}{
		{"purchase", "0.5"},
		{"purchase", "0.3"},
		{"sale", "0.2"},
	} {
		rec = call(r, http.MethodPost, "/api/v1/transactions", transactionBody(clientID, "BTC", step.action, step.amount))
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s %s: status = %d body = %s", step.action, step.amount, rec.Code, rec.Body.String())
		}
	}

	rec = call(r, http.MethodPost, "/api/v1/transactions", transactionBody(clientID, "btc", "sale", "0.60001"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversell: status = %d", rec.Code)
	}
	if code := decode(t, rec)["error"].(map[string]interface{})["code"]; code != "INSUFFICIENT_BALANCE" {
		t.Errorf("oversell: code = %v", code)
	}

	callsBefore := prices.Calls()
	rec = call(r, http.MethodPost, "/api/v1/transactions", transactionBody(clientID, "doge", "sale", "1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("doge: status = %d", rec.Code)
	}
	if code := decode(t, rec)["error"].(map[string]interface{})["code"]; code != "UNSUPPORTED_ASSET" {
		t.Errorf("doge: code = %v", code)
	}
	if prices.Calls() != callsBefore {
		t.Error("unsupported asset must not reach the price feed")
	}

	rec = call(r, http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/balances", clientID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("balances: status = %d", rec.Code)
	}
	balances := decode(t, rec)["balances"].([]interface{})
	found := false
	for _, b := range balances {
		holding := b.(map[string]interface{})
		if holding["cryptoCode"] != "btc" {
			continue
		}
		found = true
		got := decimal.RequireFromString(holding["balance"].(string))
		if !got.Equal(decimal.RequireFromString("0.6")) {
			t.Errorf("btc balance = %s, want 0.6", got)
		}
	}
	if !found {
		t.Error("expected btc holding")
	}

	rec = call(r, http.MethodGet, fmt.Sprintf("/api/v1/transactions?clientId=%d&action=purchase", clientID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	if total := decode(t, rec)["totalItems"].(float64); total != 2 {
		t.Errorf("totalItems = %v, want 2", total)
	}

	rec = call(r, http.MethodDelete, fmt.Sprintf("/api/v1/clients/%d", clientID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete client: status = %d", rec.Code)
	}

	rec = call(r, http.MethodGet, fmt.Sprintf("/api/v1/transactions?clientId=%d", clientID), "")
	if total := decode(t, rec)["totalItems"].(float64); total != 0 {
		t.Errorf("expected transactions removed with client, got %v", total)
	}
}

func TestMutatingRoutesRequireAPIKey(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"name":"Ada","email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/clients", http.NoBody)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("reads should stay open, status = %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setupRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/wallets", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := decode(t, rec)["error"].(map[string]interface{})["code"]; code != "NOT_FOUND" {
		t.Errorf("code = %v, want NOT_FOUND", code)
	}
}

func TestInvalidBodyIsInvalidInput(t *testing.T) {
	r, _ := setupRouter(t)

	rec := call(r, http.MethodPost, "/api/v1/clients", `{"name":"Ada"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := decode(t, rec)["error"].(map[string]interface{})["code"]; code != "INVALID_INPUT" {
		t.Errorf("code = %v, want INVALID_INPUT", code)
	}
}
