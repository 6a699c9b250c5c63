package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	bursarapi "github.com/rafaelfelix66/supernosso-coins/pkg/api/bursar"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
)

func setupTestRouter(t *testing.T, userID, role string) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	Init(mockDB, logging.NewLogger(), nil, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	})
	router.GET("/coins/balance", GetBalance)
	router.POST("/coins/send", SendCoins)
	router.GET("/coins/history", GetHistory)
	router.GET("/coins/ranking", GetRanking)
	router.GET("/coins/attributes", ListAttributes)
	router.POST("/coins/attributes", CreateAttribute)
	router.PUT("/coins/attributes/:id", UpdateAttribute)
	router.DELETE("/coins/attributes/:id", DeleteAttribute)
	router.GET("/coins/policy", GetPolicy)
	router.PUT("/coins/policy", UpdatePolicy)
	router.POST("/coins/recharge", TriggerRecharge)

	return router, mock, func() { mockDB.Close() }
}

func TestGetBalance_ReturnsUserBalance(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	mock.ExpectExec("INSERT INTO bursar.coin_balances").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id, balance, total_received, total_given").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "total_received", "total_given", "last_recharge", "created_at", "updated_at"}).
			AddRow("alice", 42, 10, 8, nil, time.Now(), time.Now()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/coins/balance", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["balance"].(float64) != 42 {
		t.Fatalf("expected balance 42, got %v", body["balance"])
	}
}

func TestSendCoins_Success(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	attrID := "a0000000-0000-0000-0000-000000000001"
	attrRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "description", "cost", "active", "icon", "color", "created_at", "updated_at"}).
			AddRow(attrID, "Innovation", "", 5, true, "", "", time.Now(), time.Now())
	}

	mock.ExpectQuery("FROM bursar.coin_attributes").WithArgs(attrID).WillReturnRows(attrRows())
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bursar.coin_balances").
		WithArgs(int64(5), "alice").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(95))
	mock.ExpectExec("INSERT INTO bursar.coin_balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bursar.coin_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// Attribute re-read for the recipient notification.
	mock.ExpectQuery("FROM bursar.coin_attributes").WithArgs(attrID).WillReturnRows(attrRows())

	payload, _ := json.Marshal(bursarapi.SendRequest{ToUser: "bob", AttributeID: attrID, Message: "great work"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coins/send", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp bursarapi.SendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.NewBalance != 95 {
		t.Fatalf("expected new balance 95, got %d", resp.NewBalance)
	}
	if resp.Transaction.ToUser != "bob" {
		t.Fatalf("expected recipient bob, got %s", resp.Transaction.ToUser)
	}
}

func TestSendCoins_SelfTransferIsBadRequest(t *testing.T) {
	router, _, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	payload, _ := json.Marshal(bursarapi.SendRequest{ToUser: "alice", AttributeID: "attr-1"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coins/send", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSendCoins_InsufficientFunds(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	attrID := "a0000000-0000-0000-0000-000000000002"
	mock.ExpectQuery("FROM bursar.coin_attributes").
		WithArgs(attrID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "cost", "active", "icon", "color", "created_at", "updated_at"}).
			AddRow(attrID, "Innovation", "", 5, true, "", "", time.Now(), time.Now()))
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bursar.coin_balances").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	payload, _ := json.Marshal(bursarapi.SendRequest{ToUser: "bob", AttributeID: attrID})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coins/send", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSendCoins_MissingFields(t *testing.T) {
	router, _, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coins/send", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetRanking_UnknownDimensionIsBadRequest(t *testing.T) {
	router, _, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/coins/ranking?by=karma", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetRanking_StoreFailureIsInternal(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	mock.ExpectQuery("FROM bursar.coin_balances").
		WillReturnError(sql.ErrConnDone)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/coins/ranking", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateAttribute_DuplicateIsConflict(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "admin-1", "admin")
	defer closeDB()

	mock.ExpectExec("INSERT INTO bursar.coin_attributes").
		WillReturnError(&pq.Error{Code: "23505"})

	payload, _ := json.Marshal(bursarapi.CreateAttributeRequest{Name: "Innovation", Cost: 5})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coins/attributes", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListAttributes_UserSeesActiveOnly(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "alice", "user")
	defer closeDB()

	mock.ExpectQuery("FROM bursar.coin_attributes WHERE active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "cost", "active", "icon", "color", "created_at", "updated_at"}).
			AddRow("attr-1", "Innovation", "", 5, true, "", "", time.Now(), time.Now()))

	// include_inactive is ignored without the admin role
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/coins/attributes?include_inactive=true", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp bursarapi.ListAttributesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 attribute, got %d", resp.Count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePolicy_BadDayIsBadRequest(t *testing.T) {
	router, _, closeDB := setupTestRouter(t, "admin-1", "admin")
	defer closeDB()

	day := 31
	payload, _ := json.Marshal(bursarapi.UpdatePolicyRequest{RechargeDay: &day})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/coins/policy", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTriggerRecharge_ReportsCounts(t *testing.T) {
	router, mock, closeDB := setupTestRouter(t, "admin-1", "admin")
	defer closeDB()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("FROM bursar.recharge_policies WHERE active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "monthly_amount", "recharge_day", "recharge_mode", "active", "created_at", "updated_at"}).
			AddRow("policy-1", 100, 1, "fixed", true, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT user_id FROM bursar.coin_balances").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice"))
	mock.ExpectExec("UPDATE bursar.coin_balances").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coins/recharge", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp bursarapi.RechargeRunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Result.Recharged != 1 {
		t.Fatalf("expected 1 recharged, got %+v", resp.Result)
	}
}
