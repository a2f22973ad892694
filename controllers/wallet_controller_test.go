package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhub/reelhub/utils"
	"github.com/reelhub/reelhub/wallet"
)

func walletTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	wc := NewWalletController(wallet.NewService(gdb))

	r := gin.New()
	r.GET("/api/wallet", fakeAuth(1, "alice"), wc.GetWallet)
	r.POST("/api/wallet/deposit", fakeAuth(1, "alice"), wc.Deposit)
	r.POST("/api/wallet/withdraw", fakeAuth(1, "alice"), wc.Withdraw)
	return r, mock
}

func TestGetWallet(t *testing.T) {
	r, mock := walletTestRouter(t)

	mock.ExpectQuery(`SELECT .* FROM .wallets. WHERE user_id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "coins_balance", "created_at", "updated_at"}).
			AddRow(5, 1, 120, time.Now(), time.Now()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/wallet", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data struct {
			CoinsBalance int64 `json:"coins_balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(120), body.Data.CoinsBalance)
}

func TestDepositRejectsNegativeAmount(t *testing.T) {
	r, _ := walletTestRouter(t)

	w := postJSON(r, "/api/wallet/deposit", `{"amount":-50,"reference":"pay-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 40031, body.Code)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	r, mock := walletTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM .wallets. .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "coins_balance", "created_at", "updated_at"}).
			AddRow(5, 1, 10, time.Now(), time.Now()))
	mock.ExpectRollback()

	w := postJSON(r, "/api/wallet/withdraw", `{"amount":500,"reference":"order-1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 40930, body.Code)
}
