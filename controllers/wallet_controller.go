package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelhub/reelhub/utils"
	"github.com/reelhub/reelhub/wallet"
)

// WalletController exposes the coin ledger to authenticated users.
type WalletController struct {
	wallet *wallet.Service
}

// NewWalletController creates a new WalletController instance.
func NewWalletController(w *wallet.Service) *WalletController {
	return &WalletController{wallet: w}
}

// GetWallet returns the caller's coin balance.
func (w *WalletController) GetWallet(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	balance, err := w.wallet.Balance(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load wallet")
		return
	}

	utils.Success(ctx, gin.H{"coins_balance": balance})
}

// Deposit credits coins against an external payment reference.
func (w *WalletController) Deposit(ctx *gin.Context) {
	w.mutate(ctx, w.wallet.Credit)
}

// Withdraw debits coins against an external payout reference.
func (w *WalletController) Withdraw(ctx *gin.Context) {
	w.mutate(ctx, w.wallet.Debit)
}

func (w *WalletController) mutate(ctx *gin.Context, op func(context.Context, uint, int64, string) (int64, error)) {
	var req struct {
		Amount    int64  `json:"amount" binding:"required"`
		Reference string `json:"reference" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	balance, err := op(ctx.Request.Context(), userID, req.Amount, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount):
			utils.Error(ctx, http.StatusBadRequest, 40031, "amount must be positive")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			utils.Error(ctx, http.StatusConflict, 40930, "insufficient coin balance")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50031, "wallet mutation failed")
		}
		return
	}

	utils.Success(ctx, gin.H{"coins_balance": balance})
}
